// Copyright 2024 Event Planner Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// SuggestionRequest is the body accepted by every /api/ai endpoint. Each kind
// reads only the fields it needs.
type SuggestionRequest struct {
	EventType      string                   `json:"eventType"`
	DaysUntilEvent int                      `json:"daysUntilEvent"`
	Guests         int                      `json:"guests"`
	Prompt         string                   `json:"prompt"`
	Details        *model.InvitationDetails `json:"details,omitempty"`
	Name           string                   `json:"name"`
	SessionID      string                   `json:"session_id"`
}

// SuggestionResponse wraps a result with the merged session collection and
// the budget total where they apply
type SuggestionResponse struct {
	*model.Result
	Merged    interface{} `json:"merged,omitempty"`
	Total     *float64    `json:"total,omitempty"`
	RequestID string      `json:"request_id"`
}

// toRequest turns the HTTP body into a domain request for kind
func (r SuggestionRequest) toRequest(kind model.Kind) (model.Request, error) {
	req := model.Request{
		Kind:           kind,
		EventType:      r.EventType,
		DaysUntilEvent: r.DaysUntilEvent,
		GuestCount:     r.Guests,
		Prompt:         r.Prompt,
	}

	if strings.TrimSpace(req.Prompt) != "" {
		return req, nil
	}

	switch kind {
	case model.KindInvitation:
		if r.Details == nil {
			return req, nil
		}
		details := *r.Details
		if details.EventType == "" {
			details.EventType = r.EventType
		}
		prompt, err := suggest.ComposeInvitationPrompt(details)
		if err != nil {
			return req, err
		}
		req.Prompt = prompt
		if req.EventType == "" {
			req.EventType = details.EventType
		}
	case model.KindRSVPLikelihood:
		if r.Name == "" {
			return req, nil
		}
		prompt, err := suggest.ComposeRSVPPrompt(r.EventType, r.Name)
		if err != nil {
			return req, err
		}
		req.Prompt = prompt
	}

	return req, nil
}

// suggest handles POST /api/ai/<kind>
func (h *Handler) suggest(kind model.Kind) gin.HandlerFunc {
	operation := fmt.Sprintf("generating %s suggestions", kind)

	return func(c *gin.Context) {
		var body SuggestionRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			h.badRequest(c, err)
			return
		}

		req, err := body.toRequest(kind)
		if err != nil {
			h.writeError(c, err, operation)
			return
		}

		ctx := c.Request.Context()
		genCtx, cancel := h.generationContext(ctx)
		result, err := h.suggester.Suggest(genCtx, req)
		cancel()
		if err != nil {
			h.writeError(c, err, operation)
			return
		}

		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("suggestion.kind", string(kind)),
			attribute.String("suggestion.provenance", string(result.Provenance)),
			attribute.Int("suggestion.items", result.Len()),
		)

		response := SuggestionResponse{Result: result, RequestID: c.GetString(requestIDKey)}

		if body.SessionID != "" {
			storeCtx, cancelStore := storeContext(ctx)
			defer cancelStore()

			switch kind {
			case model.KindTheme:
				merged, err := h.cache.MergeThemeResult(storeCtx, body.SessionID, result)
				if err != nil {
					h.writeError(c, err, "merging themes")
					return
				}
				response.Merged = merged
			case model.KindTasks:
				merged, err := h.cache.MergeTaskResult(storeCtx, body.SessionID, req.EventType, result)
				if err != nil {
					h.writeError(c, err, "merging tasks")
					return
				}
				response.Merged = merged
			}
		}

		if kind == model.KindBudget {
			total := model.TotalBudget(result.Budget)
			response.Total = &total
		}

		h.logger.Debug("Suggestion served",
			zap.String("kind", string(kind)),
			zap.String("event_type", req.EventType),
			zap.String("provenance", string(result.Provenance)),
			zap.Int("items", result.Len()),
			zap.String("request_id", response.RequestID))

		c.JSON(http.StatusOK, response)
	}
}
