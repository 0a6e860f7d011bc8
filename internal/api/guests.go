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
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// GuestRequest adds a guest. With an event type the guest's RSVP likelihood
// is predicted right away.
type GuestRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	EventType string `json:"eventType"`
}

// RSVPRequest sets an RSVP status
type RSVPRequest struct {
	RSVP string `json:"rsvp" binding:"required"`
}

// PredictRequest names the event a likelihood is predicted for
type PredictRequest struct {
	EventType string `json:"eventType" binding:"required"`
}

// listGuests handles GET /api/sessions/:id/guests
func (h *Handler) listGuests(c *gin.Context) {
	guests, err := h.cache.Guests(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "loading guests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests, "summary": model.SummarizeGuests(guests)})
}

// addGuest handles POST /api/sessions/:id/guests
func (h *Handler) addGuest(c *gin.Context) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	sessionID := c.Param("id")

	guest, err := h.cache.AddGuest(ctx, sessionID, req.Name, req.Email)
	if err != nil {
		h.writeError(c, err, "adding guest")
		return
	}

	if req.EventType != "" {
		guest, err = h.predict(ctx, sessionID, guest, req.EventType)
		if err != nil {
			h.writeError(c, err, "predicting rsvp")
			return
		}
	}

	c.JSON(http.StatusCreated, guest)
}

// removeGuest handles DELETE /api/sessions/:id/guests/:guestID
func (h *Handler) removeGuest(c *gin.Context) {
	if err := h.cache.RemoveGuest(c.Request.Context(), c.Param("id"), c.Param("guestID")); err != nil {
		h.writeError(c, err, "removing guest")
		return
	}
	c.Status(http.StatusNoContent)
}

// updateRSVP handles PUT /api/sessions/:id/guests/:guestID/rsvp
func (h *Handler) updateRSVP(c *gin.Context) {
	status, ok := h.bindRSVP(c)
	if !ok {
		return
	}

	guest, err := h.cache.UpdateRSVP(c.Request.Context(), c.Param("id"), c.Param("guestID"), status)
	if err != nil {
		h.writeError(c, err, "updating rsvp")
		return
	}
	c.JSON(http.StatusOK, guest)
}

// bulkRSVP handles PATCH /api/sessions/:id/guests, answering for every
// pending guest
func (h *Handler) bulkRSVP(c *gin.Context) {
	status, ok := h.bindRSVP(c)
	if !ok {
		return
	}

	guests, err := h.cache.BulkRSVP(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeError(c, err, "updating rsvps")
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": guests, "summary": model.SummarizeGuests(guests)})
}

// predictGuest handles POST /api/sessions/:id/guests/:guestID/predict
func (h *Handler) predictGuest(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	sessionID := c.Param("id")

	guest, err := h.cache.Guest(ctx, sessionID, c.Param("guestID"))
	if err != nil {
		h.writeError(c, err, "loading guest")
		return
	}

	guest, err = h.predict(ctx, sessionID, guest, req.EventType)
	if err != nil {
		h.writeError(c, err, "predicting rsvp")
		return
	}
	c.JSON(http.StatusOK, guest)
}

// predict stores the RSVP likelihood of guest for eventType. A prediction that
// cannot be made is stored as Unknown.
func (h *Handler) predict(ctx context.Context, sessionID string, guest model.Guest, eventType string) (model.Guest, error) {
	likelihood := catalog.UnknownLikelihood

	prompt, err := suggest.ComposeRSVPPrompt(eventType, guest.Name)
	if err != nil {
		return model.Guest{}, err
	}

	genCtx, cancel := h.generationContext(ctx)
	result, err := h.suggester.Suggest(genCtx, model.Request{
		Kind:      model.KindRSVPLikelihood,
		EventType: eventType,
		Prompt:    prompt,
	})
	cancel()

	switch {
	case err != nil:
		h.logger.Warn("RSVP prediction unavailable",
			zap.String("session_id", sessionID),
			zap.String("guest_id", guest.ID),
			zap.Error(err))
	case result.Text != "":
		likelihood = result.Text
	}

	storeCtx, cancelStore := storeContext(ctx)
	defer cancelStore()
	return h.cache.SetLikelihood(storeCtx, sessionID, guest.ID, likelihood)
}

func (h *Handler) bindRSVP(c *gin.Context) (model.RSVPStatus, bool) {
	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return "", false
	}
	status, err := model.ParseRSVPStatus(req.RSVP)
	if err != nil {
		h.writeError(c, err, "parsing rsvp")
		return "", false
	}
	return status, true
}
