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

// Package api exposes the suggestion engine and the session collections over
// HTTP using gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/resilience"
	"github.com/your-org/event-planner-assistant/internal/session"
	"github.com/your-org/event-planner-assistant/internal/telemetry"
)

const (
	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"

	// storeTimeout bounds session writes that follow a suggestion call
	storeTimeout = 5 * time.Second
)

// Suggester produces a suggestion for a request
type Suggester interface {
	Suggest(ctx context.Context, req model.Request) (*model.Result, error)
}

// SessionCreator starts new client sessions
type SessionCreator interface {
	CreateSession(ctx context.Context) (*session.Session, error)
}

// Handler serves the planner HTTP API
type Handler struct {
	suggester      Suggester
	sessions       SessionCreator
	cache          *mergecache.Cache
	errors         *resilience.ErrorHandler
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewHandler creates a new API handler
func NewHandler(suggester Suggester, sessions SessionCreator, cache *mergecache.Cache,
	requestTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		suggester:      suggester,
		sessions:       sessions,
		cache:          cache,
		errors:         resilience.NewErrorHandler(logger),
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// NewRouter builds a gin engine with the standard middleware, the health
// endpoint and every API route
func NewRouter(h *Handler, health gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), h.accessLog(), Tracing())

	if health != nil {
		router.GET("/health", health)
	}
	h.RegisterRoutes(router)

	return router
}

// RegisterRoutes registers the API routes with the gin router. Suggestion
// routes bound only the generation step by the request timeout; session routes
// bound the whole request.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	ai := router.Group("/api/ai")
	{
		ai.POST("/theme", h.suggest(model.KindTheme))
		ai.POST("/timeline", h.suggest(model.KindTimeline))
		ai.POST("/tasks", h.suggest(model.KindTasks))
		ai.POST("/invitation", h.suggest(model.KindInvitation))
		ai.POST("/rsvp", h.suggest(model.KindRSVPLikelihood))
		ai.POST("/budget", h.suggest(model.KindBudget))
	}

	sessions := router.Group("/api/sessions", Timeout(h.requestTimeout))
	{
		sessions.POST("", h.createSession)

		sessions.GET("/:id/themes", h.listThemes)
		sessions.POST("/:id/themes", h.addTheme)
		sessions.POST("/:id/themes/favorite", h.toggleFavorite)
		sessions.PUT("/:id/selected-theme", h.selectTheme)
		sessions.DELETE("/:id/selected-theme", h.clearSelection)

		sessions.GET("/:id/tasks/:eventType", h.listTasks)
		sessions.POST("/:id/tasks/:eventType", h.addTask)
		sessions.PATCH("/:id/tasks/:eventType/:taskID", h.updateTask)
		sessions.DELETE("/:id/tasks/:eventType/:taskID", h.deleteTask)
		sessions.POST("/:id/tasks/:eventType/:taskID/toggle", h.toggleTask)

		sessions.GET("/:id/invitations", h.listInvitations)
		sessions.POST("/:id/invitations", h.saveInvitation)

		sessions.GET("/:id/guests", h.listGuests)
		sessions.POST("/:id/guests", h.addGuest)
		sessions.PATCH("/:id/guests", h.bulkRSVP)
		sessions.DELETE("/:id/guests/:guestID", h.removeGuest)
		sessions.PUT("/:id/guests/:guestID/rsvp", h.updateRSVP)
		sessions.POST("/:id/guests/:guestID/predict", h.predictGuest)
	}
}

// RequestID assigns every request an ID, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Timeout bounds the request context. Handlers that outlive it see a
// cancelled context.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Tracing starts a span per route
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := telemetry.Tracer().Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.String("request.id", c.GetString(requestIDKey)),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("Request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}

// generationContext bounds a suggestion call by the request timeout. Work that
// follows the call keeps the unbounded request context.
func (h *Handler) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.requestTimeout)
}

// storeContext detaches session writes from the request deadline so a
// suggestion that used up the deadline can still be saved.
func storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
}

func (h *Handler) writeError(c *gin.Context, err error, operation string) {
	h.errors.WriteErrorResponse(c.Writer, err, operation, c.GetString(requestIDKey))
	c.Abort()
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.writeError(c, resilience.NewBadRequestError("Invalid request format: "+err.Error(), err), "parsing request")
}
