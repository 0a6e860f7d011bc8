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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// ThemeRequest names a theme
type ThemeRequest struct {
	Name string `json:"name" binding:"required"`
}

// TaskRequest creates or edits a task
type TaskRequest struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

// InvitationRequest saves an invitation text
type InvitationRequest struct {
	EventType string `json:"eventType"`
	Text      string `json:"text"`
}

// createSession handles POST /api/sessions
func (h *Handler) createSession(c *gin.Context) {
	sess, err := h.sessions.CreateSession(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "creating session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"expires_at": sess.ExpiresAt,
	})
}

// listThemes handles GET /api/sessions/:id/themes?q=&sort=
func (h *Handler) listThemes(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	themes, err := h.cache.Themes(ctx, sessionID)
	if err != nil {
		h.writeError(c, err, "loading themes")
		return
	}
	favorites, err := h.cache.Favorites(ctx, sessionID)
	if err != nil {
		h.writeError(c, err, "loading favorite themes")
		return
	}
	selected, _, err := h.cache.SelectedTheme(ctx, sessionID)
	if err != nil {
		h.writeError(c, err, "loading selected theme")
		return
	}

	themes = suggest.FilterThemes(themes, c.Query("q"))
	themes = suggest.SortThemes(themes, c.DefaultQuery("sort", suggest.SortDefault))

	c.JSON(http.StatusOK, gin.H{
		"themes":    themes,
		"favorites": favorites,
		"selected":  selected,
	})
}

// addTheme handles POST /api/sessions/:id/themes
func (h *Handler) addTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	themes, err := h.cache.AddCustomTheme(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.writeError(c, err, "adding theme")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"themes": themes})
}

// toggleFavorite handles POST /api/sessions/:id/themes/favorite
func (h *Handler) toggleFavorite(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	favorite, err := h.cache.ToggleFavorite(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.writeError(c, err, "updating favorite themes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": req.Name, "favorite": favorite})
}

// selectTheme handles PUT /api/sessions/:id/selected-theme
func (h *Handler) selectTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	selected, err := h.cache.SelectTheme(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.writeError(c, err, "selecting theme")
		return
	}

	c.JSON(http.StatusOK, gin.H{"selected": selected})
}

// clearSelection handles DELETE /api/sessions/:id/selected-theme
func (h *Handler) clearSelection(c *gin.Context) {
	if err := h.cache.ClearSelection(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "clearing theme selection")
		return
	}
	c.Status(http.StatusNoContent)
}

// listTasks handles GET /api/sessions/:id/tasks/:eventType
func (h *Handler) listTasks(c *gin.Context) {
	tasks, err := h.cache.Tasks(c.Request.Context(), c.Param("id"), c.Param("eventType"))
	if err != nil {
		h.writeError(c, err, "loading tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// addTask handles POST /api/sessions/:id/tasks/:eventType
func (h *Handler) addTask(c *gin.Context) {
	req, priority, ok := h.bindTask(c)
	if !ok {
		return
	}

	task, err := h.cache.AddTask(c.Request.Context(), c.Param("id"), c.Param("eventType"), req.Text, priority)
	if err != nil {
		h.writeError(c, err, "adding task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// updateTask handles PATCH /api/sessions/:id/tasks/:eventType/:taskID
func (h *Handler) updateTask(c *gin.Context) {
	req, priority, ok := h.bindTask(c)
	if !ok {
		return
	}

	task, err := h.cache.UpdateTask(c.Request.Context(), c.Param("id"), c.Param("eventType"),
		c.Param("taskID"), req.Text, priority)
	if err != nil {
		h.writeError(c, err, "updating task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// toggleTask handles POST /api/sessions/:id/tasks/:eventType/:taskID/toggle
func (h *Handler) toggleTask(c *gin.Context) {
	task, err := h.cache.ToggleTask(c.Request.Context(), c.Param("id"), c.Param("eventType"), c.Param("taskID"))
	if err != nil {
		h.writeError(c, err, "toggling task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// deleteTask handles DELETE /api/sessions/:id/tasks/:eventType/:taskID
func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.cache.DeleteTask(c.Request.Context(), c.Param("id"), c.Param("eventType"), c.Param("taskID")); err != nil {
		h.writeError(c, err, "deleting task")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindTask(c *gin.Context) (TaskRequest, model.Priority, bool) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return req, "", false
	}
	// A blank priority is left empty: new tasks default to Medium and edits keep
	// the current priority.
	if strings.TrimSpace(req.Priority) == "" {
		return req, "", true
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		h.writeError(c, err, "parsing task")
		return req, "", false
	}
	return req, priority, true
}

// listInvitations handles GET /api/sessions/:id/invitations
func (h *Handler) listInvitations(c *gin.Context) {
	invitations, err := h.cache.Invitations(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "loading invitations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// saveInvitation handles POST /api/sessions/:id/invitations
func (h *Handler) saveInvitation(c *gin.Context) {
	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	invitation, err := h.cache.SaveInvitation(c.Request.Context(), c.Param("id"), req.EventType, req.Text)
	if err != nil {
		h.writeError(c, err, "saving invitation")
		return
	}
	c.JSON(http.StatusCreated, invitation)
}
