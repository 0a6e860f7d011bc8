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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/session"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	calls  *atomic.Int32
}

func newTestServer(t *testing.T, generate suggest.GeneratorFunc, timeout time.Duration) *testServer {
	t.Helper()
	return newTestServerWithStore(t, generate, timeout, session.Config{
		StorageType: session.MemoryStorageType,
		DefaultTTL:  time.Hour,
		MaxSessions: 10,
	})
}

func newTestServerWithStore(t *testing.T, generate suggest.GeneratorFunc, timeout time.Duration, store session.Config) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	var calls atomic.Int32
	generator := suggest.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return generate(ctx, prompt)
	})

	orchestrator := suggest.NewOrchestrator(generator, catalog.Default(), logger,
		suggest.WithPopularity(func() float64 { return 0.3 }))

	manager, err := session.NewManager(store, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	handler := NewHandler(orchestrator, manager, mergecache.New(manager, logger), timeout, logger)
	router := NewRouter(handler, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) })

	return &testServer{router: router, calls: &calls}
}

func failing(context.Context, string) (string, error) {
	return "", errors.New("upstream unavailable")
}

func replying(text string) suggest.GeneratorFunc {
	return func(context.Context, string) (string, error) { return text, nil }
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *testServer) newSession(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

type suggestionBody struct {
	Kind       string             `json:"kind"`
	Provenance string             `json:"provenance"`
	Themes     []model.Theme      `json:"themes"`
	Timeline   []model.Milestone  `json:"timeline"`
	Tasks      []model.TaskItem   `json:"tasks"`
	Budget     []model.BudgetLine `json:"budget"`
	Text       string             `json:"text"`
	Total      *float64           `json:"total"`
	Merged     json.RawMessage    `json:"merged"`
	RequestID  string             `json:"request_id"`
}

func TestHealthAndRequestID(t *testing.T) {
	server := newTestServer(t, failing, time.Second)

	w := server.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestSuggestFallbackEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		body  map[string]interface{}
		check func(t *testing.T, resp suggestionBody)
	}{
		{
			name: "theme",
			path: "/api/ai/theme",
			body: map[string]interface{}{"eventType": "Wedding"},
			check: func(t *testing.T, resp suggestionBody) {
				require.Len(t, resp.Themes, 4)
				assert.Equal(t, "Rustic Romance", resp.Themes[0].Name)
			},
		},
		{
			name: "timeline",
			path: "/api/ai/timeline",
			body: map[string]interface{}{"eventType": "wedding", "daysUntilEvent": 200},
			check: func(t *testing.T, resp suggestionBody) {
				require.Len(t, resp.Timeline, 4)
				assert.Equal(t, 180, resp.Timeline[0].DaysBefore)
			},
		},
		{
			name: "tasks",
			path: "/api/ai/tasks",
			body: map[string]interface{}{"eventType": "corporate"},
			check: func(t *testing.T, resp suggestionBody) {
				require.Len(t, resp.Tasks, 3)
				assert.Equal(t, "Book speakers", resp.Tasks[0].Text)
			},
		},
		{
			name: "budget with total",
			path: "/api/ai/budget",
			body: map[string]interface{}{"eventType": "wedding", "guests": 80},
			check: func(t *testing.T, resp suggestionBody) {
				require.Len(t, resp.Budget, 5)
				require.NotNil(t, resp.Total)
				assert.InDelta(t, 12500, *resp.Total, 0.001)
			},
		},
		{
			name: "invitation from details",
			path: "/api/ai/invitation",
			body: map[string]interface{}{"details": map[string]string{
				"template": "casual", "eventType": "birthday", "host": "Sam", "date": "May 3", "location": "the park",
			}},
			check: func(t *testing.T, resp suggestionBody) {
				assert.Contains(t, resp.Text, "birthday party")
			},
		},
		{
			name: "rsvp without event type",
			path: "/api/ai/rsvp",
			body: map[string]interface{}{"prompt": "Will Alex attend?"},
			check: func(t *testing.T, resp suggestionBody) {
				assert.Equal(t, catalog.UnknownLikelihood, resp.Text)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, failing, time.Second)

			w := server.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp suggestionBody
			decode(t, w, &resp)
			assert.Equal(t, string(model.ProvenanceFallback), resp.Provenance)
			assert.NotEmpty(t, resp.RequestID)
			tt.check(t, resp)
		})
	}
}

func TestSuggestGeneratedTheme(t *testing.T) {
	server := newTestServer(t, replying("1. Garden Party\n2. Starry Night"), time.Second)

	w := server.do(t, http.MethodPost, "/api/ai/theme", map[string]string{"eventType": "wedding"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp suggestionBody
	decode(t, w, &resp)
	assert.Equal(t, string(model.ProvenanceGenerated), resp.Provenance)
	require.Len(t, resp.Themes, 2)
	assert.Equal(t, "Garden Party", resp.Themes[0].Name)
	assert.InDelta(t, 0.3, resp.Themes[0].Popularity, 0.0001)
	assert.Nil(t, resp.Total)
}

func TestSuggestErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{
			name:   "malformed body",
			path:   "/api/ai/theme",
			body:   `{"eventType":`,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "missing event type",
			path:   "/api/ai/theme",
			body:   `{}`,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "timeline without days",
			path:   "/api/ai/timeline",
			body:   `{"eventType":"wedding"}`,
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "unknown event type",
			path:   "/api/ai/tasks",
			body:   `{"eventType":"graduation"}`,
			status: http.StatusNotFound,
			code:   "SUGGESTION_UNAVAILABLE",
		},
		{
			name:   "unknown session",
			path:   "/api/ai/theme",
			body:   `{"eventType":"wedding","session_id":"00000000-0000-0000-0000-000000000000"}`,
			status: http.StatusNotFound,
			code:   "SESSION_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, failing, time.Second)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			server.router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			var resp struct {
				Error     string `json:"error"`
				Code      string `json:"code"`
				RequestID string `json:"request_id"`
			}
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
		})
	}
}

func TestSuggestUnknownEventTypeSkipsGeneration(t *testing.T) {
	server := newTestServer(t, replying("Anything"), time.Second)

	w := server.do(t, http.MethodPost, "/api/ai/theme", map[string]string{"eventType": "graduation"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, server.calls.Load())
}

func TestSuggestTimeoutFallsBack(t *testing.T) {
	blocking := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	server := newTestServer(t, blocking, 50*time.Millisecond)

	w := server.do(t, http.MethodPost, "/api/ai/timeline", map[string]interface{}{"eventType": "birthday", "daysUntilEvent": 30})
	require.Equal(t, http.StatusOK, w.Code)

	var resp suggestionBody
	decode(t, w, &resp)
	assert.Equal(t, string(model.ProvenanceFallback), resp.Provenance)
	assert.NotEmpty(t, resp.Timeline)
}

func TestSuggestTimeoutStillMergesIntoSession(t *testing.T) {
	blocking := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	server := newTestServerWithStore(t, blocking, 50*time.Millisecond, session.Config{
		StorageType: session.SQLiteStorageType,
		DBPath:      filepath.Join(t.TempDir(), "planner.db"),
		DefaultTTL:  time.Hour,
	})
	sessionID := server.newSession(t)

	for _, path := range []string{"/api/ai/theme", "/api/ai/tasks"} {
		w := server.do(t, http.MethodPost, path, map[string]string{"eventType": "wedding", "session_id": sessionID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp suggestionBody
		decode(t, w, &resp)
		assert.Equal(t, string(model.ProvenanceFallback), resp.Provenance, path)
		assert.NotEqual(t, "null", string(resp.Merged), path)
		assert.NotEmpty(t, resp.Merged, path)
	}

	w := server.do(t, http.MethodGet, "/api/sessions/"+sessionID+"/themes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Themes []model.Theme `json:"themes"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Themes, 4)
}

func TestSuggestMergesIntoSession(t *testing.T) {
	server := newTestServer(t, replying("Rustic Romance\nStarry Night"), time.Second)
	sessionID := server.newSession(t)

	w := server.do(t, http.MethodPost, "/api/ai/theme", map[string]string{"eventType": "wedding", "session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)
	w = server.do(t, http.MethodPost, "/api/ai/theme", map[string]string{"eventType": "wedding", "session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)

	var resp suggestionBody
	decode(t, w, &resp)
	var merged []model.Theme
	require.NoError(t, json.Unmarshal(resp.Merged, &merged))
	require.Len(t, merged, 2)

	w = server.do(t, http.MethodGet, "/api/sessions/"+sessionID+"/themes?sort=alphabetical&q=r", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Themes []model.Theme `json:"themes"`
	}
	decode(t, w, &list)
	require.Len(t, list.Themes, 2)
	assert.Equal(t, "Rustic Romance", list.Themes[0].Name)
}

func TestThemeCollectionEndpoints(t *testing.T) {
	server := newTestServer(t, failing, time.Second)
	sessionID := server.newSession(t)
	base := "/api/sessions/" + sessionID

	w := server.do(t, http.MethodPost, base+"/themes", map[string]string{"name": "Neon Nights"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = server.do(t, http.MethodPost, base+"/themes", map[string]string{"name": "neon nights"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = server.do(t, http.MethodPost, base+"/themes/favorite", map[string]string{"name": "Neon Nights"})
	require.Equal(t, http.StatusOK, w.Code)
	var fav struct {
		Favorite bool `json:"favorite"`
	}
	decode(t, w, &fav)
	assert.True(t, fav.Favorite)

	w = server.do(t, http.MethodPut, base+"/selected-theme", map[string]string{"name": "Neon Nights"})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodPut, base+"/selected-theme", map[string]string{"name": "Missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = server.do(t, http.MethodGet, base+"/themes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Themes    []model.Theme `json:"themes"`
		Favorites []string      `json:"favorites"`
		Selected  string        `json:"selected"`
	}
	decode(t, w, &list)
	require.Len(t, list.Themes, 1)
	assert.InDelta(t, 0.5, list.Themes[0].Popularity, 0.0001)
	assert.Equal(t, []string{"Neon Nights"}, list.Favorites)
	assert.Equal(t, "Neon Nights", list.Selected)

	w = server.do(t, http.MethodDelete, base+"/selected-theme", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	server := newTestServer(t, failing, time.Second)
	sessionID := server.newSession(t)
	base := "/api/sessions/" + sessionID + "/tasks/wedding"

	w := server.do(t, http.MethodPost, "/api/ai/tasks", map[string]string{"eventType": "wedding", "session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodPost, base, map[string]string{"text": "Pick flowers", "priority": "high"})
	require.Equal(t, http.StatusCreated, w.Code)
	var added model.TaskItem
	decode(t, w, &added)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, model.PriorityHigh, added.Priority)

	w = server.do(t, http.MethodPost, base, map[string]string{"text": "Pick flowers", "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPost, base+"/"+added.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled model.TaskItem
	decode(t, w, &toggled)
	assert.True(t, toggled.Completed)

	w = server.do(t, http.MethodPatch, base+"/"+added.ID, map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPatch, base+"/"+added.ID, map[string]string{"text": "Pick peonies", "priority": "low"})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []model.TaskItem `json:"tasks"`
	}
	decode(t, w, &list)
	require.Len(t, list.Tasks, 4)
	assert.Equal(t, "Book venue", list.Tasks[0].Text)
	assert.Equal(t, "Pick peonies", list.Tasks[3].Text)
	assert.True(t, list.Tasks[3].Completed)

	w = server.do(t, http.MethodDelete, base+"/"+added.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = server.do(t, http.MethodDelete, base+"/"+added.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvitationEndpoints(t *testing.T) {
	server := newTestServer(t, replying("Join us under the stars."), time.Second)
	sessionID := server.newSession(t)
	base := "/api/sessions/" + sessionID + "/invitations"

	w := server.do(t, http.MethodPost, base, map[string]string{"eventType": "wedding", "text": "Join us under the stars."})
	require.Equal(t, http.StatusCreated, w.Code)

	w = server.do(t, http.MethodPost, base, map[string]string{"eventType": "wedding", "text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Invitations []model.Invitation `json:"invitations"`
	}
	decode(t, w, &list)
	require.Len(t, list.Invitations, 1)
	assert.Equal(t, "wedding", list.Invitations[0].EventType)
}

func TestTaskPatchKeepsPriorityAndUniqueness(t *testing.T) {
	server := newTestServer(t, failing, time.Second)
	sessionID := server.newSession(t)
	base := "/api/sessions/" + sessionID + "/tasks/birthday"

	w := server.do(t, http.MethodPost, base, map[string]string{"text": "Order cake", "priority": "high"})
	require.Equal(t, http.StatusCreated, w.Code)
	var cake model.TaskItem
	decode(t, w, &cake)

	w = server.do(t, http.MethodPost, base, map[string]string{"text": "Send invites"})
	require.Equal(t, http.StatusCreated, w.Code)
	var invites model.TaskItem
	decode(t, w, &invites)
	assert.Equal(t, model.PriorityMedium, invites.Priority)

	w = server.do(t, http.MethodPatch, base+"/"+cake.ID, map[string]string{"text": "Order chocolate cake"})
	require.Equal(t, http.StatusOK, w.Code)
	var renamed model.TaskItem
	decode(t, w, &renamed)
	assert.Equal(t, "Order chocolate cake", renamed.Text)
	assert.Equal(t, model.PriorityHigh, renamed.Priority)

	w = server.do(t, http.MethodPatch, base+"/"+invites.ID, map[string]string{"text": "Order chocolate cake"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGuestEndpoints(t *testing.T) {
	server := newTestServer(t, replying("High"), time.Second)
	sessionID := server.newSession(t)
	base := "/api/sessions/" + sessionID + "/guests"

	w := server.do(t, http.MethodPost, base, map[string]string{"name": "Ada", "email": "ada@example.com", "eventType": "wedding"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ada model.Guest
	decode(t, w, &ada)
	assert.Equal(t, model.RSVPPending, ada.RSVP)
	assert.Equal(t, "High", ada.Likelihood)

	w = server.do(t, http.MethodPost, base, map[string]string{"name": "Ada", "email": "ADA@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = server.do(t, http.MethodPost, base, map[string]string{"name": "Ben", "email": "ben"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPost, base, map[string]string{"name": "Ben", "email": "ben@example.com", "eventType": "graduation"})
	require.Equal(t, http.StatusCreated, w.Code)
	var ben model.Guest
	decode(t, w, &ben)
	assert.Equal(t, catalog.UnknownLikelihood, ben.Likelihood)

	w = server.do(t, http.MethodPut, base+"/"+ben.ID+"/rsvp", map[string]string{"rsvp": "no"})
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, http.MethodPut, base+"/"+ben.ID+"/rsvp", map[string]string{"rsvp": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodPost, base+"/"+ben.ID+"/predict", map[string]string{"eventType": "birthday"})
	require.Equal(t, http.StatusOK, w.Code)
	var predicted model.Guest
	decode(t, w, &predicted)
	assert.Equal(t, "High", predicted.Likelihood)
	assert.Equal(t, model.RSVPDeclined, predicted.RSVP)

	w = server.do(t, http.MethodPatch, base, map[string]string{"rsvp": "accepted"})
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Guests  []model.Guest      `json:"guests"`
		Summary model.GuestSummary `json:"summary"`
	}
	decode(t, w, &list)
	assert.Equal(t, model.GuestSummary{Total: 2, Accepted: 1, Declined: 1}, list.Summary)

	w = server.do(t, http.MethodDelete, base+"/"+ada.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = server.do(t, http.MethodPost, base+"/"+ada.ID+"/predict", map[string]string{"eventType": "wedding"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = server.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Guests, 1)
	assert.Equal(t, "Ben", list.Guests[0].Name)
}
