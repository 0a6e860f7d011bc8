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

// Package mergecache accumulates suggestion results into session scoped
// collections (themes, favorites, tasks per event type, invitations, guests) kept in
// an injected key/value store.
package mergecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/catalog"
)

// Collection keys
const (
	KeyThemes        = "themes"
	KeyFavorites     = "favoriteThemes"
	KeySelectedTheme = "selectedTheme"
	KeyInvitations   = "invitations"
	KeyGuests        = "guests"
)

var (
	// ErrDuplicate is returned when adding an item whose key already exists
	ErrDuplicate = errors.New("item already exists")
	// ErrTaskNotFound is returned for unknown task IDs
	ErrTaskNotFound = errors.New("task not found")
	// ErrThemeNotFound is returned when selecting a theme that is not in the session
	ErrThemeNotFound = errors.New("theme not found")
	// ErrGuestNotFound is returned for unknown guest IDs
	ErrGuestNotFound = errors.New("guest not found")
	// ErrEmptyText is returned when an item's required text is blank
	ErrEmptyText = errors.New("text must not be empty")
)

// Store is the session scoped key/value store holding serialized collections
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
}

// TasksKey returns the collection key for the tasks of an event type
func TasksKey(eventType string) string {
	return "tasks_" + catalog.Normalize(eventType)
}

// Cache reads, merges and writes session collections. Read-modify-write
// cycles of one session are serialized.
type Cache struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the cache once nobody holds or waits on it
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a cache over store
func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sessionLock),
	}
}

// lock serializes updates for one session and returns the unlock function
func (c *Cache) lock(sessionID string) func() {
	c.mu.Lock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		c.locks[sessionID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, sessionID)
		}
		c.mu.Unlock()
	}
}

// load decodes the value under key into out. A missing key leaves out untouched.
func (c *Cache) load(ctx context.Context, sessionID, key string, out interface{}) error {
	data, ok, err := c.store.Get(ctx, sessionID, key)
	if err != nil {
		return err
	}
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) save(ctx context.Context, sessionID, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, sessionID, key, data); err != nil {
		return err
	}

	c.logger.Debug("Saved session collection",
		zap.String("session_id", sessionID),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

func newID() string {
	return ulid.Make().String()
}
