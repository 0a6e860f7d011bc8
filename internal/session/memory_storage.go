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

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStorage provides in-memory session storage with LRU eviction
type MemoryStorage struct {
	sessions    map[string]*Session
	maxSessions int
	mutex       sync.Mutex
	accessTime  map[string]time.Time // Track access time for LRU
}

// NewMemoryStorage creates a new in-memory session storage
func NewMemoryStorage(maxSessions int) *MemoryStorage {
	return &MemoryStorage{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		accessTime:  make(map[string]time.Time),
	}
}

// Create stores a new session, evicting the least recently used one when full
func (m *MemoryStorage) Create(_ context.Context, session *Session) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return fmt.Errorf("session already exists: %s", session.ID)
	}

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.evictOldestSession()
	}

	m.sessions[session.ID] = session.clone()
	m.accessTime[session.ID] = time.Now()

	return nil
}

// Get retrieves a copy of a session by ID
func (m *MemoryStorage) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	m.accessTime[sessionID] = time.Now()
	return session.clone(), nil
}

// GetValue returns a copy of one session value
func (m *MemoryStorage) GetValue(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	m.accessTime[sessionID] = time.Now()
	value, ok := session.Values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// SetValue stores one session value
func (m *MemoryStorage) SetValue(_ context.Context, sessionID, key string, value []byte, expiresAt time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	now := time.Now()
	session.Values[key] = append([]byte(nil), value...)
	session.UpdatedAt = now
	session.ExpiresAt = expiresAt
	m.accessTime[sessionID] = now

	return nil
}

// Delete removes a session
func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	delete(m.sessions, sessionID)
	delete(m.accessTime, sessionID)

	return nil
}

// Cleanup removes expired sessions
func (m *MemoryStorage) Cleanup(_ context.Context) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	removed := 0
	for sessionID, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, sessionID)
			delete(m.accessTime, sessionID)
			removed++
		}
	}

	return removed, nil
}

// Ping always succeeds for memory storage
func (m *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close clears all data
func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sessions = make(map[string]*Session)
	m.accessTime = make(map[string]time.Time)

	return nil
}

// evictOldestSession removes the least recently used session
func (m *MemoryStorage) evictOldestSession() {
	var oldestSessionID string
	var oldestTime time.Time

	for sessionID, accessTime := range m.accessTime {
		if oldestSessionID == "" || accessTime.Before(oldestTime) {
			oldestSessionID = sessionID
			oldestTime = accessTime
		}
	}

	if oldestSessionID != "" {
		delete(m.sessions, oldestSessionID)
		delete(m.accessTime, oldestSessionID)
	}
}

// GetStats returns storage statistics
func (m *MemoryStorage) GetStats() map[string]interface{} {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return map[string]interface{}{
		"total_sessions":   len(m.sessions),
		"max_sessions":     m.maxSessions,
		"memory_usage_est": m.estimateMemoryUsage(),
	}
}

// estimateMemoryUsage provides a rough estimate of memory usage
func (m *MemoryStorage) estimateMemoryUsage() string {
	totalContent := 0
	for _, session := range m.sessions {
		for key, value := range session.Values {
			totalContent += len(key) + len(value)
		}
	}

	estimatedBytes := len(m.sessions)*150 + totalContent

	switch {
	case estimatedBytes < 1024:
		return fmt.Sprintf("%d bytes", estimatedBytes)
	case estimatedBytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(estimatedBytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(estimatedBytes)/(1024*1024))
	}
}
