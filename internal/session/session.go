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

// Package session provides client sessions holding the planner's keyed
// collections (themes, favorites, tasks, invitations). It supports in-memory
// and SQLite storage with configurable expiration.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// StorageType represents the type of storage backend for sessions
type StorageType string

const (
	// MemoryStorageType keeps sessions in process memory. Sessions are lost on
	// restart and the least recently used one is evicted at MaxSessions.
	MemoryStorageType StorageType = "memory"
	// SQLiteStorageType persists sessions to a SQLite database file
	SQLiteStorageType StorageType = "sqlite"
)

// Config holds configuration for session management
type Config struct {
	StorageType     StorageType   `json:"storage_type"`
	DBPath          string        `json:"db_path,omitempty"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	MaxSessions     int           `json:"max_sessions"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		StorageType:     SQLiteStorageType,
		DBPath:          "./planner.db",
		DefaultTTL:      24 * time.Hour,
		MaxSessions:     1000,
		CleanupInterval: 5 * time.Minute,
	}
}

// Session is a client session. Values maps collection keys to their
// serialized contents.
type Session struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	Values    map[string][]byte `json:"values"`
}

// Expired reports whether the session is past its expiry time
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

func (s *Session) clone() *Session {
	c := *s
	c.Values = make(map[string][]byte, len(s.Values))
	for k, v := range s.Values {
		c.Values[k] = append([]byte(nil), v...)
	}
	return &c
}

// Storage defines the interface for session storage backends
type Storage interface {
	// Create stores a new session
	Create(ctx context.Context, session *Session) error
	// Get retrieves a session with all of its values
	Get(ctx context.Context, sessionID string) (*Session, error)
	// GetValue returns one value of a session
	GetValue(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	// SetValue stores one value and moves the session expiry to expiresAt
	SetValue(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time) error
	// Delete removes a session
	Delete(ctx context.Context, sessionID string) error
	// Cleanup removes expired sessions and returns how many were removed
	Cleanup(ctx context.Context) (int, error)
	// Ping reports whether the backend is usable
	Ping(ctx context.Context) error
	// Close closes the storage backend
	Close() error
}

// Manager handles session lifecycle and storage operations. It satisfies the
// keyed store needed by the merge cache.
type Manager struct {
	storage Storage
	config  Config
	logger  *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewStorage opens the backend selected by config
func NewStorage(config Config, logger *zap.Logger) (Storage, error) {
	switch config.StorageType {
	case MemoryStorageType, "":
		return NewMemoryStorage(config.MaxSessions), nil
	case SQLiteStorageType:
		storage, err := NewSQLiteStorage(config.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.StorageType)
	}
}

// NewManager creates a new session manager with the configured storage backend
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	storage, err := NewStorage(config, logger)
	if err != nil {
		return nil, err
	}

	return NewManagerWithStorage(storage, config, logger), nil
}

// NewManagerWithStorage creates a manager over an existing backend
func NewManagerWithStorage(storage Storage, config Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultConfig().DefaultTTL
	}

	manager := &Manager{
		storage: storage,
		config:  config,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		manager.wg.Add(1)
		go manager.cleanupLoop()
	}

	return manager
}

// CreateSession creates a new empty session
func (m *Manager) CreateSession(ctx context.Context) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:        GenerateSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.config.DefaultTTL),
		Values:    make(map[string][]byte),
	}

	if err := m.storage.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.logger.Info("Created new session", zap.String("session_id", session.ID))
	return session, nil
}

// GetSession retrieves a live session by ID
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if !ValidateSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	session, err := m.storage.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return session, nil
}

// Get returns the value stored under key for a live session
func (m *Manager) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	if _, err := m.GetSession(ctx, sessionID); err != nil {
		return nil, false, err
	}
	return m.storage.GetValue(ctx, sessionID, key)
}

// Set stores value under key and extends the session expiry
func (m *Manager) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if _, err := m.GetSession(ctx, sessionID); err != nil {
		return err
	}

	if err := m.storage.SetValue(ctx, sessionID, key, value, time.Now().Add(m.config.DefaultTTL)); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	m.logger.Debug("Updated session value",
		zap.String("session_id", sessionID),
		zap.String("key", key),
		zap.Int("bytes", len(value)))

	return nil
}

// DeleteSession removes a session
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := m.storage.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	m.logger.Info("Deleted session", zap.String("session_id", sessionID))
	return nil
}

// Ping checks the storage backend
func (m *Manager) Ping(ctx context.Context) error {
	return m.storage.Ping(ctx)
}

// cleanupLoop runs periodic cleanup of expired sessions
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := m.storage.Cleanup(ctx)
			if err != nil {
				m.logger.Error("Failed to cleanup expired sessions", zap.Error(err))
			} else if removed > 0 {
				m.logger.Info("Removed expired sessions", zap.Int("count", removed))
			}
			cancel()
		case <-m.stopCh:
			return
		}
	}
}

// Close stops the cleanup loop and closes the storage backend
func (m *Manager) Close() error {
	var err error
	m.once.Do(func() {
		close(m.stopCh)
		m.wg.Wait()

		if closeErr := m.storage.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close storage: %w", closeErr)
		}
	})
	return err
}

// GetStats returns session statistics
func (m *Manager) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"storage_type": string(m.config.StorageType),
		"max_sessions": m.config.MaxSessions,
		"default_ttl":  m.config.DefaultTTL.String(),
	}

	if mem, ok := m.storage.(*MemoryStorage); ok {
		for k, v := range mem.GetStats() {
			stats[k] = v
		}
	}

	return stats
}
