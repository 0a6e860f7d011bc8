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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewManager(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "memory storage",
			config: Config{StorageType: MemoryStorageType, DefaultTTL: time.Hour, MaxSessions: 10},
		},
		{
			name:   "sqlite storage",
			config: Config{StorageType: SQLiteStorageType, DBPath: filepath.Join(t.TempDir(), "planner.db"), DefaultTTL: time.Hour},
		},
		{
			name:        "sqlite without path",
			config:      Config{StorageType: SQLiteStorageType},
			expectError: true,
		},
		{
			name:        "invalid storage type",
			config:      Config{StorageType: "redis"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager(tt.config, logger)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, manager)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, manager.Ping(context.Background()))
			assert.NoError(t, manager.Close())
			assert.NoError(t, manager.Close())
		})
	}
}

func TestManagerValues(t *testing.T) {
	for _, storageType := range []StorageType{MemoryStorageType, SQLiteStorageType} {
		t.Run(string(storageType), func(t *testing.T) {
			manager, err := NewManager(Config{
				StorageType: storageType,
				DBPath:      filepath.Join(t.TempDir(), "planner.db"),
				DefaultTTL:  time.Hour,
				MaxSessions: 10,
			}, zaptest.NewLogger(t))
			require.NoError(t, err)
			defer func() { _ = manager.Close() }()

			ctx := context.Background()
			session, err := manager.CreateSession(ctx)
			require.NoError(t, err)
			assert.True(t, ValidateSessionID(session.ID))

			_, ok, err := manager.Get(ctx, session.ID, "themes")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, manager.Set(ctx, session.ID, "themes", []byte(`["Beach Bliss"]`)))

			value, ok, err := manager.Get(ctx, session.ID, "themes")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `["Beach Bliss"]`, string(value))

			require.NoError(t, manager.DeleteSession(ctx, session.ID))
			_, _, err = manager.Get(ctx, session.ID, "themes")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestManagerRejectsUnknownAndExpiredSessions(t *testing.T) {
	storage := NewMemoryStorage(10)
	manager := NewManagerWithStorage(storage, Config{DefaultTTL: time.Hour}, zaptest.NewLogger(t))
	defer func() { _ = manager.Close() }()

	ctx := context.Background()

	_, _, err := manager.Get(ctx, "not-a-uuid", "themes")
	assert.ErrorIs(t, err, ErrNotFound)

	err = manager.Set(ctx, GenerateSessionID(), "themes", []byte("[]"))
	assert.ErrorIs(t, err, ErrNotFound)

	expired := newTestSession(GenerateSessionID(), -time.Second)
	require.NoError(t, storage.Create(ctx, expired))
	_, err = manager.GetSession(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSetExtendsExpiry(t *testing.T) {
	manager := NewManagerWithStorage(NewMemoryStorage(10), Config{DefaultTTL: time.Hour}, zaptest.NewLogger(t))
	defer func() { _ = manager.Close() }()

	ctx := context.Background()
	session, err := manager.CreateSession(ctx)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, manager.Set(ctx, session.ID, "selectedTheme", []byte(`"Jazz Lounge"`)))

	updated, err := manager.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, updated.ExpiresAt.After(session.ExpiresAt))
}

func TestManagerCleanupLoop(t *testing.T) {
	storage := NewMemoryStorage(10)
	require.NoError(t, storage.Create(context.Background(), newTestSession("stale", -time.Minute)))

	manager := NewManagerWithStorage(storage, Config{DefaultTTL: time.Hour, CleanupInterval: 10 * time.Millisecond}, zaptest.NewLogger(t))
	defer func() { _ = manager.Close() }()

	assert.Eventually(t, func() bool {
		_, err := storage.Get(context.Background(), "stale")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestValidateSessionID(t *testing.T) {
	assert.True(t, ValidateSessionID(GenerateSessionID()))
	assert.False(t, ValidateSessionID(""))
	assert.False(t, ValidateSessionID("session_abc"))
	assert.NotEqual(t, GenerateSessionID(), GenerateSessionID())
}
