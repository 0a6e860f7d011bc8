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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// storageBackends returns a fresh instance of every backend
func storageBackends(t *testing.T) map[string]Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "sessions.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to open sqlite storage: %v", err)
	}

	backends := map[string]Storage{
		"memory": NewMemoryStorage(10),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, backend := range backends {
			_ = backend.Close()
		}
	})
	return backends
}

func newTestSession(id string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		Values:    make(map[string][]byte),
	}
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, storage := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			session := newTestSession("3f1c9c2e-5a7b-4d0e-9f3a-1b2c3d4e5f60", 30*time.Minute)
			if err := storage.Create(ctx, session); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}

			if _, ok, err := storage.GetValue(ctx, session.ID, "themes"); err != nil || ok {
				t.Fatalf("expected no value, got ok=%v err=%v", ok, err)
			}

			expiry := time.Now().Add(time.Hour)
			if err := storage.SetValue(ctx, session.ID, "themes", []byte(`[{"name":"Beach Bliss"}]`), expiry); err != nil {
				t.Fatalf("failed to set value: %v", err)
			}
			if err := storage.SetValue(ctx, session.ID, "themes", []byte(`[{"name":"Retro Disco"}]`), expiry); err != nil {
				t.Fatalf("failed to overwrite value: %v", err)
			}

			value, ok, err := storage.GetValue(ctx, session.ID, "themes")
			if err != nil || !ok {
				t.Fatalf("expected value, got ok=%v err=%v", ok, err)
			}
			if string(value) != `[{"name":"Retro Disco"}]` {
				t.Errorf("unexpected value %s", value)
			}

			retrieved, err := storage.Get(ctx, session.ID)
			if err != nil {
				t.Fatalf("failed to get session: %v", err)
			}
			if len(retrieved.Values) != 1 {
				t.Errorf("expected 1 value, got %d", len(retrieved.Values))
			}
			if retrieved.ExpiresAt.Sub(expiry).Abs() > time.Millisecond {
				t.Errorf("expected expiry %v, got %v", expiry, retrieved.ExpiresAt)
			}

			if err := storage.Delete(ctx, session.ID); err != nil {
				t.Fatalf("failed to delete session: %v", err)
			}
			if _, err := storage.Get(ctx, session.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if _, _, err := storage.GetValue(ctx, session.ID, "themes"); name == "memory" && !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for value of deleted session, got %v", err)
			}
		})
	}
}

func TestStorageUnknownSession(t *testing.T) {
	ctx := context.Background()

	for name, storage := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := storage.SetValue(ctx, "missing", "tasks_wedding", []byte("[]"), time.Now()); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if err := storage.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStorageCleanup(t *testing.T) {
	ctx := context.Background()

	for name, storage := range storageBackends(t) {
		t.Run(name, func(t *testing.T) {
			expired := newTestSession("expired", -time.Minute)
			active := newTestSession("active", time.Hour)
			expired.Values["themes"] = []byte("[]")

			for _, s := range []*Session{expired, active} {
				if err := storage.Create(ctx, s); err != nil {
					t.Fatalf("failed to create session: %v", err)
				}
			}

			removed, err := storage.Cleanup(ctx)
			if err != nil {
				t.Fatalf("cleanup failed: %v", err)
			}
			if removed != 1 {
				t.Errorf("expected 1 removed session, got %d", removed)
			}

			if _, err := storage.Get(ctx, "expired"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expired session should be removed, got %v", err)
			}
			if _, err := storage.Get(ctx, "active"); err != nil {
				t.Errorf("active session should remain: %v", err)
			}
		})
	}
}

func TestMemoryStorageLRUEviction(t *testing.T) {
	storage := NewMemoryStorage(2)
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		if err := storage.Create(ctx, newTestSession(id, time.Hour)); err != nil {
			t.Fatalf("failed to create session %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Touch the first session so the second becomes least recently used
	if _, err := storage.Get(ctx, "first"); err != nil {
		t.Fatalf("failed to get session: %v", err)
	}

	if err := storage.Create(ctx, newTestSession("third", time.Hour)); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := storage.Get(ctx, "second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second session should have been evicted")
	}
	for _, id := range []string{"first", "third"} {
		if _, err := storage.Get(ctx, id); err != nil {
			t.Errorf("session %s should remain: %v", id, err)
		}
	}

	stats := storage.GetStats()
	if stats["total_sessions"] != 2 {
		t.Errorf("expected 2 sessions in stats, got %v", stats["total_sessions"])
	}
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	storage := NewMemoryStorage(10)
	ctx := context.Background()

	if err := storage.Create(ctx, newTestSession("copy", time.Hour)); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := storage.SetValue(ctx, "copy", "themes", []byte("abc"), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	value, _, _ := storage.GetValue(ctx, "copy", "themes")
	value[0] = 'x'

	again, _, _ := storage.GetValue(ctx, "copy", "themes")
	if string(again) != "abc" {
		t.Errorf("stored value was modified through returned slice: %s", again)
	}
}
