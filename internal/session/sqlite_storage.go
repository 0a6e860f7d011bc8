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
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStorage persists sessions and their values in SQLite
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStorage opens (and if needed creates) the database at dbPath
func NewSQLiteStorage(dbPath string, logger *zap.Logger) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db, logger: logger}

	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite session storage ready", zap.String("db_path", dbPath))
	return storage, nil
}

// initSchema creates the session tables if they don't exist
func (s *SQLiteStorage) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS session_values (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, key)
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// Create stores a new session row and any initial values
func (s *SQLiteStorage) Create(ctx context.Context, session *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.CreatedAt.UnixNano(), session.UpdatedAt.UnixNano(), session.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for key, value := range session.Values {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_values (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)`,
			session.ID, key, value, session.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert session value: %w", err)
		}
	}

	return tx.Commit()
}

// Get retrieves a session with all of its values
func (s *SQLiteStorage) Get(ctx context.Context, sessionID string) (*Session, error) {
	var created, updated, expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at, expires_at FROM sessions WHERE id = ?`, sessionID).
		Scan(&created, &updated, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session := &Session{
		ID:        sessionID,
		CreatedAt: time.Unix(0, created),
		UpdatedAt: time.Unix(0, updated),
		ExpiresAt: time.Unix(0, expires),
		Values:    make(map[string][]byte),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_values WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session value: %w", err)
		}
		session.Values[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return session, nil
}

// GetValue returns one session value
func (s *SQLiteStorage) GetValue(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = ? AND key = ?`, sessionID, key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query session value: %w", err)
	}
	return value, true, nil
}

// SetValue upserts one session value and refreshes the session expiry
func (s *SQLiteStorage) SetValue(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time) error {
	now := time.Now().UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ?, expires_at = ? WHERE id = ?`,
		now, expiresAt.UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session_values (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to store session value: %w", err)
	}

	return tx.Commit()
}

// Delete removes a session and its values
func (s *SQLiteStorage) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session values: %w", err)
	}

	return tx.Commit()
}

// Cleanup removes expired sessions and their values
func (s *SQLiteStorage) Cleanup(ctx context.Context) (int, error) {
	now := time.Now().UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id IN (SELECT id FROM sessions WHERE expires_at <= ?)`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired values: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	removed, _ := res.RowsAffected()
	return int(removed), nil
}

// Ping checks the database connection
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
