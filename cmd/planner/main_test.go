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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/event-planner-assistant/internal/config"
	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/session"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

func runCmd(t *testing.T, opts *options, args ...string) (string, error) {
	t.Helper()
	if opts.logger == nil {
		opts.logger = zaptest.NewLogger(t)
	}
	if opts.newGenerator == nil {
		opts.newGenerator = func(*config.Config, *zap.Logger) (suggest.Generator, error) {
			return nil, errors.New("no generator configured")
		}
	}

	var out bytes.Buffer
	root := newRootCmd(opts)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPromptCommand(t *testing.T) {
	out, err := runCmd(t, &options{}, "prompt", "theme", "--event", "wedding")
	require.NoError(t, err)
	assert.Contains(t, out, "9")
	assert.Contains(t, out, "wedding")

	_, err = runCmd(t, &options{}, "prompt", "timeline", "--event", "wedding")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = runCmd(t, &options{}, "prompt", "poster")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestSuggestOffline(t *testing.T) {
	out, err := runCmd(t, &options{}, "suggest", "budget", "--event", "concert", "--guests", "300", "--offline")
	require.NoError(t, err)

	var result model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.ProvenanceFallback, result.Provenance)
	assert.InDelta(t, 13500, model.TotalBudget(result.Budget), 0.001)
}

func TestSuggestUsesGenerator(t *testing.T) {
	opts := &options{
		newGenerator: func(*config.Config, *zap.Logger) (suggest.Generator, error) {
			return suggest.GeneratorFunc(func(context.Context, string) (string, error) {
				return "1. Hire a DJ\n2. Print tickets", nil
			}), nil
		},
	}

	out, err := runCmd(t, opts, "suggest", "tasks", "--event", "concert")
	require.NoError(t, err)

	var result model.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, model.ProvenanceGenerated, result.Provenance)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "Hire a DJ", result.Tasks[0].Text)
}

func TestSuggestReportsMissingGenerator(t *testing.T) {
	_, err := runCmd(t, &options{}, "suggest", "theme", "--event", "wedding")
	assert.Error(t, err)
}

func TestSuggestUnknownEventType(t *testing.T) {
	_, err := runCmd(t, &options{}, "suggest", "theme", "--event", "graduation", "--offline")
	assert.ErrorIs(t, err, suggest.ErrSuggestionUnavailable)
}

func TestCatalogCommand(t *testing.T) {
	out, err := runCmd(t, &options{}, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "wedding")
	assert.Contains(t, out, "concert")

	out, err = runCmd(t, &options{}, "catalog", "Wedding")
	require.NoError(t, err)
	assert.Contains(t, out, "Rustic Romance")
	assert.Contains(t, out, "daysBefore: 180")

	_, err = runCmd(t, &options{}, "catalog", "graduation")
	assert.Error(t, err)
}

func TestTasksCommand(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "planner.db")
	logger := zaptest.NewLogger(t)

	manager, err := session.NewManager(session.Config{
		StorageType: session.SQLiteStorageType,
		DBPath:      dbPath,
		DefaultTTL:  time.Hour,
	}, logger)
	require.NoError(t, err)

	sess, err := manager.CreateSession(ctx)
	require.NoError(t, err)
	_, err = mergecache.New(manager, logger).AddTask(ctx, sess.ID, "wedding", "Book venue", model.PriorityHigh)
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	out, err := runCmd(t, &options{}, "tasks", "--session", sess.ID, "--event", "wedding", "--db", dbPath)
	require.NoError(t, err)

	var tasks []model.TaskItem
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Book venue", tasks[0].Text)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)

	_, err = runCmd(t, &options{}, "tasks", "--session", "00000000-0000-0000-0000-000000000000", "--event", "wedding", "--db", dbPath)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
