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
	"context"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/your-org/event-planner-assistant/internal/mergecache"
	"github.com/your-org/event-planner-assistant/internal/session"
)

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [eventType]",
		Short: "Print catalog entries as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			fallback, err := opts.loadCatalog(cfg)
			if err != nil {
				return err
			}

			var out interface{}
			if len(args) == 1 {
				entry, err := fallback.Lookup(args[0])
				if err != nil {
					return err
				}
				out = entry
			} else {
				out = map[string]interface{}{"event_types": fallback.EventTypes()}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newTasksCmd(opts *options) *cobra.Command {
	var sessionID, eventType, dbPath string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks saved in a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.getLogger(cfg)
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Store.DBPath
			}

			manager, err := session.NewManager(session.Config{
				StorageType: session.SQLiteStorageType,
				DBPath:      dbPath,
				DefaultTTL:  cfg.Store.SessionTTL,
			}, logger)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			tasks, err := mergecache.New(manager, logger).Tasks(cmd.Context(), sessionID, eventType)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tasks)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID (required)")
	cmd.Flags().StringVarP(&eventType, "event", "e", "", "Event type (required)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default: store.db_path)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func withTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
