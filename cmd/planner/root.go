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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/config"
	internalopenai "github.com/your-org/event-planner-assistant/internal/openai"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// options carries the dependencies shared by every subcommand
type options struct {
	configPath   string
	logger       *zap.Logger
	newGenerator func(cfg *config.Config, logger *zap.Logger) (suggest.Generator, error)
}

func defaultOptions() *options {
	return &options{
		newGenerator: func(cfg *config.Config, logger *zap.Logger) (suggest.Generator, error) {
			return internalopenai.NewClient(cfg.GenerationConfig(), logger)
		},
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Event planning suggestions from the command line",
		Long:          "Ask for themes, timelines, tasks, budgets, invitations and RSVP predictions. Falls back to the built-in catalog when generation is unavailable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (default: ./configs/config.yaml or ./config.yaml)")

	root.AddCommand(
		newSuggestCmd(opts),
		newPromptCmd(),
		newCatalogCmd(opts),
		newTasksCmd(opts),
	)

	return root
}

// loadConfig reads configuration without requiring an API key, so offline
// commands work on a bare checkout
func (o *options) loadConfig() (*config.Config, error) {
	return config.LoadWithOptions(config.LoadOptions{ConfigPath: o.configPath})
}

// getLogger builds a stderr logger at the configured level unless one was injected
func (o *options) getLogger(cfg *config.Config) (*zap.Logger, error) {
	if o.logger != nil {
		return o.logger, nil
	}
	logger, _, err := config.NewLogger(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: "text",
		Output: "stderr",
	}, "planner")
	if err != nil {
		return nil, err
	}
	o.logger = logger
	return logger, nil
}

func (o *options) loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
