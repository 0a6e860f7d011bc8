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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/model"
	internalopenai "github.com/your-org/event-planner-assistant/internal/openai"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// requestFlags are the request parameters shared by suggest and prompt
type requestFlags struct {
	eventType string
	days      int
	guests    int
	prompt    string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.eventType, "event", "e", "", "Event type (wedding, birthday, corporate, concert)")
	cmd.Flags().IntVar(&f.days, "days", 0, "Days until the event (timeline)")
	cmd.Flags().IntVar(&f.guests, "guests", 0, "Guest count (budget)")
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "Free-text prompt (invitation, rsvp)")
}

func (f *requestFlags) request(kindName string) (model.Request, error) {
	kind, err := model.ParseKind(kindName)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{
		Kind:           kind,
		EventType:      f.eventType,
		DaysUntilEvent: f.days,
		GuestCount:     f.guests,
		Prompt:         f.prompt,
	}, nil
}

func newSuggestCmd(opts *options) *cobra.Command {
	var flags requestFlags
	var offline bool

	cmd := &cobra.Command{
		Use:   "suggest <kind>",
		Short: "Produce a suggestion and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.getLogger(cfg)
			if err != nil {
				return err
			}
			fallback, err := opts.loadCatalog(cfg)
			if err != nil {
				return err
			}

			var generator suggest.Generator = internalopenai.Disabled()
			if !offline && cfg.OpenAI.Enabled {
				generator, err = opts.newGenerator(cfg, logger)
				if err != nil {
					return fmt.Errorf("generation unavailable (use --offline for catalog suggestions): %w", err)
				}
			}

			ctx, cancel := withTimeout(cmd, cfg.Server.RequestTimeout)
			defer cancel()

			result, err := suggest.NewOrchestrator(generator, fallback, logger).Suggest(ctx, req)
			if err != nil {
				return err
			}

			logger.Debug("Suggestion ready",
				zap.String("kind", string(result.Kind)),
				zap.String("provenance", string(result.Provenance)))

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip generation and answer from the catalog")

	return cmd
}

func newPromptCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "prompt <kind>",
		Short: "Print the prompt that would be sent for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			prompt, err := suggest.BuildPrompt(req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return err
		},
	}

	flags.register(cmd)
	return cmd
}
