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

// Package suggest implements the suggestion engine: prompt construction,
// response parsing, validation and deterministic fallback to the static
// catalog.
package suggest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/catalog"
	"github.com/your-org/event-planner-assistant/internal/model"
)

// Generator sends a prompt to a text generation backend. Implementations make
// a single attempt and report every failure as an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Catalog is the fallback lookup used by the orchestrator
type Catalog interface {
	Lookup(eventType string) (catalog.Entry, error)
	Has(eventType string) bool
	Generic() catalog.Entry
}

// PopularityFunc assigns the presentation-only popularity score of a theme
type PopularityFunc func() float64

// State is a step of a single orchestration run
type State int

const (
	StateStart State = iota
	StatePrompting
	StateGenerating
	StateParsing
	StateValidating
	StateFallingBack
	StateSucceeded
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePrompting:
		return "prompting"
	case StateGenerating:
		return "generating"
	case StateParsing:
		return "parsing"
	case StateValidating:
		return "validating"
	case StateFallingBack:
		return "falling_back"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPopularity overrides how theme popularity is assigned
func WithPopularity(fn PopularityFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.popularity = fn
		}
	}
}

// WithObserver registers a callback invoked on every state transition
func WithObserver(fn func(model.Request, State)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// Orchestrator composes prompt building, generation, parsing, validation and
// fallback. It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	generator  Generator
	catalog    Catalog
	popularity PopularityFunc
	observer   func(model.Request, State)
	logger     *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given generator and catalog
func NewOrchestrator(generator Generator, fallback Catalog, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		generator:  generator,
		catalog:    fallback,
		popularity: rand.Float64,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Suggest runs one request through the engine. On success the result is
// flagged generated or fallback. The returned error wraps either
// model.ErrInvalidRequest or ErrSuggestionUnavailable.
func (o *Orchestrator) Suggest(ctx context.Context, req model.Request) (*model.Result, error) {
	start := time.Now()
	o.transition(req, StateStart)

	o.transition(req, StatePrompting)
	prompt, err := BuildPrompt(req)
	if err != nil {
		o.transition(req, StateFailed)
		return nil, err
	}

	eventType := strings.TrimSpace(req.EventType)
	if eventType != "" && !o.catalog.Has(eventType) {
		o.transition(req, StateFailed)
		o.logger.Info("Suggestion unavailable for event type",
			zap.String("kind", string(req.Kind)),
			zap.String("event_type", eventType))
		return nil, fmt.Errorf("%w: %q", ErrSuggestionUnavailable, eventType)
	}

	o.transition(req, StateGenerating)
	text, err := o.generate(ctx, prompt)
	if err != nil {
		return o.fallback(req, err, start)
	}

	o.transition(req, StateParsing)
	parsed, err := parse(req.Kind, text)
	if err != nil {
		return o.fallback(req, err, start)
	}

	o.transition(req, StateValidating)
	valid, err := validate(req.Kind, parsed)
	if err != nil {
		return o.fallback(req, err, start)
	}

	result := o.buildResult(req.Kind, valid)
	result.Provenance = model.ProvenanceGenerated
	o.transition(req, StateSucceeded)

	o.logger.Info("Suggestion generated",
		zap.String("kind", string(req.Kind)),
		zap.String("event_type", eventType),
		zap.Int("items", result.Len()),
		zap.Duration("processing_time", time.Since(start)))

	return result, nil
}

// generate calls the generator and treats a cancelled context like any other
// generation failure
func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return o.generator.Generate(ctx, prompt)
}

// fallback replaces a failed generation with catalog content
func (o *Orchestrator) fallback(req model.Request, reason error, start time.Time) (*model.Result, error) {
	o.transition(req, StateFallingBack)

	eventType := strings.TrimSpace(req.EventType)
	o.logger.Warn("Falling back to catalog suggestions",
		zap.String("kind", string(req.Kind)),
		zap.String("event_type", eventType),
		zap.String("reason", reason.Error()))

	var entry catalog.Entry
	if eventType == "" && req.Kind.IsFreeText() {
		entry = o.catalog.Generic()
	} else {
		var err error
		entry, err = o.catalog.Lookup(eventType)
		if err != nil {
			o.transition(req, StateFailed)
			return nil, fmt.Errorf("%w: %q", ErrSuggestionUnavailable, eventType)
		}
	}

	result := o.buildResult(req.Kind, fromEntry(req.Kind, entry))
	result.Provenance = model.ProvenanceFallback
	o.transition(req, StateSucceeded)

	o.logger.Info("Suggestion served from catalog",
		zap.String("kind", string(req.Kind)),
		zap.String("event_type", eventType),
		zap.Int("items", result.Len()),
		zap.Duration("processing_time", time.Since(start)))

	return result, nil
}

// fromEntry selects the catalog data for a kind
func fromEntry(kind model.Kind, entry catalog.Entry) validated {
	switch kind {
	case model.KindTheme:
		return validated{lines: validLines(entry.Themes)}
	case model.KindTasks:
		return validated{lines: validLines(entry.Tasks)}
	case model.KindTimeline:
		return validated{timeline: entry.Timeline}
	case model.KindBudget:
		return validated{budget: entry.Budget}
	case model.KindInvitation:
		return validated{text: entry.Invitation}
	case model.KindRSVPLikelihood:
		return validated{text: entry.RSVP}
	default:
		return validated{}
	}
}

func (o *Orchestrator) buildResult(kind model.Kind, v validated) *model.Result {
	result := &model.Result{Kind: kind}

	switch kind {
	case model.KindTheme:
		result.Themes = make([]model.Theme, len(v.lines))
		for i, name := range v.lines {
			result.Themes[i] = model.Theme{Name: name, Popularity: clampPopularity(o.popularity())}
		}
	case model.KindTasks:
		result.Tasks = make([]model.TaskItem, len(v.lines))
		for i, text := range v.lines {
			result.Tasks[i] = model.NewTask(text)
		}
	case model.KindTimeline:
		result.Timeline = v.timeline
	case model.KindBudget:
		result.Budget = v.budget
	default:
		result.Text = v.text
	}

	return result
}

func (o *Orchestrator) transition(req model.Request, state State) {
	o.logger.Debug("Suggestion state transition",
		zap.String("kind", string(req.Kind)),
		zap.String("state", state.String()))
	if o.observer != nil {
		o.observer(req, state)
	}
}

func clampPopularity(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
