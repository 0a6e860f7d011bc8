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

package suggest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// maxDaysBefore bounds daysBefore so the truncated value always fits an int
const maxDaysBefore = math.MaxInt32

// validated is a candidate that passed the schema checks for its kind
type validated struct {
	lines    []string
	timeline []model.Milestone
	budget   []model.BudgetLine
	text     string
}

// validate checks a candidate against the schema of its kind. Structured
// kinds are all-or-nothing: one bad element invalidates the whole candidate.
func validate(kind model.Kind, c candidate) (validated, error) {
	switch kind {
	case model.KindTheme, model.KindTasks:
		lines := validLines(c.lines)
		if len(lines) == 0 {
			return validated{}, &ValidationFailure{Kind: kind, Index: -1, Reason: "no non-empty lines"}
		}
		return validated{lines: lines}, nil
	case model.KindTimeline:
		timeline, err := validateTimeline(c.items)
		if err != nil {
			return validated{}, err
		}
		return validated{timeline: timeline}, nil
	case model.KindBudget:
		budget, err := validateBudget(c.items)
		if err != nil {
			return validated{}, err
		}
		return validated{budget: budget}, nil
	case model.KindInvitation, model.KindRSVPLikelihood:
		return validated{text: c.text}, nil
	default:
		return validated{}, &ValidationFailure{Kind: kind, Index: -1, Reason: "unsupported kind"}
	}
}

// validLines keeps the trimmed non-empty lines. Duplicates are left alone.
func validLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func validateTimeline(items []json.RawMessage) ([]model.Milestone, error) {
	if len(items) == 0 {
		return nil, &ValidationFailure{Kind: model.KindTimeline, Index: -1, Reason: "empty timeline"}
	}

	timeline := make([]model.Milestone, 0, len(items))
	for i, raw := range items {
		fields, err := objectFields(raw)
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindTimeline, Index: i, Reason: err.Error()}
		}

		name, err := stringField(fields, "milestone")
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindTimeline, Index: i, Reason: err.Error()}
		}

		days, err := numberField(fields, "daysBefore")
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindTimeline, Index: i, Reason: err.Error()}
		}
		if days > maxDaysBefore {
			return nil, &ValidationFailure{Kind: model.KindTimeline, Index: i, Reason: "daysBefore out of range"}
		}

		timeline = append(timeline, model.Milestone{
			Milestone:  name,
			DaysBefore: int(math.Trunc(days)),
		})
	}

	return timeline, nil
}

func validateBudget(items []json.RawMessage) ([]model.BudgetLine, error) {
	if len(items) == 0 {
		return nil, &ValidationFailure{Kind: model.KindBudget, Index: -1, Reason: "empty budget"}
	}

	budget := make([]model.BudgetLine, 0, len(items))
	for i, raw := range items {
		fields, err := objectFields(raw)
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindBudget, Index: i, Reason: err.Error()}
		}

		category, err := stringField(fields, "category")
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindBudget, Index: i, Reason: err.Error()}
		}

		amount, err := numberField(fields, "amount")
		if err != nil {
			return nil, &ValidationFailure{Kind: model.KindBudget, Index: i, Reason: err.Error()}
		}

		budget = append(budget, model.BudgetLine{Category: category, Amount: amount})
	}

	return budget, nil
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("element is not an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("element is not an object: %w", err)
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("missing %s", name)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", fmt.Errorf("%s must be a string", name)
	}

	var value string
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return "", fmt.Errorf("%s must be a string", name)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	return value, nil
}

func numberField(fields map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, fmt.Errorf("%s must be a number", name)
	}

	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return value, nil
}
