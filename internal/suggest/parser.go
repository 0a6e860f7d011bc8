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
	"encoding/json"
	"regexp"
	"strings"

	"github.com/your-org/event-planner-assistant/internal/model"
)

var (
	lineBreakRegex     = regexp.MustCompile(`\r?\n`)
	ordinalMarkerRegex = regexp.MustCompile(`^\s*\d+[).]?\s*-?\s*`)
)

// candidate is the parsed but not yet validated form of a generated response
type candidate struct {
	lines []string
	items []json.RawMessage
	text  string
}

// parse converts raw generated text into a candidate for the kind. It never
// panics; malformed structured output is reported as *ParseFailure.
func parse(kind model.Kind, text string) (candidate, error) {
	switch kind {
	case model.KindTheme, model.KindTasks:
		return candidate{lines: ParseLines(text)}, nil
	case model.KindTimeline, model.KindBudget:
		items, err := parseJSONArray(kind, text)
		if err != nil {
			return candidate{}, err
		}
		return candidate{items: items}, nil
	case model.KindInvitation, model.KindRSVPLikelihood:
		return candidate{text: text}, nil
	default:
		return candidate{}, &ParseFailure{Kind: kind, Reason: "unsupported kind"}
	}
}

// ParseLines splits text into lines, strips leading ordinal markers such as
// "1)", "2." or "3 -" and drops lines left empty
func ParseLines(text string) []string {
	rawLines := lineBreakRegex.Split(text, -1)
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimSpace(ordinalMarkerRegex.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// parseJSONArray requires the whole response to be a JSON array. Prose or
// markdown fences around the array are not stripped.
func parseJSONArray(kind model.Kind, text string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, &ParseFailure{Kind: kind, Reason: "response is not a JSON array"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, &ParseFailure{Kind: kind, Reason: "response is not valid JSON", Err: err}
	}
	return items, nil
}
