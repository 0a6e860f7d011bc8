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

// Package catalog provides the static per-event-type reference data used when
// generated suggestions are unavailable or unusable.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// ErrNotFound is returned when the catalog has no entry for an event type
var ErrNotFound = errors.New("event type not found in catalog")

// Entry holds the static suggestions for one event type
type Entry struct {
	Themes     []string           `yaml:"themes"`
	Timeline   []model.Milestone  `yaml:"timeline"`
	Budget     []model.BudgetLine `yaml:"budget"`
	Tasks      []string           `yaml:"tasks"`
	Invitation string             `yaml:"invitation"`
	RSVP       string             `yaml:"rsvp"`
}

// Catalog is an immutable lookup table keyed by normalised event type.
// It is safe for concurrent use.
type Catalog struct {
	entries map[string]Entry
	generic Entry
}

// file is the on-disk YAML layout accepted by Load
type file struct {
	EventTypes map[string]Entry `yaml:"event_types"`
	Generic    *Entry           `yaml:"generic"`
}

// Default returns the built-in catalog
func Default() *Catalog {
	c := &Catalog{
		entries: make(map[string]Entry, len(builtinEntries)),
		generic: builtinGeneric,
	}
	for eventType, entry := range builtinEntries {
		c.entries[Normalize(eventType)] = withGenericText(entry, builtinGeneric)
	}
	return c
}

// Load returns the built-in catalog overlaid with the entries of a YAML file.
// Entries in the file replace built-in entries of the same event type.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	c := Default()
	if f.Generic != nil {
		if f.Generic.Invitation != "" {
			c.generic.Invitation = f.Generic.Invitation
		}
		if f.Generic.RSVP != "" {
			c.generic.RSVP = f.Generic.RSVP
		}
	}

	for eventType, entry := range f.EventTypes {
		key := Normalize(eventType)
		if key == "" {
			return nil, fmt.Errorf("catalog file contains an empty event type")
		}
		if err := validateEntry(key, entry); err != nil {
			return nil, err
		}
		c.entries[key] = withGenericText(entry, c.generic)
	}

	return c, nil
}

// Normalize returns the lookup key for an event type
func Normalize(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType))
}

// Lookup returns a copy of the entry for the event type
func (c *Catalog) Lookup(eventType string) (Entry, error) {
	entry, ok := c.entries[Normalize(eventType)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, eventType)
	}
	return entry.clone(), nil
}

// Has reports whether the event type is recognised
func (c *Catalog) Has(eventType string) bool {
	_, ok := c.entries[Normalize(eventType)]
	return ok
}

// Generic returns the entry used for free-text kinds when no event type is given
func (c *Catalog) Generic() Entry {
	return c.generic.clone()
}

// EventTypes returns the supported event types in alphabetical order
func (c *Catalog) EventTypes() []string {
	types := make([]string, 0, len(c.entries))
	for eventType := range c.entries {
		types = append(types, eventType)
	}
	sort.Strings(types)
	return types
}

func (e Entry) clone() Entry {
	out := e
	out.Themes = append([]string(nil), e.Themes...)
	out.Timeline = append([]model.Milestone(nil), e.Timeline...)
	out.Budget = append([]model.BudgetLine(nil), e.Budget...)
	out.Tasks = append([]string(nil), e.Tasks...)
	return out
}

func withGenericText(entry, generic Entry) Entry {
	if entry.Invitation == "" {
		entry.Invitation = generic.Invitation
	}
	if entry.RSVP == "" {
		entry.RSVP = generic.RSVP
	}
	return entry
}

// validateEntry rejects override entries that could not serve as a fallback
func validateEntry(eventType string, entry Entry) error {
	if len(entry.Themes) == 0 || len(entry.Tasks) == 0 || len(entry.Timeline) == 0 || len(entry.Budget) == 0 {
		return fmt.Errorf("catalog entry %q must define themes, tasks, timeline and budget", eventType)
	}
	for i, m := range entry.Timeline {
		if strings.TrimSpace(m.Milestone) == "" || m.DaysBefore < 0 {
			return fmt.Errorf("catalog entry %q has invalid timeline item %d", eventType, i)
		}
	}
	for i, line := range entry.Budget {
		if strings.TrimSpace(line.Category) == "" || line.Amount < 0 {
			return fmt.Errorf("catalog entry %q has invalid budget line %d", eventType, i)
		}
	}
	return nil
}
