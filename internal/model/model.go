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

// Package model holds the domain types shared by the suggestion engine, the
// fallback catalog and the session merge cache.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRequest is returned for caller-side contract violations such as an
// unknown kind or a missing required parameter.
var ErrInvalidRequest = errors.New("invalid suggestion request")

// Kind identifies what sort of suggestion is being requested
type Kind string

const (
	// KindTheme requests a list of theme names
	KindTheme Kind = "theme"
	// KindTimeline requests planning milestones
	KindTimeline Kind = "timeline"
	// KindTasks requests a planning task list
	KindTasks Kind = "tasks"
	// KindInvitation requests invitation text from a caller-supplied prompt
	KindInvitation Kind = "invitation"
	// KindRSVPLikelihood requests an RSVP prediction from a caller-supplied prompt
	KindRSVPLikelihood Kind = "rsvp"
	// KindBudget requests budget lines
	KindBudget Kind = "budget"
)

// Kinds lists every supported kind in a stable order
var Kinds = []Kind{KindTheme, KindTimeline, KindTasks, KindInvitation, KindRSVPLikelihood, KindBudget}

// ParseKind converts a user supplied name into a Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "theme", "themes":
		return KindTheme, nil
	case "timeline":
		return KindTimeline, nil
	case "tasks", "task":
		return KindTasks, nil
	case "invitation":
		return KindInvitation, nil
	case "rsvp", "rsvp_likelihood":
		return KindRSVPLikelihood, nil
	case "budget":
		return KindBudget, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, name)
	}
}

// IsFreeText reports whether the kind takes a verbatim prompt and returns raw text
func (k Kind) IsFreeText() bool {
	return k == KindInvitation || k == KindRSVPLikelihood
}

// Known reports whether k is one of the supported kinds
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Request describes a single suggestion request. It is built per user action
// and consumed once.
type Request struct {
	Kind           Kind   `json:"kind"`
	EventType      string `json:"event_type,omitempty"`
	DaysUntilEvent int    `json:"days_until_event,omitempty"`
	GuestCount     int    `json:"guest_count,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
}

// Validate checks the per-kind parameter requirements
func (r Request) Validate() error {
	if !r.Kind.Known() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}

	if r.Kind.IsFreeText() {
		if strings.TrimSpace(r.Prompt) == "" {
			return fmt.Errorf("%w: prompt is required for %s", ErrInvalidRequest, r.Kind)
		}
		return nil
	}

	if strings.TrimSpace(r.EventType) == "" {
		return fmt.Errorf("%w: event type is required for %s", ErrInvalidRequest, r.Kind)
	}

	switch r.Kind {
	case KindTimeline:
		if r.DaysUntilEvent <= 0 {
			return fmt.Errorf("%w: days until event must be positive", ErrInvalidRequest)
		}
	case KindBudget:
		if r.GuestCount <= 0 {
			return fmt.Errorf("%w: guest count must be positive", ErrInvalidRequest)
		}
	}

	return nil
}

// Theme is a named event theme with a presentation-only popularity score
type Theme struct {
	Name       string  `json:"name"`
	Popularity float64 `json:"popularity"`
}

// Key returns the uniqueness key used when merging themes
func (t Theme) Key() string {
	return strings.ToLower(t.Name)
}

// Milestone is one entry of a planning timeline
type Milestone struct {
	Milestone  string `json:"milestone" yaml:"milestone"`
	DaysBefore int    `json:"daysBefore" yaml:"daysBefore"`
}

// Priority is a task priority
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts High, Medium or Low in any case
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidRequest, s)
	}
}

// TaskItem is a planning task. Text is the uniqueness key.
type TaskItem struct {
	ID        string   `json:"id,omitempty"`
	Text      string   `json:"text"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
}

// NewTask returns an incomplete task with the default priority
func NewTask(text string) TaskItem {
	return TaskItem{Text: text, Priority: PriorityMedium}
}

// BudgetLine is a budget category with its amount
type BudgetLine struct {
	Category string  `json:"category" yaml:"category"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

// TotalBudget sums the amounts of all lines
func TotalBudget(lines []BudgetLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Amount
	}
	return total
}

// Provenance records where a suggestion came from
type Provenance string

const (
	// ProvenanceGenerated marks content produced by the text generator
	ProvenanceGenerated Provenance = "generated"
	// ProvenanceFallback marks content taken from the static catalog
	ProvenanceFallback Provenance = "fallback"
)

// Result is the uniform answer to a Request. Exactly one payload field is set,
// matching Kind.
type Result struct {
	Kind       Kind         `json:"kind"`
	Provenance Provenance   `json:"provenance"`
	Themes     []Theme      `json:"themes,omitempty"`
	Timeline   []Milestone  `json:"timeline,omitempty"`
	Tasks      []TaskItem   `json:"tasks,omitempty"`
	Budget     []BudgetLine `json:"budget,omitempty"`
	Text       string       `json:"text,omitempty"`
}

// Len returns the number of items in the populated payload. Free-text results
// count as one item.
func (r *Result) Len() int {
	switch r.Kind {
	case KindTheme:
		return len(r.Themes)
	case KindTimeline:
		return len(r.Timeline)
	case KindTasks:
		return len(r.Tasks)
	case KindBudget:
		return len(r.Budget)
	default:
		if r.Text == "" {
			return 0
		}
		return 1
	}
}

// Invitation is a saved invitation text
type Invitation struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// InvitationDetails carries the fields used to compose an invitation prompt
type InvitationDetails struct {
	Template    string `json:"template"`
	EventType   string `json:"eventType"`
	Host        string `json:"host"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
}

// RSVPStatus is a guest's reply to an invitation
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "Pending"
	RSVPAccepted RSVPStatus = "Accepted"
	RSVPDeclined RSVPStatus = "Declined"
)

// ParseRSVPStatus accepts Pending, Accepted or Declined in any case. Yes and
// No are read as Accepted and Declined.
func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return RSVPPending, nil
	case "accepted", "yes":
		return RSVPAccepted, nil
	case "declined", "no":
		return RSVPDeclined, nil
	default:
		return "", fmt.Errorf("%w: unknown rsvp status %q", ErrInvalidRequest, s)
	}
}

// Guest is an invited guest. Email, compared without case, is the uniqueness key.
type Guest struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	RSVP       RSVPStatus `json:"rsvp"`
	Likelihood string     `json:"likelihood,omitempty"`
}

// Key returns the uniqueness key of the guest
func (g Guest) Key() string {
	return strings.ToLower(strings.TrimSpace(g.Email))
}

// GuestSummary counts guests by RSVP status
type GuestSummary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Declined int `json:"declined"`
	Pending  int `json:"pending"`
}

// SummarizeGuests counts guests by RSVP status
func SummarizeGuests(guests []Guest) GuestSummary {
	summary := GuestSummary{Total: len(guests)}
	for _, guest := range guests {
		switch guest.RSVP {
		case RSVPAccepted:
			summary.Accepted++
		case RSVPDeclined:
			summary.Declined++
		default:
			summary.Pending++
		}
	}
	return summary
}
