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
	"fmt"
	"strings"

	"github.com/your-org/event-planner-assistant/internal/model"
)

const (
	// ThemeCount is the number of themes requested from the generator
	ThemeCount = 9
	// MilestoneCount is the number of timeline milestones requested
	MilestoneCount = 5
	// TaskCount is the number of planning tasks requested
	TaskCount = 7
)

// BuildPrompt constructs the generator instruction for a request. The only
// error it returns wraps model.ErrInvalidRequest.
func BuildPrompt(req model.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	eventType := strings.TrimSpace(req.EventType)

	switch req.Kind {
	case model.KindTheme:
		return buildThemePrompt(eventType), nil
	case model.KindTimeline:
		return buildTimelinePrompt(eventType, req.DaysUntilEvent), nil
	case model.KindTasks:
		return buildTasksPrompt(eventType), nil
	case model.KindBudget:
		return buildBudgetPrompt(eventType, req.GuestCount), nil
	case model.KindInvitation, model.KindRSVPLikelihood:
		return req.Prompt, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", model.ErrInvalidRequest, req.Kind)
	}
}

func buildThemePrompt(eventType string) string {
	return fmt.Sprintf("Suggest exactly %d creative, modern, and unique theme ideas for a %s event. "+
		"Return only the theme names, one per line, with no descriptions or extra text.",
		ThemeCount, eventType)
}

func buildTimelinePrompt(eventType string, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am planning a %s that will happen in %d days.\n", eventType, days)
	fmt.Fprintf(&b, "Generate a planning timeline with exactly %d milestones as a JSON array like:\n", MilestoneCount)
	b.WriteString("[\n  { \"milestone\": \"Book venue\", \"daysBefore\": 20 },\n  ...\n]\n")
	fmt.Fprintf(&b, "Every daysBefore must be a whole number between 0 and %d. ", days)
	b.WriteString("Only include realistic items based on the remaining time. Respond with the JSON array only.")
	return b.String()
}

func buildTasksPrompt(eventType string) string {
	return fmt.Sprintf("List exactly %d important planning tasks for a %s event. "+
		"Return only the task texts as a numbered list.", TaskCount, eventType)
}

func buildBudgetPrompt(eventType string, guests int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a budget for a %s event expecting %d guests.\n", eventType, guests)
	b.WriteString("Respond with a JSON array only, in this format:\n")
	b.WriteString("[\n  { \"category\": \"Venue\", \"amount\": 2000 },\n  { \"category\": \"Catering\", \"amount\": 5000 },\n  ...\n]\n")
	fmt.Fprintf(&b, "Scale per-guest costs such as catering to %d guests and give every amount as a plain number.", guests)
	return b.String()
}

// ComposeInvitationPrompt turns structured invitation details into a free-text
// prompt for the Invitation kind
func ComposeInvitationPrompt(d model.InvitationDetails) (string, error) {
	if strings.TrimSpace(d.EventType) == "" || strings.TrimSpace(d.Host) == "" ||
		strings.TrimSpace(d.Date) == "" || strings.TrimSpace(d.Location) == "" {
		return "", fmt.Errorf("%w: event type, host, date and location are required", model.ErrInvalidRequest)
	}

	template := strings.TrimSpace(d.Template)
	if template == "" {
		template = "formal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s invitation for a %s hosted by %s on %s",
		strings.ToLower(template), strings.TrimSpace(d.EventType), strings.TrimSpace(d.Host), strings.TrimSpace(d.Date))
	if t := strings.TrimSpace(d.Time); t != "" {
		fmt.Fprintf(&b, " at %s", t)
	}
	fmt.Fprintf(&b, " at %s.", strings.TrimSpace(d.Location))
	if desc := strings.TrimSpace(d.Description); desc != "" {
		fmt.Fprintf(&b, " Event details: %s", desc)
	}
	return b.String(), nil
}

// ComposeRSVPPrompt builds the prompt used to predict whether a guest will attend
func ComposeRSVPPrompt(eventType, guestName string) (string, error) {
	eventType = strings.TrimSpace(eventType)
	guestName = strings.TrimSpace(guestName)
	if eventType == "" || guestName == "" {
		return "", fmt.Errorf("%w: event type and guest name are required", model.ErrInvalidRequest)
	}
	return fmt.Sprintf("Predict how likely a guest named %s is to RSVP yes to a %s event. "+
		"Answer with one of High, Medium or Low followed by a one-sentence reason.", guestName, eventType), nil
}
