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

package catalog

import "github.com/your-org/event-planner-assistant/internal/model"

// UnknownLikelihood is the RSVP prediction used when none can be generated
const UnknownLikelihood = "Unknown"

var builtinGeneric = Entry{
	Invitation: "You're invited! Please join us for a special celebration. " +
		"We would love to share the day with you, so save the date and watch for more details soon.",
	RSVP: UnknownLikelihood,
}

var builtinEntries = map[string]Entry{
	"wedding": {
		Themes: []string{"Rustic Romance", "Modern Elegance", "Vintage Charm", "Beach Bliss"},
		Timeline: []model.Milestone{
			{Milestone: "Venue Booking", DaysBefore: 180},
			{Milestone: "Send Invitations", DaysBefore: 60},
			{Milestone: "Catering Finalized", DaysBefore: 30},
			{Milestone: "Event Day", DaysBefore: 0},
		},
		Budget: []model.BudgetLine{
			{Category: "Venue", Amount: 5000},
			{Category: "Catering", Amount: 3000},
			{Category: "Decorations", Amount: 1000},
			{Category: "Photography", Amount: 2000},
			{Category: "Entertainment", Amount: 1500},
		},
		Tasks: []string{"Book venue", "Hire caterer", "Send invitations"},
		Invitation: "Together with their families, the couple joyfully requests the pleasure of your company " +
			"at their wedding celebration. Dinner and dancing to follow. Kindly reply at your earliest convenience.",
	},
	"birthday": {
		Themes: []string{"Superhero Bash", "Enchanted Forest", "Retro Disco", "Tropical Fiesta"},
		Timeline: []model.Milestone{
			{Milestone: "Theme Selection", DaysBefore: 30},
			{Milestone: "Send Invitations", DaysBefore: 14},
			{Milestone: "Cake Order", DaysBefore: 7},
			{Milestone: "Event Day", DaysBefore: 0},
		},
		Budget: []model.BudgetLine{
			{Category: "Venue", Amount: 500},
			{Category: "Food & Drinks", Amount: 300},
			{Category: "Decorations", Amount: 200},
			{Category: "Cake", Amount: 100},
			{Category: "Entertainment", Amount: 200},
		},
		Tasks: []string{"Choose theme", "Order cake", "Plan games"},
		Invitation: "You're invited to a birthday party! Come celebrate with cake, games and good company. " +
			"Let us know if you can make it.",
	},
	"corporate": {
		Themes: []string{"Tech Summit", "Gala Night", "Team Building Retreat", "Product Launch"},
		Timeline: []model.Milestone{
			{Milestone: "Venue Booking", DaysBefore: 90},
			{Milestone: "Speaker Confirmation", DaysBefore: 30},
			{Milestone: "Send Invitations", DaysBefore: 21},
			{Milestone: "Event Day", DaysBefore: 0},
		},
		Budget: []model.BudgetLine{
			{Category: "Venue", Amount: 3000},
			{Category: "Catering", Amount: 2000},
			{Category: "AV Equipment", Amount: 1500},
			{Category: "Speakers", Amount: 2500},
			{Category: "Marketing", Amount: 1000},
		},
		Tasks: []string{"Book speakers", "Arrange AV", "Promote event"},
		Invitation: "You are cordially invited to our corporate event. Join colleagues and partners for an " +
			"afternoon of talks, networking and refreshments. Please confirm your attendance.",
	},
	"concert": {
		Themes: []string{"Rock Revival", "Jazz Lounge", "Pop Extravaganza", "Classical Evening"},
		Timeline: []model.Milestone{
			{Milestone: "Artist Booking", DaysBefore: 120},
			{Milestone: "Ticket Sales Start", DaysBefore: 60},
			{Milestone: "Stage Setup", DaysBefore: 7},
			{Milestone: "Event Day", DaysBefore: 0},
		},
		Budget: []model.BudgetLine{
			{Category: "Venue", Amount: 4000},
			{Category: "Artists", Amount: 5000},
			{Category: "Sound & Lighting", Amount: 2000},
			{Category: "Promotion", Amount: 1500},
			{Category: "Security", Amount: 1000},
		},
		Tasks: []string{"Book artists", "Set up stage", "Sell tickets"},
		Invitation: "Get ready for a night of live music! You're invited to our concert. " +
			"Doors open early, so grab your friends and reserve your spot.",
	},
}
