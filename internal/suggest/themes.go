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
	"sort"
	"strings"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// Theme sort orders accepted by SortThemes
const (
	SortDefault      = "default"
	SortAlphabetical = "alphabetical"
	SortPopularity   = "popularity"
)

// FilterThemes returns the themes whose name contains query, ignoring case
func FilterThemes(themes []model.Theme, query string) []model.Theme {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Theme, 0, len(themes))
	for _, theme := range themes {
		if query == "" || strings.Contains(strings.ToLower(theme.Name), query) {
			out = append(out, theme)
		}
	}
	return out
}

// SortThemes returns a sorted copy. Unknown orders keep the original order.
func SortThemes(themes []model.Theme, order string) []model.Theme {
	out := append([]model.Theme(nil), themes...)

	switch order {
	case SortAlphabetical:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortPopularity:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Popularity > out[j].Popularity
		})
	}

	return out
}
