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

package mergecache

import (
	"strings"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// MergeThemes appends the incoming themes whose case-insensitive name is not
// already present. Existing themes keep their fields and their position.
func MergeThemes(existing, incoming []model.Theme) []model.Theme {
	merged := make([]model.Theme, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, theme := range existing {
		merged = append(merged, theme)
		seen[theme.Key()] = struct{}{}
	}
	for _, theme := range incoming {
		if strings.TrimSpace(theme.Name) == "" {
			continue
		}
		if _, ok := seen[theme.Key()]; ok {
			continue
		}
		seen[theme.Key()] = struct{}{}
		merged = append(merged, theme)
	}

	return merged
}

// MergeTasks appends the incoming tasks whose exact text is not already
// present. An existing task's completion and priority are never overwritten.
func MergeTasks(existing, incoming []model.TaskItem) []model.TaskItem {
	merged := make([]model.TaskItem, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, task := range existing {
		merged = append(merged, task)
		seen[task.Text] = struct{}{}
	}
	for _, task := range incoming {
		if strings.TrimSpace(task.Text) == "" {
			continue
		}
		if _, ok := seen[task.Text]; ok {
			continue
		}
		seen[task.Text] = struct{}{}
		merged = append(merged, task)
	}

	return merged
}
