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
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// Tasks returns the task list of an event type
func (c *Cache) Tasks(ctx context.Context, sessionID, eventType string) ([]model.TaskItem, error) {
	tasks := []model.TaskItem{}
	if err := c.load(ctx, sessionID, TasksKey(eventType), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// MergeTaskResult merges suggested tasks into the event type's list and
// returns the merged list. New tasks receive IDs.
func (c *Cache) MergeTaskResult(ctx context.Context, sessionID, eventType string, result *model.Result) ([]model.TaskItem, error) {
	if result == nil || result.Kind != model.KindTasks {
		return nil, fmt.Errorf("%w: expected a tasks result", model.ErrInvalidRequest)
	}

	unlock := c.lock(sessionID)
	defer unlock()

	existing, err := c.Tasks(ctx, sessionID, eventType)
	if err != nil {
		return nil, err
	}

	merged := MergeTasks(existing, result.Tasks)
	for i := len(existing); i < len(merged); i++ {
		if merged[i].ID == "" {
			merged[i].ID = newID()
		}
		if merged[i].Priority == "" {
			merged[i].Priority = model.PriorityMedium
		}
	}

	if err := c.save(ctx, sessionID, TasksKey(eventType), merged); err != nil {
		return nil, err
	}

	c.logger.Info("Merged task suggestions",
		zap.String("session_id", sessionID),
		zap.String("event_type", eventType),
		zap.Int("existing", len(existing)),
		zap.Int("added", len(merged)-len(existing)))

	return merged, nil
}

// AddTask appends a user-entered task
func (c *Cache) AddTask(ctx context.Context, sessionID, eventType, text string, priority model.Priority) (model.TaskItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TaskItem{}, ErrEmptyText
	}
	if priority == "" {
		priority = model.PriorityMedium
	}

	unlock := c.lock(sessionID)
	defer unlock()

	tasks, err := c.Tasks(ctx, sessionID, eventType)
	if err != nil {
		return model.TaskItem{}, err
	}
	for _, task := range tasks {
		if task.Text == text {
			return model.TaskItem{}, fmt.Errorf("%w: task %q", ErrDuplicate, text)
		}
	}

	task := model.TaskItem{ID: newID(), Text: text, Priority: priority}
	tasks = append(tasks, task)
	if err := c.save(ctx, sessionID, TasksKey(eventType), tasks); err != nil {
		return model.TaskItem{}, err
	}
	return task, nil
}

// ToggleTask flips the completion flag of a task
func (c *Cache) ToggleTask(ctx context.Context, sessionID, eventType, taskID string) (model.TaskItem, error) {
	return c.updateTask(ctx, sessionID, eventType, taskID, func(tasks []model.TaskItem, i int) error {
		tasks[i].Completed = !tasks[i].Completed
		return nil
	})
}

// UpdateTask replaces the text of a task, and its priority unless priority is
// empty. The new text must not belong to another task.
func (c *Cache) UpdateTask(ctx context.Context, sessionID, eventType, taskID, text string, priority model.Priority) (model.TaskItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TaskItem{}, ErrEmptyText
	}

	return c.updateTask(ctx, sessionID, eventType, taskID, func(tasks []model.TaskItem, i int) error {
		for j, other := range tasks {
			if j != i && other.Text == text {
				return fmt.Errorf("%w: task %q", ErrDuplicate, text)
			}
		}
		tasks[i].Text = text
		if priority != "" {
			tasks[i].Priority = priority
		}
		return nil
	})
}

// DeleteTask removes a task
func (c *Cache) DeleteTask(ctx context.Context, sessionID, eventType, taskID string) error {
	unlock := c.lock(sessionID)
	defer unlock()

	tasks, err := c.Tasks(ctx, sessionID, eventType)
	if err != nil {
		return err
	}

	for i, task := range tasks {
		if task.ID == taskID {
			tasks = append(tasks[:i], tasks[i+1:]...)
			return c.save(ctx, sessionID, TasksKey(eventType), tasks)
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

func (c *Cache) updateTask(ctx context.Context, sessionID, eventType, taskID string, apply func(tasks []model.TaskItem, i int) error) (model.TaskItem, error) {
	unlock := c.lock(sessionID)
	defer unlock()

	tasks, err := c.Tasks(ctx, sessionID, eventType)
	if err != nil {
		return model.TaskItem{}, err
	}

	for i := range tasks {
		if tasks[i].ID != taskID {
			continue
		}
		if err := apply(tasks, i); err != nil {
			return model.TaskItem{}, err
		}
		if err := c.save(ctx, sessionID, TasksKey(eventType), tasks); err != nil {
			return model.TaskItem{}, err
		}
		return tasks[i], nil
	}

	return model.TaskItem{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}
