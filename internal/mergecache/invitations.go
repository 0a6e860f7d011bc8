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
	"strings"
	"time"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// Invitations returns the saved invitations, oldest first
func (c *Cache) Invitations(ctx context.Context, sessionID string) ([]model.Invitation, error) {
	invitations := []model.Invitation{}
	if err := c.load(ctx, sessionID, KeyInvitations, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// SaveInvitation stores an invitation text
func (c *Cache) SaveInvitation(ctx context.Context, sessionID, eventType, text string) (model.Invitation, error) {
	if strings.TrimSpace(text) == "" {
		return model.Invitation{}, ErrEmptyText
	}

	unlock := c.lock(sessionID)
	defer unlock()

	invitations, err := c.Invitations(ctx, sessionID)
	if err != nil {
		return model.Invitation{}, err
	}

	invitation := model.Invitation{
		ID:        newID(),
		EventType: strings.TrimSpace(eventType),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	invitations = append(invitations, invitation)

	if err := c.save(ctx, sessionID, KeyInvitations, invitations); err != nil {
		return model.Invitation{}, err
	}
	return invitation, nil
}
