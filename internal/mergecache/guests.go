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
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// Guests returns the guest list in the order guests were added
func (c *Cache) Guests(ctx context.Context, sessionID string) ([]model.Guest, error) {
	guests := []model.Guest{}
	if err := c.load(ctx, sessionID, KeyGuests, &guests); err != nil {
		return nil, err
	}
	return guests, nil
}

// Guest returns one guest
func (c *Cache) Guest(ctx context.Context, sessionID, guestID string) (model.Guest, error) {
	guests, err := c.Guests(ctx, sessionID)
	if err != nil {
		return model.Guest{}, err
	}
	for _, guest := range guests {
		if guest.ID == guestID {
			return guest, nil
		}
	}
	return model.Guest{}, fmt.Errorf("%w: %s", ErrGuestNotFound, guestID)
}

// AddGuest appends a pending guest. Emails are unique without regard to case.
func (c *Cache) AddGuest(ctx context.Context, sessionID, name, email string) (model.Guest, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return model.Guest{}, ErrEmptyText
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return model.Guest{}, fmt.Errorf("%w: invalid email %q", model.ErrInvalidRequest, email)
	}

	unlock := c.lock(sessionID)
	defer unlock()

	guests, err := c.Guests(ctx, sessionID)
	if err != nil {
		return model.Guest{}, err
	}

	guest := model.Guest{ID: newID(), Name: name, Email: email, RSVP: model.RSVPPending}
	for _, existing := range guests {
		if existing.Key() == guest.Key() {
			return model.Guest{}, fmt.Errorf("%w: guest %q", ErrDuplicate, email)
		}
	}

	guests = append(guests, guest)
	if err := c.save(ctx, sessionID, KeyGuests, guests); err != nil {
		return model.Guest{}, err
	}

	c.logger.Info("Added guest",
		zap.String("session_id", sessionID),
		zap.String("guest_id", guest.ID),
		zap.Int("guests", len(guests)))

	return guest, nil
}

// RemoveGuest deletes a guest
func (c *Cache) RemoveGuest(ctx context.Context, sessionID, guestID string) error {
	unlock := c.lock(sessionID)
	defer unlock()

	guests, err := c.Guests(ctx, sessionID)
	if err != nil {
		return err
	}

	for i, guest := range guests {
		if guest.ID == guestID {
			guests = append(guests[:i], guests[i+1:]...)
			return c.save(ctx, sessionID, KeyGuests, guests)
		}
	}
	return fmt.Errorf("%w: %s", ErrGuestNotFound, guestID)
}

// UpdateRSVP records a guest's reply
func (c *Cache) UpdateRSVP(ctx context.Context, sessionID, guestID string, status model.RSVPStatus) (model.Guest, error) {
	return c.updateGuest(ctx, sessionID, guestID, func(guest *model.Guest) {
		guest.RSVP = status
	})
}

// SetLikelihood stores the predicted RSVP likelihood of a guest
func (c *Cache) SetLikelihood(ctx context.Context, sessionID, guestID, likelihood string) (model.Guest, error) {
	return c.updateGuest(ctx, sessionID, guestID, func(guest *model.Guest) {
		guest.Likelihood = strings.TrimSpace(likelihood)
	})
}

// BulkRSVP sets status on every guest still pending and returns the guest list
func (c *Cache) BulkRSVP(ctx context.Context, sessionID string, status model.RSVPStatus) ([]model.Guest, error) {
	unlock := c.lock(sessionID)
	defer unlock()

	guests, err := c.Guests(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	changed := 0
	for i := range guests {
		if guests[i].RSVP == model.RSVPPending {
			guests[i].RSVP = status
			changed++
		}
	}
	if changed == 0 {
		return guests, nil
	}

	if err := c.save(ctx, sessionID, KeyGuests, guests); err != nil {
		return nil, err
	}
	return guests, nil
}

func (c *Cache) updateGuest(ctx context.Context, sessionID, guestID string, apply func(*model.Guest)) (model.Guest, error) {
	unlock := c.lock(sessionID)
	defer unlock()

	guests, err := c.Guests(ctx, sessionID)
	if err != nil {
		return model.Guest{}, err
	}

	for i := range guests {
		if guests[i].ID != guestID {
			continue
		}
		apply(&guests[i])
		if err := c.save(ctx, sessionID, KeyGuests, guests); err != nil {
			return model.Guest{}, err
		}
		return guests[i], nil
	}

	return model.Guest{}, fmt.Errorf("%w: %s", ErrGuestNotFound, guestID)
}
