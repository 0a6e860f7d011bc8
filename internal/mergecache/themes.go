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

// CustomThemePopularity is the popularity given to user-added themes
const CustomThemePopularity = 0.5

// Themes returns the accumulated themes of a session
func (c *Cache) Themes(ctx context.Context, sessionID string) ([]model.Theme, error) {
	themes := []model.Theme{}
	if err := c.load(ctx, sessionID, KeyThemes, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

// MergeThemeResult merges generated or fallback themes into the session and
// returns the merged collection
func (c *Cache) MergeThemeResult(ctx context.Context, sessionID string, result *model.Result) ([]model.Theme, error) {
	if result == nil || result.Kind != model.KindTheme {
		return nil, fmt.Errorf("%w: expected a theme result", model.ErrInvalidRequest)
	}

	unlock := c.lock(sessionID)
	defer unlock()

	existing, err := c.Themes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := MergeThemes(existing, result.Themes)
	if err := c.save(ctx, sessionID, KeyThemes, merged); err != nil {
		return nil, err
	}

	c.logger.Info("Merged theme suggestions",
		zap.String("session_id", sessionID),
		zap.Int("existing", len(existing)),
		zap.Int("added", len(merged)-len(existing)))

	return merged, nil
}

// AddCustomTheme appends a user-entered theme
func (c *Cache) AddCustomTheme(ctx context.Context, sessionID, name string) ([]model.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyText
	}

	unlock := c.lock(sessionID)
	defer unlock()

	themes, err := c.Themes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	theme := model.Theme{Name: name, Popularity: CustomThemePopularity}
	for _, existing := range themes {
		if existing.Key() == theme.Key() {
			return nil, fmt.Errorf("%w: theme %q", ErrDuplicate, name)
		}
	}

	themes = append(themes, theme)
	if err := c.save(ctx, sessionID, KeyThemes, themes); err != nil {
		return nil, err
	}
	return themes, nil
}

// Favorites returns the favorite theme names of a session
func (c *Cache) Favorites(ctx context.Context, sessionID string) ([]string, error) {
	favorites := []string{}
	if err := c.load(ctx, sessionID, KeyFavorites, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

// ToggleFavorite adds name to the favorites, or removes it when present.
// It reports whether the theme is a favorite afterwards.
func (c *Cache) ToggleFavorite(ctx context.Context, sessionID, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyText
	}

	unlock := c.lock(sessionID)
	defer unlock()

	favorites, err := c.Favorites(ctx, sessionID)
	if err != nil {
		return false, err
	}

	key := strings.ToLower(name)
	kept := favorites[:0]
	removed := false
	for _, favorite := range favorites {
		if strings.ToLower(favorite) == key {
			removed = true
			continue
		}
		kept = append(kept, favorite)
	}
	if !removed {
		kept = append(kept, name)
	}

	if err := c.save(ctx, sessionID, KeyFavorites, kept); err != nil {
		return false, err
	}
	return !removed, nil
}

// SelectedTheme returns the selected theme name, if any
func (c *Cache) SelectedTheme(ctx context.Context, sessionID string) (string, bool, error) {
	var selected string
	if err := c.load(ctx, sessionID, KeySelectedTheme, &selected); err != nil {
		return "", false, err
	}
	return selected, selected != "", nil
}

// SelectTheme marks one of the session's themes as selected
func (c *Cache) SelectTheme(ctx context.Context, sessionID, name string) (string, error) {
	name = strings.TrimSpace(name)

	unlock := c.lock(sessionID)
	defer unlock()

	themes, err := c.Themes(ctx, sessionID)
	if err != nil {
		return "", err
	}

	key := strings.ToLower(name)
	for _, theme := range themes {
		if theme.Key() == key {
			if err := c.save(ctx, sessionID, KeySelectedTheme, theme.Name); err != nil {
				return "", err
			}
			return theme.Name, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrThemeNotFound, name)
}

// ClearSelection removes the selected theme
func (c *Cache) ClearSelection(ctx context.Context, sessionID string) error {
	unlock := c.lock(sessionID)
	defer unlock()

	return c.save(ctx, sessionID, KeySelectedTheme, "")
}
