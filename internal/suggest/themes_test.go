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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/event-planner-assistant/internal/model"
)

func TestFilterAndSortThemes(t *testing.T) {
	themes := []model.Theme{
		{Name: "Retro Disco", Popularity: 0.2},
		{Name: "enchanted Forest", Popularity: 0.9},
		{Name: "Superhero Bash", Popularity: 0.5},
	}

	assert.Equal(t, []model.Theme{{Name: "Retro Disco", Popularity: 0.2}}, FilterThemes(themes, "DISCO"))
	assert.Len(t, FilterThemes(themes, ""), 3)

	alpha := SortThemes(themes, SortAlphabetical)
	assert.Equal(t, "enchanted Forest", alpha[0].Name)
	assert.Equal(t, "Superhero Bash", alpha[2].Name)

	popular := SortThemes(themes, SortPopularity)
	assert.Equal(t, "enchanted Forest", popular[0].Name)
	assert.Equal(t, "Retro Disco", popular[2].Name)

	assert.Equal(t, themes, SortThemes(themes, SortDefault))
	assert.Equal(t, "Retro Disco", themes[0].Name)
}
