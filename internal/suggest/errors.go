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
	"errors"
	"fmt"

	"github.com/your-org/event-planner-assistant/internal/model"
)

// ErrSuggestionUnavailable is returned when the fallback catalog has no entry
// for the requested event type. It is the only terminal failure after a
// request has passed validation.
var ErrSuggestionUnavailable = errors.New("suggestions are unavailable for this event type")

// ParseFailure reports generated text that could not be turned into a
// candidate value
type ParseFailure struct {
	Kind   model.Kind
	Reason string
	Err    error
}

func (e *ParseFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failure for %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse failure for %s: %s", e.Kind, e.Reason)
}

// Unwrap returns the underlying decode error, if any
func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// ValidationFailure reports a parsed candidate that does not satisfy the
// schema for its kind. Index is the offending element, or -1 when the
// candidate as a whole is unusable.
type ValidationFailure struct {
	Kind   model.Kind
	Index  int
	Reason string
}

func (e *ValidationFailure) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s item %d: %s", e.Kind, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
}
