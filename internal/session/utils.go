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

package session

import (
	"github.com/google/uuid"
)

// GenerateSessionID generates a unique session identifier
func GenerateSessionID() string {
	return uuid.NewString()
}

// ValidateSessionID checks that a session ID is a well-formed UUID
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) != 36 {
		return false
	}
	_, err := uuid.Parse(sessionID)
	return err == nil
}
