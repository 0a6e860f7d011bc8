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

package openai

import (
	"github.com/tiktoken-go/tokenizer"
)

// tokenEstimator counts prompt tokens for logging. Routed models are not
// always OpenAI models, so the count is an estimate.
type tokenEstimator struct {
	codec tokenizer.Codec
}

func newTokenEstimator() *tokenEstimator {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return &tokenEstimator{}
	}
	return &tokenEstimator{codec: codec}
}

// Count returns the estimated token count, or a character based guess when
// no codec is available
func (e *tokenEstimator) Count(text string) int {
	if e == nil || e.codec == nil {
		return len(text) / 4
	}
	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
