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

package resilience

import (
	"context"

	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// GuardedGenerator routes generation calls through a circuit breaker. While
// the circuit is open calls fail immediately, which sends the orchestrator
// straight to the catalog.
type GuardedGenerator struct {
	next    suggest.Generator
	breaker *CircuitBreaker
}

// NewGuardedGenerator wraps next with breaker
func NewGuardedGenerator(next suggest.Generator, breaker *CircuitBreaker) *GuardedGenerator {
	return &GuardedGenerator{next: next, breaker: breaker}
}

// Generate implements suggest.Generator
func (g *GuardedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		text, err = g.next.Generate(ctx, prompt)
		return err
	})
	return text, err
}
