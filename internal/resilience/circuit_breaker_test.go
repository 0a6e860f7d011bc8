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
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(maxFailures int) (*CircuitBreaker, *fakeClock) {
	config := DefaultCircuitBreakerConfig("generation")
	config.MaxFailures = maxFailures
	config.ResetTimeout = time.Minute

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(config, zap.NewNop())
	cb.now = clock.Now
	cb.stateChanged = clock.Now()
	return cb, clock
}

var errUpstream = errors.New("upstream error (status 502)")

func fail(context.Context) error    { return errUpstream }
func succeed(context.Context) error { return nil }

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"), nil)

	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected initial state to be closed, got %v", cb.GetState())
	}
	if stats := cb.GetStats(); stats.Name != "test" || stats.State != "closed" {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(2)
	ctx := context.Background()

	if err := cb.Execute(ctx, fail); !errors.Is(err, errUpstream) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected closed after one failure, got %v", cb.GetState())
	}

	_ = cb.Execute(ctx, fail)
	if cb.GetState() != CircuitOpen {
		t.Fatalf("Expected open after two failures, got %v", cb.GetState())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected ErrCircuitBreakerOpen, got %v", err)
	}
	if called {
		t.Error("Function should not run while the circuit is open")
	}
	if stats := cb.GetStats(); stats.RejectedReqs != 1 || stats.FailedReqs != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)

	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected closed, non-consecutive failures should not open the circuit")
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	if cb.GetState() != CircuitOpen {
		t.Fatalf("Expected open, got %v", cb.GetState())
	}

	clock.Advance(time.Minute)

	// Failed probe reopens the circuit
	_ = cb.Execute(ctx, fail)
	if cb.GetState() != CircuitOpen {
		t.Fatalf("Expected open after failed probe, got %v", cb.GetState())
	}
	if err := cb.Execute(ctx, succeed); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected reset timeout to restart after failed probe, got %v", err)
	}

	clock.Advance(time.Minute)

	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("Expected probe to succeed, got %v", err)
	}
	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected closed after successful probe, got %v", cb.GetState())
	}
}

func TestCircuitBreakerSingleProbe(t *testing.T) {
	cb, clock := newTestBreaker(1)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.Advance(2 * time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := cb.Execute(ctx, succeed); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Errorf("Expected concurrent call to be rejected during probe, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("Probe failed: %v", err)
	}
	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected closed, got %v", cb.GetState())
	}
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	cb, _ := newTestBreaker(1)

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if cb.GetState() != CircuitClosed {
		t.Errorf("Caller cancellation should not open the circuit")
	}

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.DeadlineExceeded })
	if cb.GetState() != CircuitOpen {
		t.Errorf("Deadline exceeded should count as a failure")
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb, _ := newTestBreaker(1)
	_ = cb.Execute(context.Background(), fail)

	cb.Reset()

	if cb.GetState() != CircuitClosed {
		t.Errorf("Expected closed after reset, got %v", cb.GetState())
	}
	if err := cb.Execute(context.Background(), succeed); err != nil {
		t.Errorf("Expected call to pass after reset, got %v", err)
	}
}
