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
	"time"

	"go.uber.org/zap"
)

// ErrCircuitBreakerOpen is returned when the circuit breaker is open
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	// CircuitClosed means calls pass through
	CircuitClosed CircuitState = iota
	// CircuitOpen means calls fail fast
	CircuitOpen
	// CircuitHalfOpen means a single probe call is allowed
	CircuitHalfOpen
)

// String returns the string representation of the circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for circuit breaker behavior
type CircuitBreakerConfig struct {
	Name          string
	MaxFailures   int
	ResetTimeout  time.Duration
	IsFailureFunc func(error) bool
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:          name,
		MaxFailures:   5,
		ResetTimeout:  30 * time.Second,
		IsFailureFunc: DefaultIsFailureFunc,
	}
}

// DefaultIsFailureFunc counts every error except a caller's cancellation
func DefaultIsFailureFunc(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// CircuitBreakerStats holds statistics about circuit breaker performance
type CircuitBreakerStats struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Failures        int       `json:"consecutive_failures"`
	SuccessfulReqs  int       `json:"successful_requests"`
	FailedReqs      int       `json:"failed_requests"`
	RejectedReqs    int       `json:"rejected_requests"`
	LastFailureTime time.Time `json:"last_failure_time"`
	StateChanged    time.Time `json:"state_changed"`
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger *zap.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           CircuitState
	probing         bool
	failures        int
	successfulReqs  int
	failedReqs      int
	rejectedReqs    int
	lastFailureTime time.Time
	stateChanged    time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 1
	}
	if config.IsFailureFunc == nil {
		config.IsFailureFunc = DefaultIsFailureFunc
	}

	cb := &CircuitBreaker{
		config:       config,
		logger:       logger,
		now:          time.Now,
		state:        CircuitClosed,
		stateChanged: time.Now(),
	}

	logger.Info("Circuit breaker created",
		zap.String("name", config.Name),
		zap.Int("max_failures", config.MaxFailures),
		zap.Duration("reset_timeout", config.ResetTimeout))

	return cb
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// allow decides whether a call may proceed and moves open to half-open once
// the reset timeout has passed
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.stateChanged) < cb.config.ResetTimeout {
			cb.rejectedReqs++
			return false
		}
		cb.setState(CircuitHalfOpen)
		cb.probing = true
		return true
	case CircuitHalfOpen:
		if cb.probing {
			cb.rejectedReqs++
			return false
		}
		cb.probing = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false

	// Errors the classifier rejects neither count nor reset the failure run
	if err != nil && !cb.config.IsFailureFunc(err) {
		return
	}

	if err == nil {
		cb.successfulReqs++
		cb.failures = 0
		if cb.state != CircuitClosed {
			cb.setState(CircuitClosed)
		}
		return
	}

	cb.failures++
	cb.failedReqs++
	cb.lastFailureTime = cb.now()

	cb.logger.Debug("Circuit breaker recorded failure",
		zap.String("name", cb.config.Name),
		zap.Error(err),
		zap.Int("failures", cb.failures))

	if cb.state == CircuitHalfOpen || cb.failures >= cb.config.MaxFailures {
		if cb.state != CircuitOpen {
			cb.setState(CircuitOpen)
		}
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(newState CircuitState) {
	oldState := cb.state
	cb.state = newState
	cb.stateChanged = cb.now()

	cb.logger.Info("Circuit breaker state changed",
		zap.String("name", cb.config.Name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failures", cb.failures))

	if cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(oldState, newState)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns current statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		Name:            cb.config.Name,
		State:           cb.state.String(),
		Failures:        cb.failures,
		SuccessfulReqs:  cb.successfulReqs,
		FailedReqs:      cb.failedReqs,
		RejectedReqs:    cb.rejectedReqs,
		LastFailureTime: cb.lastFailureTime,
		StateChanged:    cb.stateChanged,
	}
}

// Reset manually closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.logger.Info("Circuit breaker manually reset", zap.String("name", cb.config.Name))
	cb.failures = 0
	cb.probing = false
	if cb.state != CircuitClosed {
		cb.setState(CircuitClosed)
	}
}
