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

// Package health provides the service health report
package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/resilience"
)

const (
	// StatusHealthy represents healthy status
	StatusHealthy = "healthy"
	// StatusUnhealthy represents unhealthy status
	StatusUnhealthy = "unhealthy"
	// StatusDegraded represents degraded status
	StatusDegraded = "degraded"
	// DefaultTimeout is the default timeout for health checks
	DefaultTimeout = 5 * time.Second
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Status    string                 `json:"status"`
	Latency   time.Duration          `json:"latency"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Response represents the complete health check response
type Response struct {
	Status       string                 `json:"status"`
	Service      string                 `json:"service"`
	Version      string                 `json:"version"`
	Uptime       string                 `json:"uptime"`
	Dependencies map[string]CheckResult `json:"dependencies"`
	Metadata     map[string]interface{} `json:"metadata"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) CheckResult
}

// CheckerFunc is a function adapter for the Checker interface
type CheckerFunc func(ctx context.Context) CheckResult

// Check implements the Checker interface
func (f CheckerFunc) Check(ctx context.Context) CheckResult {
	return f(ctx)
}

// Manager manages health checks for a service
type Manager struct {
	serviceName string
	version     string
	startTime   time.Time
	timeout     time.Duration
	logger      *zap.Logger

	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewManager creates a new health check manager
func NewManager(serviceName, version string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		checkers:    make(map[string]Checker),
		timeout:     DefaultTimeout,
		logger:      logger,
	}
}

// AddChecker registers a named health checker
func (m *Manager) AddChecker(name string, checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = checker
}

// Check runs every checker concurrently and aggregates the results
func (m *Manager) Check(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = m.checkers[name]
	}
	m.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()
			start := time.Now()
			result := checker.Check(ctx)
			result.Latency = time.Since(start)
			result.Timestamp = time.Now()
			results[i] = result
		}(i, checker)
	}
	wg.Wait()

	dependencies := make(map[string]CheckResult, len(names))
	overallStatus := StatusHealthy
	for i, name := range names {
		result := results[i]
		dependencies[name] = result

		switch {
		case result.Status == StatusUnhealthy:
			overallStatus = StatusUnhealthy
		case result.Status == StatusDegraded && overallStatus != StatusUnhealthy:
			overallStatus = StatusDegraded
		}
	}

	return Response{
		Status:       overallStatus,
		Service:      m.serviceName,
		Version:      m.version,
		Uptime:       time.Since(m.startTime).Round(time.Second).String(),
		Dependencies: dependencies,
		Metadata: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Timestamp: time.Now().UTC(),
	}
}

// Handler returns the gin handler for GET /health. Degraded still answers 200.
func (m *Manager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := m.Check(c.Request.Context())

		statusCode := http.StatusOK
		if result.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
			m.logger.Warn("Health check failed", zap.Any("dependencies", result.Dependencies))
		}

		c.JSON(statusCode, result)
	}
}

// StoreChecker reports the session store as unhealthy when ping fails
func StoreChecker(storageType string, ping func(ctx context.Context) error) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{
				Status: StatusUnhealthy,
				Error:  fmt.Sprintf("session store ping failed: %v", err),
			}
		}
		return CheckResult{
			Status:   StatusHealthy,
			Metadata: map[string]interface{}{"storage_type": storageType},
		}
	})
}

// GeneratorChecker reports generation as degraded while the circuit is open or
// generation is disabled. Suggestions are still served from the catalog.
func GeneratorChecker(enabled bool, model string, breaker *resilience.CircuitBreaker) Checker {
	return CheckerFunc(func(context.Context) CheckResult {
		metadata := map[string]interface{}{"enabled": enabled, "model": model}
		if !enabled {
			return CheckResult{Status: StatusDegraded, Error: "generation disabled, serving catalog suggestions", Metadata: metadata}
		}
		if breaker == nil {
			return CheckResult{Status: StatusHealthy, Metadata: metadata}
		}

		stats := breaker.GetStats()
		metadata["circuit"] = stats
		if stats.State != resilience.CircuitClosed.String() {
			return CheckResult{Status: StatusDegraded, Error: "circuit breaker is " + stats.State, Metadata: metadata}
		}
		return CheckResult{Status: StatusHealthy, Metadata: metadata}
	})
}

// CatalogChecker reports the number of event types with fallback content
func CatalogChecker(eventTypes func() []string) Checker {
	return CheckerFunc(func(context.Context) CheckResult {
		types := eventTypes()
		if len(types) == 0 {
			return CheckResult{Status: StatusUnhealthy, Error: "fallback catalog is empty"}
		}
		return CheckResult{
			Status:   StatusHealthy,
			Metadata: map[string]interface{}{"event_types": types},
		}
	})
}
