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

// Package metrics tracks how suggestions are served: generated or from the
// fallback catalog, per kind, with processing time and fallback alerts.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/event-planner-assistant/internal/health"
	"github.com/your-org/event-planner-assistant/internal/model"
	"github.com/your-org/event-planner-assistant/internal/suggest"
)

// AlertFallbackRate is the alert type raised when too many suggestions come
// from the catalog
const AlertFallbackRate = "FALLBACK_RATE_HIGH"

// SuggestionMetrics is a snapshot of the collected counters
type SuggestionMetrics struct {
	TotalRequests   int64                  `json:"total_requests"`
	Generated       int64                  `json:"generated"`
	Fallback        int64                  `json:"fallback"`
	Unavailable     int64                  `json:"unavailable"`
	Rejected        int64                  `json:"rejected"`
	FallbackRate    float64                `json:"fallback_rate"`
	AvgProcessingMs float64                `json:"average_processing_time_ms"`
	ByKind          map[string]KindMetrics `json:"by_kind"`
	LastReset       time.Time              `json:"last_reset"`
}

// KindMetrics tracks one suggestion kind
type KindMetrics struct {
	Served       int64   `json:"served"`
	Generated    int64   `json:"generated"`
	Fallback     int64   `json:"fallback"`
	FallbackRate float64 `json:"fallback_rate"`
}

// AlertingConfig defines thresholds for alerting
type AlertingConfig struct {
	FallbackRateThreshold float64 `json:"fallback_rate_threshold"`
	MinRequests           int64   `json:"min_requests"`
}

// Collector records suggestion outcomes. It is safe for concurrent use.
type Collector struct {
	mu            sync.RWMutex
	metrics       SuggestionMetrics
	alerting      AlertingConfig
	alerted       bool
	logger        *zap.Logger
	alertCallback func(alertType, message string, metadata map[string]interface{})
}

// NewCollector creates a collector. alertCallback may be nil.
func NewCollector(logger *zap.Logger, alertCallback func(string, string, map[string]interface{})) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		metrics: newSuggestionMetrics(),
		alerting: AlertingConfig{
			FallbackRateThreshold: 0.5,
			MinRequests:           10,
		},
		logger:        logger,
		alertCallback: alertCallback,
	}
}

func newSuggestionMetrics() SuggestionMetrics {
	return SuggestionMetrics{
		ByKind:    make(map[string]KindMetrics),
		LastReset: time.Now(),
	}
}

// Record adds the outcome of one suggestion request
func (c *Collector) Record(kind model.Kind, result *model.Result, err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &c.metrics
	prevTotal := m.TotalRequests
	m.TotalRequests++

	m.AvgProcessingMs = (m.AvgProcessingMs*float64(prevTotal) + float64(elapsed.Milliseconds())) / float64(m.TotalRequests)

	switch {
	case err != nil && errors.Is(err, suggest.ErrSuggestionUnavailable):
		m.Unavailable++
		return
	case err != nil:
		m.Rejected++
		return
	case result == nil:
		return
	}

	km := m.ByKind[string(kind)]
	km.Served++
	if result.Provenance == model.ProvenanceGenerated {
		m.Generated++
		km.Generated++
	} else {
		m.Fallback++
		km.Fallback++
	}
	km.FallbackRate = float64(km.Fallback) / float64(km.Served)
	m.ByKind[string(kind)] = km

	served := m.Generated + m.Fallback
	m.FallbackRate = float64(m.Fallback) / float64(served)

	c.checkAlert(served)
}

// checkAlert must be called with mu held. It fires once per threshold crossing.
func (c *Collector) checkAlert(served int64) {
	over := served >= c.alerting.MinRequests && c.metrics.FallbackRate > c.alerting.FallbackRateThreshold
	if !over {
		c.alerted = false
		return
	}
	if c.alerted {
		return
	}
	c.alerted = true

	metadata := map[string]interface{}{
		"fallback_rate": c.metrics.FallbackRate,
		"threshold":     c.alerting.FallbackRateThreshold,
		"served":        served,
	}
	if c.alertCallback != nil {
		c.alertCallback(AlertFallbackRate, "Fallback rate exceeded threshold", metadata)
	}
	c.logger.Warn("Suggestion alert triggered",
		zap.String("alert_type", AlertFallbackRate),
		zap.Any("metadata", metadata))
}

// Snapshot returns a copy of the current metrics
func (c *Collector) Snapshot() SuggestionMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := c.metrics
	snapshot.ByKind = make(map[string]KindMetrics, len(c.metrics.ByKind))
	for k, v := range c.metrics.ByKind {
		snapshot.ByKind[k] = v
	}
	return snapshot
}

// Reset clears all counters
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics = newSuggestionMetrics()
	c.alerted = false
	c.logger.Info("Suggestion metrics reset")
}

// Check reports the collector as a health dependency. A high fallback rate
// is degraded, never unhealthy, since fallback answers are still served.
func (c *Collector) Check(_ context.Context) health.CheckResult {
	snapshot := c.Snapshot()
	served := snapshot.Generated + snapshot.Fallback

	result := health.CheckResult{
		Status: health.StatusHealthy,
		Metadata: map[string]interface{}{
			"served":        served,
			"fallback_rate": snapshot.FallbackRate,
		},
	}
	if served >= c.alerting.MinRequests && snapshot.FallbackRate > c.alerting.FallbackRateThreshold {
		result.Status = health.StatusDegraded
		result.Error = "most suggestions are served from the fallback catalog"
	}
	return result
}

// Handler serves the current snapshot as JSON
func (c *Collector) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Snapshot())
	}
}

// Suggester is the operation being measured
type Suggester interface {
	Suggest(ctx context.Context, req model.Request) (*model.Result, error)
}

type instrumented struct {
	next      Suggester
	collector *Collector
}

// Instrument records every call of next in collector
func Instrument(next Suggester, collector *Collector) Suggester {
	return &instrumented{next: next, collector: collector}
}

func (s *instrumented) Suggest(ctx context.Context, req model.Request) (*model.Result, error) {
	start := time.Now()
	result, err := s.next.Suggest(ctx, req)
	s.collector.Record(req.Kind, result, err, time.Since(start))
	return result, err
}
