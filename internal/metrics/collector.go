package metrics

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/oshokin/vcpkg-artifacts/internal/logger"
)

// StringMetric names a string-valued metric.
type StringMetric string

// String metrics reported by the artifacts delegate.
const (
	AcquiredArtifacts  StringMetric = "acquired_artifacts"
	ActivatedArtifacts StringMetric = "activated_artifacts"
)

// Collector accumulates metrics for one process run.
type Collector struct {
	mu      sync.Mutex
	enabled bool
	strings map[StringMetric]string
}

// NewCollector returns a collector. A disabled collector drops everything.
func NewCollector(enabled bool) *Collector {
	return &Collector{
		enabled: enabled,
		strings: make(map[StringMetric]string),
	}
}

// Enabled reports whether metrics are collected.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}

	return c.enabled
}

// TrackString records a string metric; the last value wins.
func (c *Collector) TrackString(name StringMetric, value string) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.strings[name] = value
}

// Strings returns a snapshot of the recorded string metrics.
func (c *Collector) Strings() map[StringMetric]string {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.strings)
}

// Flush hands the recorded metrics off and resets the collector.
// Each metric is handed off as a debug log entry.
func (c *Collector) Flush(ctx context.Context) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	snapshot := c.strings
	c.strings = make(map[StringMetric]string)
	c.mu.Unlock()

	names := make([]StringMetric, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		logger.DebugKV(ctx, "Metric", "name", string(name), "value", snapshot[name])
	}
}
