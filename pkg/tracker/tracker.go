// Package tracker is the process-wide registry of performance samples and
// failure counts that every enhancer reports into.
package tracker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/psantana5/fnenhance/pkg/logging"
)

// Sample is the most recent timing of one operation. Immutable once recorded.
type Sample struct {
	Operation string        `json:"operation" yaml:"operation"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
}

// Tracker holds the latest sample per operation name and an error counter.
// A retraced name overwrites its previous sample.
type Tracker struct {
	mu       sync.RWMutex
	samples  map[string]Sample
	errors   atomic.Uint64
	failures *FailureLog
	logger   *logging.Logger
	now      func() time.Time
}

// New creates a tracker
func New(logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		samples:  make(map[string]Sample),
		failures: NewFailureLog(DefaultFailureLogSize),
		logger:   logger.WithComponent("tracker"),
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// RecordSample stores the duration for name, replacing any earlier sample
func (t *Tracker) RecordSample(name string, d time.Duration) {
	t.mu.Lock()
	sample := Sample{Operation: name, Duration: d, Timestamp: t.now()}
	t.samples[name] = sample
	t.mu.Unlock()

	t.logger.Info("performance sample recorded", map[string]interface{}{
		"operation":   name,
		"duration_ms": float64(d.Microseconds()) / 1000,
	})
}

// IncrementErrors bumps the failure counter
func (t *Tracker) IncrementErrors() {
	n := t.errors.Add(1)
	t.logger.Warn("operation failure counted", map[string]interface{}{"error_count": n})
}

// Errors returns the failure counter
func (t *Tracker) Errors() uint64 {
	return t.errors.Load()
}

// Snapshot returns a copy of all current samples
func (t *Tracker) Snapshot() map[string]Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Sample, len(t.samples))
	for k, v := range t.samples {
		out[k] = v
	}
	return out
}

// Durations maps each operation to its most recent duration
func (t *Tracker) Durations() map[string]time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]time.Duration, len(t.samples))
	for k, v := range t.samples {
		out[k] = v.Duration
	}
	return out
}
