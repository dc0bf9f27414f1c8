package tracker

import (
	"fmt"
	"sync"
	"time"
)

// DefaultFailureLogSize is how many failures a tracker keeps for inspection
const DefaultFailureLogSize = 50

// Failure is one failed traced invocation
type Failure struct {
	Operation string        `json:"operation" yaml:"operation"`
	Error     string        `json:"error" yaml:"error"`
	ErrorType string        `json:"error_type" yaml:"error_type"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
}

// FailureLog is a fixed-size ring buffer of recent failures
type FailureLog struct {
	samples []Failure
	maxSize int
	mu      sync.RWMutex
}

// NewFailureLog creates a failure log holding at most maxSize entries
func NewFailureLog(maxSize int) *FailureLog {
	if maxSize < 1 {
		maxSize = 1
	}
	return &FailureLog{
		samples: make([]Failure, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a failure, dropping the oldest when full
func (l *FailureLog) Record(f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.samples) >= l.maxSize {
		l.samples = l.samples[1:]
	}
	l.samples = append(l.samples, f)
}

// Recent returns up to n failures, newest first. n <= 0 returns all.
func (l *FailureLog) Recent(n int) []Failure {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.samples) {
		n = len(l.samples)
	}
	out := make([]Failure, n)
	for i := 0; i < n; i++ {
		out[i] = l.samples[len(l.samples)-1-i]
	}
	return out
}

// Len returns how many failures are currently held
func (l *FailureLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.samples)
}

// RecordFailure counts a failed invocation of name and keeps it in the
// recent-failures log.
func (t *Tracker) RecordFailure(name string, err error, d time.Duration) {
	t.mu.RLock()
	now := t.now()
	t.mu.RUnlock()

	f := Failure{Operation: name, Duration: d, Timestamp: now}
	if err != nil {
		f.Error = err.Error()
		f.ErrorType = fmt.Sprintf("%T", err)
	}
	t.failures.Record(f)
	t.IncrementErrors()
}

// RecentFailures returns up to n recorded failures, newest first
func (t *Tracker) RecentFailures(n int) []Failure {
	return t.failures.Recent(n)
}
