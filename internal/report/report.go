// Package report renders tracker and ledger state for humans and scrapers.
package report

import (
	"sort"
	"time"

	"github.com/psantana5/fnenhance/pkg/ledger"
	"github.com/psantana5/fnenhance/pkg/tracker"
)

// Report is a point-in-time view of everything the enhancers recorded.
// Samples are sorted by operation name; history keeps append order.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	ErrorCount  uint64            `json:"error_count" yaml:"error_count"`
	Samples     []tracker.Sample  `json:"samples" yaml:"samples"`
	Failures    []tracker.Failure `json:"recent_failures" yaml:"recent_failures"`
	History     []ledger.Record   `json:"history" yaml:"history"`
}

// Build captures the current state of t and l. Either may be nil.
func Build(t *tracker.Tracker, l *ledger.Ledger, now time.Time) Report {
	r := Report{
		GeneratedAt: now,
		Samples:     []tracker.Sample{},
		Failures:    []tracker.Failure{},
		History:     []ledger.Record{},
	}
	if t != nil {
		r.ErrorCount = t.Errors()
		for _, s := range t.Snapshot() {
			r.Samples = append(r.Samples, s)
		}
		sort.Slice(r.Samples, func(i, j int) bool {
			return r.Samples[i].Operation < r.Samples[j].Operation
		})
		r.Failures = t.RecentFailures(0)
	}
	if l != nil {
		r.History = l.History()
	}
	return r
}
