// Package ledger keeps the append-only, ordered record of which enhancement
// was applied to which operation.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one applied enhancement
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	Operation   string    `json:"operation" yaml:"operation"`
	Behavior    string    `json:"behavior" yaml:"behavior"`
	Description string    `json:"description" yaml:"description"`
	AppliedAt   time.Time `json:"applied_at" yaml:"applied_at"`
}

// Ledger is safe for concurrent appends; order is append order
type Ledger struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		records: make([]Record, 0),
		now:     time.Now,
	}
}

// Append records that behavior was applied to operation
func (l *Ledger) Append(operation, behavior, description string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		ID:          uuid.NewString(),
		Operation:   operation,
		Behavior:    behavior,
		Description: description,
		AppliedAt:   l.now(),
	}
	l.records = append(l.records, rec)
	return rec
}

// Appendf is Append with a formatted description
func (l *Ledger) Appendf(operation, behavior, format string, args ...any) Record {
	return l.Append(operation, behavior, fmt.Sprintf(format, args...))
}

// History returns a copy of all records in append order
func (l *Ledger) History() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Descriptions returns the description of every record in append order
func (l *Ledger) Descriptions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Description
	}
	return out
}

// Len returns the number of records
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
