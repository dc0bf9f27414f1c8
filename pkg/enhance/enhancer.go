package enhance

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/psantana5/fnenhance/pkg/ledger"
	"github.com/psantana5/fnenhance/pkg/logging"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/tracker"
)

// DefaultRetryDelay is the fixed wait between failed attempts
const DefaultRetryDelay = time.Second

// ErrInvalidConfig is returned when a behavior is configured with values it
// cannot honor
var ErrInvalidConfig = errors.New("invalid enhancement config")

// Enhancer owns the shared state every behavior reports into
type Enhancer struct {
	tracker    *tracker.Tracker
	ledger     *ledger.Ledger
	logger     *logging.Logger
	tracer     trace.Tracer
	retryDelay time.Duration
	retryIf    func(error) bool
	now        func() time.Time
}

// Option configures an Enhancer
type Option func(*Enhancer)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(e *Enhancer) { e.logger = l }
}

// WithTracker shares an existing tracker
func WithTracker(t *tracker.Tracker) Option {
	return func(e *Enhancer) { e.tracker = t }
}

// WithLedger shares an existing ledger
func WithLedger(l *ledger.Ledger) Option {
	return func(e *Enhancer) { e.ledger = l }
}

// WithTracer sets the tracer used by Logging
func WithTracer(t trace.Tracer) Option {
	return func(e *Enhancer) { e.tracer = t }
}

// WithRetryDelay sets the fixed wait used by Retry
func WithRetryDelay(d time.Duration) Option {
	return func(e *Enhancer) { e.retryDelay = d }
}

// WithRetryIf sets which failures Retry re-attempts
func WithRetryIf(fn func(error) bool) Option {
	return func(e *Enhancer) { e.retryIf = fn }
}

// WithClock sets the time source for envelope timestamps and timings
func WithClock(now func() time.Time) Option {
	return func(e *Enhancer) { e.now = now }
}

// New creates an Enhancer with its own tracker and ledger unless shared ones
// are supplied
func New(opts ...Option) *Enhancer {
	e := &Enhancer{
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.WithComponent("enhance")
	if e.tracker == nil {
		e.tracker = tracker.New(e.logger)
	}
	if e.ledger == nil {
		e.ledger = ledger.New()
	}
	if e.tracer == nil {
		e.tracer = noop.NewTracerProvider().Tracer("fnenhance")
	}
	return e
}

// Tracker returns the execution tracker
func (e *Enhancer) Tracker() *tracker.Tracker {
	return e.tracker
}

// Ledger returns the enhancement ledger
func (e *Enhancer) Ledger() *ledger.Ledger {
	return e.ledger
}

// PerformanceSnapshot maps each traced operation to its most recent duration
func (e *Enhancer) PerformanceSnapshot() map[string]time.Duration {
	return e.tracker.Durations()
}

// EnhancementHistory lists applied enhancements in the order they were applied
func (e *Enhancer) EnhancementHistory() []string {
	return e.ledger.Descriptions()
}

// Behavior is one enhancement that Enhance can apply
type Behavior struct {
	name  string
	apply func(e *Enhancer, op operation.Operation) (operation.Operation, error)
}

// Name identifies the behavior in the ledger
func (b Behavior) Name() string {
	return b.name
}

// Logging traces every invocation
func Logging() Behavior {
	return Behavior{name: BehaviorLogging, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Logging(op), nil
	}}
}

// Caching memoizes successful results per argument set
func Caching() Behavior {
	return Behavior{name: BehaviorCaching, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Caching(op), nil
	}}
}

// Retry re-attempts failures up to maxRetries times
func Retry(maxRetries int) Behavior {
	return Behavior{name: BehaviorRetry, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Retry(op, maxRetries)
	}}
}

// Validate checks arguments against rules before invoking
func Validate(rules Rules) Behavior {
	return Behavior{name: BehaviorValidate, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Validate(op, rules)
	}}
}

// Envelope converts every outcome into a Response
func Envelope() Behavior {
	return Behavior{name: BehaviorEnvelope, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Envelope(op), nil
	}}
}

// Throttle limits invocations to rps per second with the given burst
func Throttle(rps float64, burst int) Behavior {
	return Behavior{name: BehaviorThrottle, apply: func(e *Enhancer, op operation.Operation) (operation.Operation, error) {
		return e.Throttle(op, rps, burst)
	}}
}

// Behavior names recorded in the ledger
const (
	BehaviorLogging  = "logging"
	BehaviorCaching  = "caching"
	BehaviorRetry    = "retry"
	BehaviorValidate = "validate"
	BehaviorEnvelope = "envelope"
	BehaviorThrottle = "throttle"
)

// Enhance applies behaviors in order, first innermost. On a configuration
// error nothing further is applied; behaviors already applied stay in the
// ledger.
func (e *Enhancer) Enhance(op operation.Operation, behaviors ...Behavior) (operation.Operation, error) {
	if op.Fn == nil {
		return op, fmt.Errorf("%w: operation %q has no function", ErrInvalidConfig, op.Name)
	}
	current := op
	for _, b := range behaviors {
		next, err := b.apply(e, current)
		if err != nil {
			return op, fmt.Errorf("apply %s to %q: %w", b.name, op.Name, err)
		}
		current = next
	}
	return current, nil
}

func (e *Enhancer) record(op operation.Operation, behavior, format string, args ...any) {
	rec := e.ledger.Appendf(op.Name, behavior, format, args...)
	e.logger.Debug("enhancement applied", map[string]interface{}{
		"operation": op.Name,
		"behavior":  behavior,
		"record_id": rec.ID,
	})
}
