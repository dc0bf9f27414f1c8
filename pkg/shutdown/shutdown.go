// Package shutdown drains the serve command: registered steps run newest
// first under one shared deadline once a signal arrives.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/psantana5/fnenhance/internal/observe"
	"github.com/psantana5/fnenhance/pkg/logging"
)

// StepFunc releases one resource before the deadline in ctx
type StepFunc func(ctx context.Context) error

type step struct {
	name string
	run  StepFunc
}

// Manager collects cleanup steps for a process.
type Manager struct {
	mu      sync.Mutex
	steps   []step
	timeout time.Duration
	logger  *logging.Logger

	done chan struct{}
	once sync.Once
	err  error
}

// New returns a Manager whose steps share timeout
func New(timeout time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger.WithComponent("shutdown"),
		done:    make(chan struct{}),
	}
}

// Register appends a step. Steps registered later run first.
func (m *Manager) Register(name string, fn StepFunc) {
	m.mu.Lock()
	m.steps = append(m.steps, step{name: name, run: fn})
	m.mu.Unlock()
}

// Done is closed as soon as Shutdown starts
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Shutdown runs every step once and joins their errors. Later calls return
// the result of the first.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		close(m.done)

		m.mu.Lock()
		steps := make([]step, len(m.steps))
		copy(steps, m.steps)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		var errs []error
		for i := len(steps) - 1; i >= 0; i-- {
			s := steps[i]
			timing := observe.NewTiming()
			err := s.run(ctx)
			timing.Complete()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
				m.logger.Error("shutdown step failed", map[string]interface{}{
					"step":  s.name,
					"error": err.Error(),
				})
				continue
			}
			m.logger.Debug("shutdown step done", map[string]interface{}{
				"step":        s.name,
				"duration_ms": timing.Milliseconds(),
			})
		}
		m.err = errors.Join(errs...)
		m.logger.Info("graceful shutdown complete", map[string]interface{}{
			"steps":  len(steps),
			"failed": len(errs),
		})
	})
	return m.err
}

// WaitWithContext blocks until SIGINT, SIGTERM or the end of ctx and then
// calls Shutdown. It returns ctx.Err(), which is nil when a signal fired.
func (m *Manager) WaitWithContext(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	if ctx.Err() == nil {
		m.logger.Info("signal received, draining")
	}
	if err := m.Shutdown(); err != nil {
		m.logger.Warn("shutdown finished with errors", map[string]interface{}{"error": err.Error()})
	}
	return ctx.Err()
}

// StopHTTPServer adapts http.Server.Shutdown into a step
func StopHTTPServer(server interface{ Shutdown(context.Context) error }, name string) StepFunc {
	return func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("stop %s server: %w", name, err)
		}
		return nil
	}
}

// CloseResource adapts an io.Closer into a step
func CloseResource(closer interface{ Close() error }, name string) StepFunc {
	return func(context.Context) error {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		return nil
	}
}
