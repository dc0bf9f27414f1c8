package enhance

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/psantana5/fnenhance/pkg/operation"
)

// memo is the cache of one Caching wrapper. Entries never expire.
type memo struct {
	mu      sync.RWMutex
	entries map[string]any
	flights singleflight.Group
}

func (m *memo) get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *memo) put(key string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
}

// Caching memoizes successful results of op keyed by the full argument set.
// Each call creates an independent cache. Concurrent calls with the same key
// share one invocation of op; failures are never stored, so the next call
// with that key invokes op again.
//
// The shared invocation keeps the values of the caller that started it but
// not its cancellation. Every caller waits on its own ctx and gives up alone;
// the flight still completes and caches for the rest.
func (e *Enhancer) Caching(op operation.Operation) operation.Operation {
	m := &memo{entries: make(map[string]any)}
	log := e.logger.WithField("operation", op.Name)

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		key := args.Key()
		if v, ok := m.get(key); ok {
			log.Debug("cache hit", map[string]interface{}{"key": key})
			return v, nil
		}

		flightCtx := context.WithoutCancel(ctx)
		ch := m.flights.DoChan(key, func() (any, error) {
			// a flight for this key may have finished between get and DoChan
			if v, ok := m.get(key); ok {
				return v, nil
			}
			v, err := op.Call(flightCtx, args)
			if err != nil {
				return nil, err
			}
			m.put(key, v)
			return v, nil
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			log.Debug("result cached", map[string]interface{}{"key": key, "shared": res.Shared})
			return res.Val, nil
		}
	})

	e.record(op, BehaviorCaching, "caching added to '%s'", op.Name)
	return wrapped
}
