package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/psantana5/fnenhance/pkg/logging"
)

type fakeCloser struct{ err error }

func (f fakeCloser) Close() error { return f.err }

type fakeServer struct{ stopped bool }

func (s *fakeServer) Shutdown(context.Context) error {
	s.stopped = true
	return nil
}

func TestShutdown_RunsInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	assert.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"third", "second", "first"}, order)

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdown_OnlyOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("count", func(context.Context) error { calls++; return nil })

	boom := errors.New("boom")
	m.Register("fail", func(context.Context) error { return boom })

	first := m.Shutdown()
	assert.ErrorIs(t, first, boom)
	assert.Equal(t, first, m.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestShutdown_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := New(time.Second, logging.FromZap(zap.New(core)))

	srv := &fakeServer{}
	m.Register("http", StopHTTPServer(srv, "metrics"))
	m.Register("store", CloseResource(fakeCloser{err: errors.New("disk gone")}, "store"))

	err := m.Shutdown()
	require.Error(t, err)
	assert.EqualError(t, err, "store: close store: disk gone")
	assert.True(t, srv.stopped)

	failed := logs.FilterMessage("shutdown step failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "store", failed[0].ContextMap()["step"])
	assert.Contains(t, failed[0].ContextMap()["error"], "close store: disk gone")

	done := logs.FilterMessage("shutdown step done").All()
	require.Len(t, done, 1)
	assert.Equal(t, "http", done[0].ContextMap()["step"])
}

func TestWaitWithContext_CancelledContextStillShutsDown(t *testing.T) {
	m := New(time.Second, nil)
	ran := false
	m.Register("flag", func(context.Context) error { ran = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.WaitWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, ran)
}
