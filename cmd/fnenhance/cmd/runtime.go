package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/psantana5/fnenhance/pkg/enhance"
	"github.com/psantana5/fnenhance/pkg/logging"
	"github.com/psantana5/fnenhance/pkg/tracing"
)

const serviceName = "fnenhance"

// runtime is what every command needs: one logger, tracer, enhancer and
// metrics registry sharing a single tracker and ledger.
type runtime struct {
	settings Settings
	logger   *logging.Logger
	tracing  *tracing.Provider
	enhancer *enhance.Enhancer
	registry *prometheus.Registry
}

func newRuntime(s Settings, logOut io.Writer) (*runtime, error) {
	logger := logging.NewWithWriter(logOut, logging.ParseLevel(s.LogLevel), s.LogJSON)

	provider, err := tracing.InitTracer(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTLPEndpoint:   s.OTLPEndpoint,
		Insecure:       s.OTLPInsecure,
		SampleRatio:    s.SampleRatio,
		Enabled:        s.OTLPEndpoint != "",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	e := enhance.New(
		enhance.WithLogger(logger),
		enhance.WithTracer(provider.Tracer()),
		enhance.WithRetryDelay(s.RetryDelay),
	)

	registry := prometheus.NewRegistry()
	if err := registry.Register(e.Tracker().Collector()); err != nil {
		return nil, fmt.Errorf("failed to register tracker collector: %w", err)
	}

	return &runtime{
		settings: s,
		logger:   logger,
		tracing:  provider,
		enhancer: e,
		registry: registry,
	}, nil
}

func (r *runtime) close(ctx context.Context) {
	if err := r.tracing.Shutdown(ctx); err != nil {
		r.logger.Warn("tracer shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	r.logger.Sync()
}
