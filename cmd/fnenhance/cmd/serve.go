package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/fnenhance/internal/calculator"
	"github.com/psantana5/fnenhance/pkg/api"
	"github.com/psantana5/fnenhance/pkg/auth"
	"github.com/psantana5/fnenhance/pkg/enhance"
	"github.com/psantana5/fnenhance/pkg/middleware"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/ratelimit"
	"github.com/psantana5/fnenhance/pkg/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the enhanced calculator and its records over HTTP",
	Long: `Starts an HTTP server exposing:

  POST /operations/{name}  invoke an enhanced operation ({"args": [...], "kwargs": {...}})
  GET  /operations         list invokable operations
  GET  /snapshot           performance samples, failures and history (?format=json|yaml|table)
  GET  /history            enhancement ledger
  GET  /failures           recent failures (?limit=n)
  GET  /metrics            Prometheus metrics
  GET  /healthz            liveness

When api_key is configured every endpoint except /healthz and /metrics
requires "Authorization: Bearer <key>".

Example:
  fnenhance serve --listen :9000
  FNENHANCE_API_KEY=s3cret FNENHANCE_THROTTLE_RPS=5 fnenhance serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().Float64("throttle-rps", 0, "calls per second admitted to the calculator (0 disables)")
	serveCmd.Flags().Int("throttle-burst", 1, "calculator throttle burst")
	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("throttle_rps", serveCmd.Flags().Lookup("throttle-rps"))
	viper.BindPFlag("throttle_burst", serveCmd.Flags().Lookup("throttle-burst"))
}

// calculatorBehaviors is the served pipeline, innermost first
func calculatorBehaviors(s Settings) []enhance.Behavior {
	behaviors := []enhance.Behavior{
		enhance.Logging(),
		enhance.Validate(calculator.Rules()),
		enhance.Caching(),
		enhance.Retry(s.MaxRetries),
	}
	if s.ThrottleRPS > 0 {
		behaviors = append(behaviors, enhance.Throttle(s.ThrottleRPS, s.ThrottleBurst))
	}
	return append(behaviors, enhance.Envelope())
}

// newServer builds the router with all middleware and registered
// operations.
func newServer(rt *runtime) (http.Handler, error) {
	handler := api.NewHandler(rt.enhancer, rt.registry, rt.logger)

	calc, err := rt.enhancer.Enhance(calculator.New(), calculatorBehaviors(rt.settings)...)
	if err != nil {
		return nil, fmt.Errorf("failed to enhance calculator: %w", err)
	}
	handler.Register(calc)

	traced, err := rt.enhancer.Enhance(rawCalculator(), enhance.Logging())
	if err != nil {
		return nil, fmt.Errorf("failed to enhance raw calculator: %w", err)
	}
	handler.Register(traced)

	router := mux.NewRouter()
	router.Use(middleware.RequestID(rt.logger))
	if rt.settings.HTTPRPS > 0 {
		limiter := ratelimit.NewLimiter(rt.settings.HTTPRPS, int(rt.settings.HTTPRPS*2))
		router.Use(limiter.Middleware(ratelimit.IPKeyFunc))
	}
	if rt.settings.APIKey != "" {
		verifier, err := auth.NewKeyVerifier(rt.settings.APIKey)
		if err != nil {
			return nil, err
		}
		router.Use(auth.Middleware(verifier, "/healthz", "/metrics"))
	}
	handler.RegisterRoutes(router)
	return router, nil
}

// rawCalculator is the calculator without validation or envelope, so
// failures surface as HTTP status codes.
func rawCalculator() operation.Operation {
	op := calculator.New()
	op.Name = "raw_calculator"
	return op
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := LoadSettings()
	if err != nil {
		return err
	}
	rt, err := newRuntime(settings, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	router, err := newServer(rt)
	if err != nil {
		rt.close(context.Background())
		return err
	}

	srv := &http.Server{
		Addr:         settings.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	mgr := shutdown.New(15*time.Second, rt.logger)
	mgr.Register("telemetry", func(ctx context.Context) error {
		rt.close(ctx)
		return nil
	})
	mgr.Register("http", shutdown.StopHTTPServer(srv, "api"))

	rt.logger.Info("server listening", map[string]interface{}{
		"addr":       settings.ListenAddr,
		"operations": []string{calculator.Name, "raw_calculator"},
	})
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		mgr.WaitWithContext(ctx)
		close(stopped)
	}()

	select {
	case err := <-serveErr:
		cancel()
		<-stopped
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-stopped:
	}
	return nil
}
