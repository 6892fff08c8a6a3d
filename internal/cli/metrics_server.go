package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const metricsShutdownTimeout = 2 * time.Second

// metricsHandler serves the CLI registry at /metrics
func (c *CLI) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return mux
}

// withMetricsServer runs fn, serving metrics alongside it when enabled. The
// server stops once fn returns; if the server fails first, fn's context is
// cancelled and the server error is returned.
func (c *CLI) withMetricsServer(ctx context.Context, fn func(context.Context) error) error {
	m := c.cfg.Metrics
	if m == nil || !m.Enabled {
		return fn(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	server := &http.Server{
		Addr:              m.Address,
		Handler:           c.metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		slog.Info("serving metrics", "address", m.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server on %s: %w", m.Address, err)
		}
		return nil
	})

	g.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer stop()
		return fn(runCtx)
	})

	return g.Wait()
}
