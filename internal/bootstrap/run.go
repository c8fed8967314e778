package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tic-iptv/tic-ui/config"
)

// Run starts the gateway server and the enabled background services, then
// blocks until a shutdown signal arrives or a service fails. The HTTP
// server is drained within the configured shutdown timeout.
func Run(ctx context.Context, cfg config.AppConfig, comps *Components, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Gateway.Addr,
		Handler:           comps.Router,
		ReadHeaderTimeout: cfg.Gateway.ReadHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gateway listening", slog.String("addr", cfg.Gateway.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		return nil
	})

	if cfg.Tasks.Enabled {
		g.Go(func() error {
			if err := comps.Poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("task poller: %w", err)
			}
			return nil
		})
	}

	if cfg.FirstRun.Enabled {
		g.Go(func() error {
			if err := comps.FirstRun.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				// Startup orchestration failing must not take the whole
				// frontend down; the UI still works against a configured
				// backend.
				logger.Warn("first-run orchestration failed", slog.Any("error", err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
