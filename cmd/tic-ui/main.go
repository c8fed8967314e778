package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tic-iptv/tic-ui/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting tic-ui frontend core",
		"authority_base_url", cfg.Authority.BaseURL,
		"storage_backend", string(cfg.Storage.Backend),
		"gateway_addr", cfg.Gateway.Addr,
		"dev_mode", cfg.IsDev)

	store, closeStore, err := bootstrap.BuildStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.ErrorContext(ctx, "close store failed", "error", cerr)
		}
	}()

	comps := bootstrap.NewComponents(ctx, bootstrap.ComponentDeps{
		Config: cfg,
		Store:  store,
		Logger: logger,
	})

	return bootstrap.Run(ctx, cfg, comps, logger)
}
