// Package firstrun orchestrates initial application setup: waiting for the
// bundled TVHeadend process to come up, confirming the authority is
// healthy, then recording the completed first run so later starts skip the
// whole dance.
package firstrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
)

// Authority is the slice of the authority client the runner consumes.
type Authority interface {
	GetSettings(ctx context.Context, token string) (authority.Settings, error)
	SaveSettings(ctx context.Context, token string, settings map[string]any) error
	TVHRunning(ctx context.Context, token string) (bool, error)
	Ping(ctx context.Context) error
}

// TokenSource supplies the current bearer token for settings calls.
type TokenSource interface {
	Token() string
}

// Options bundles dependencies for NewRunner.
type Options struct {
	Authority Authority
	Tokens    TokenSource
	Config    config.FirstRunConfig
	Logger    *slog.Logger

	// AppURL is recorded in the authority settings when first run
	// completes, so the backend can address this frontend later.
	AppURL string

	// PingTimeout bounds each individual health probe. Defaults to 4s.
	PingTimeout time.Duration

	// OnStatus receives human-readable progress messages.
	OnStatus func(message string)

	// Reload is invoked after first run completes; the host restarts the
	// frontend against the now-configured backend.
	Reload func()
}

// Runner drives the first-run sequence.
type Runner struct {
	authority   Authority
	tokens      TokenSource
	cfg         config.FirstRunConfig
	logger      *slog.Logger
	appURL      string
	pingTimeout time.Duration
	onStatus    func(string)
	reload      func()
}

// NewRunner creates a runner from options.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 4 * time.Second
	}
	return &Runner{
		authority:   opts.Authority,
		tokens:      opts.Tokens,
		cfg:         opts.Config,
		logger:      logger,
		appURL:      opts.AppURL,
		pingTimeout: pingTimeout,
		onStatus:    opts.OnStatus,
		reload:      opts.Reload,
	}
}

// Run inspects the authority settings and, on a first run, walks the
// setup sequence to completion. On an already-configured system it returns
// after a single process probe.
func (r *Runner) Run(ctx context.Context) error {
	settings, err := r.authority.GetSettings(ctx, r.token())
	if err != nil {
		return fmt.Errorf("fetch settings: %w", err)
	}
	if !settings.FirstRun {
		running, err := r.authority.TVHRunning(ctx, r.token())
		if err != nil {
			r.logger.Warn("tvheadend probe failed", slog.Any("error", err))
			return nil
		}
		r.logger.Info("startup check complete", slog.Bool("tvheadend_running", running))
		return nil
	}

	r.logger.Info("first run detected, starting setup orchestration")
	for {
		if err := r.waitForProcess(ctx); err != nil {
			return err
		}
		if err := r.waitForHealth(ctx); err != nil {
			return err
		}
		if err := sleep(ctx, r.cfg.FinalizeDelay); err != nil {
			return err
		}

		r.status("Finalizing initial configuration")
		if err := r.finalize(ctx); err != nil {
			// The backend may have restarted mid-setup; go back to
			// health checking and try again.
			r.logger.Warn("finalize first run failed, retrying", slog.Any("error", err))
			continue
		}

		r.logger.Info("first run complete")
		if r.reload != nil {
			r.reload()
		}
		return nil
	}
}

// waitForProcess polls until the bundled TVHeadend process reports up.
func (r *Runner) waitForProcess(ctx context.Context) error {
	r.status("Waiting for TVHeadend to start")
	for {
		running, err := r.authority.TVHRunning(ctx, r.token())
		if err != nil {
			r.logger.Warn("tvheadend probe failed", slog.Any("error", err))
		} else if running {
			return nil
		}
		if err := sleep(ctx, r.cfg.ProbeInterval); err != nil {
			return err
		}
	}
}

// waitForHealth pings until the authority answers PONG.
func (r *Runner) waitForHealth(ctx context.Context) error {
	r.status("Waiting for the backend to become healthy")
	for {
		pingCtx, cancel := context.WithTimeout(ctx, r.pingTimeout)
		err := r.authority.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		r.logger.Debug("health probe failed", slog.Any("error", err))
		if err := sleep(ctx, r.cfg.ProbeInterval); err != nil {
			return err
		}
	}
}

func (r *Runner) finalize(ctx context.Context) error {
	return r.authority.SaveSettings(ctx, r.token(), map[string]any{
		"first_run": true,
		"app_url":   r.appURL,
	})
}

func (r *Runner) token() string {
	if r.tokens == nil {
		return ""
	}
	return r.tokens.Token()
}

func (r *Runner) status(message string) {
	if r.onStatus != nil {
		r.onStatus(message)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
