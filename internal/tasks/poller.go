// Package tasks watches the authority's background task queue over its
// long-poll endpoint and publishes snapshots to the rest of the frontend.
package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
)

// TaskState classifies a task within a snapshot.
type TaskState string

const (
	StateRunning TaskState = "running"
	StateQueued  TaskState = "queued"
)

// Task is one entry in a queue snapshot.
type Task struct {
	Name  string
	State TaskState
}

// Snapshot is one observation of the authority's task queue, ready for
// display.
type Snapshot struct {
	Tasks       []Task
	QueueStatus string
}

// Source is the slice of the authority client the poller consumes.
type Source interface {
	BackgroundTasks(ctx context.Context, token string, timeout time.Duration) (authority.TasksSnapshot, error)
}

// TokenSource supplies the current bearer token for each poll.
type TokenSource interface {
	Token() string
}

// Options bundles dependencies for NewPoller.
type Options struct {
	Source Source
	Tokens TokenSource
	Config config.TasksConfig
	Logger *slog.Logger

	// OnUpdate receives every successful snapshot, in poll order.
	OnUpdate func(Snapshot)
}

// Poller runs the sequential long-poll loop. At most one request is in
// flight at any time; each request's context is cancelled before the next
// one is issued.
type Poller struct {
	source   Source
	tokens   TokenSource
	cfg      config.TasksConfig
	logger   *slog.Logger
	onUpdate func(Snapshot)
}

// NewPoller creates a poller from options.
func NewPoller(opts Options) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:   opts.Source,
		tokens:   opts.Tokens,
		cfg:      opts.Config,
		logger:   logger,
		onUpdate: opts.OnUpdate,
	}
}

// Run polls until the context is cancelled. Unauthorized responses back
// off without tearing the loop down, because they resolve themselves once
// a login or refresh lands. Gateway timeouts from an idle queue are a
// normal end of one long-poll cycle, not an error.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := p.cfg.RearmDelay
		reqCtx, cancel := context.WithTimeout(ctx, p.cfg.WaitBudget+p.cfg.WaitBudget/2)
		snap, err := p.source.BackgroundTasks(reqCtx, p.tokens.Token(), p.cfg.WaitBudget)
		cancel()

		switch {
		case err == nil:
			if p.onUpdate != nil {
				p.onUpdate(mapSnapshot(snap))
			}
		case ctx.Err() != nil:
			return ctx.Err()
		case authority.IsAuthorization(err):
			delay = p.cfg.UnauthorizedBackoff
		case isGatewayNoise(err):
			// Idle cycle or a proxy timing out ahead of us.
		default:
			p.logger.Warn("background task poll failed", slog.Any("error", err))
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func mapSnapshot(in authority.TasksSnapshot) Snapshot {
	out := Snapshot{QueueStatus: in.QueueStatus}
	if in.CurrentTask != "" {
		out.Tasks = append(out.Tasks, Task{Name: in.CurrentTask, State: StateRunning})
	}
	for _, name := range in.PendingTasks {
		out.Tasks = append(out.Tasks, Task{Name: name, State: StateQueued})
	}
	return out
}

func isGatewayNoise(err error) bool {
	code := authority.StatusCode(err)
	return code == http.StatusBadGateway || code == http.StatusGatewayTimeout
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
