package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
	"github.com/tic-iptv/tic-ui/internal/firstrun"
	"github.com/tic-iptv/tic-ui/internal/gateway"
	"github.com/tic-iptv/tic-ui/internal/nav"
	"github.com/tic-iptv/tic-ui/internal/prefs"
	"github.com/tic-iptv/tic-ui/internal/session"
	"github.com/tic-iptv/tic-ui/internal/storage"
	"github.com/tic-iptv/tic-ui/internal/tasks"
)

// ComponentDeps are the inputs to NewComponents.
type ComponentDeps struct {
	Config config.AppConfig
	Store  storage.Store
	Logger *slog.Logger

	// Reload is invoked when a backend restart or completed first run
	// requires the whole frontend to start over. Defaults to a log line;
	// hosts embedding the core supply their own teardown.
	Reload func()
}

// Components is the wired frontend core.
type Components struct {
	Sessions *session.Manager
	Guard    *nav.Guard
	Prefs    *prefs.Manager
	Poller   *tasks.Poller
	FirstRun *firstrun.Runner
	Router   http.Handler

	taskMu    sync.RWMutex
	lastTasks tasks.Snapshot
}

// NewComponents builds the component graph. The session manager talks to
// the authority directly; every other consumer goes through a client whose
// transport injects the bearer token and retries once after a refresh,
// mirroring how the browser build intercepts unauthorized responses.
func NewComponents(ctx context.Context, deps ComponentDeps) *Components {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reload := deps.Reload
	if reload == nil {
		reload = func() { logger.Info("frontend reload requested") }
	}

	cfg := deps.Config
	comps := &Components{}

	baseClient := authority.NewClient(authority.ClientOptions{
		BaseURL:    cfg.Authority.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Authority.RequestTimeout},
		Logger:     logger,
	})

	comps.Sessions = session.NewManager(ctx, session.Options{
		Authority: baseClient,
		Store:     deps.Store,
		Config:    cfg.Authority,
		Logger:    logger,
		Reload:    reload,
	})

	apiClient := authority.NewClient(authority.ClientOptions{
		BaseURL: cfg.Authority.BaseURL,
		HTTPClient: &http.Client{
			Transport: &authority.BearerTransport{Sessions: comps.Sessions},
			Timeout:   cfg.Authority.RequestTimeout + cfg.Tasks.WaitBudget,
		},
		Logger: logger,
	})

	comps.Prefs = prefs.NewManager(prefs.Options{Store: deps.Store, Logger: logger})

	comps.Guard = nav.NewGuard(nav.GuardOptions{
		Auth:       comps.Sessions,
		StartPages: comps.Prefs,
		Config:     cfg.Authority,
		Logger:     logger,
	})

	comps.Poller = tasks.NewPoller(tasks.Options{
		Source: apiClient,
		Tokens: comps.Sessions,
		Config: cfg.Tasks,
		Logger: logger,
		OnUpdate: func(snap tasks.Snapshot) {
			comps.taskMu.Lock()
			comps.lastTasks = snap
			comps.taskMu.Unlock()
		},
	})

	comps.FirstRun = firstrun.NewRunner(firstrun.Options{
		Authority:   apiClient,
		Tokens:      comps.Sessions,
		Config:      cfg.FirstRun,
		Logger:      logger,
		AppURL:      cfg.AppURL,
		PingTimeout: cfg.Authority.HealthProbeTimeout,
		OnStatus:    func(msg string) { logger.Info("startup", slog.String("status", msg)) },
		Reload:      reload,
	})

	comps.Router = gateway.NewRouter(gateway.RouterServices{
		Guard:       comps.Guard,
		Sessions:    comps.Sessions,
		Prefs:       comps.Prefs,
		LatestTasks: comps.LatestTasks,
		Logger:      logger,
	})

	return comps
}

// LatestTasks returns the most recent task queue snapshot.
func (c *Components) LatestTasks() tasks.Snapshot {
	c.taskMu.RLock()
	defer c.taskMu.RUnlock()
	return c.lastTasks
}
