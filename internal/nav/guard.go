package nav

import (
	"context"
	"log/slog"
	"time"

	"github.com/tic-iptv/tic-ui/config"
	domainauth "github.com/tic-iptv/tic-ui/internal/domain/auth"
	"github.com/tic-iptv/tic-ui/internal/session"
)

// Action is the outcome category of a guard evaluation.
type Action int

const (
	// Allow renders the requested route.
	Allow Action = iota
	// Redirect navigates to Decision.Target instead.
	Redirect
	// NotFound reports an unknown path.
	NotFound
)

// Decision is the guard's verdict for one requested path.
type Decision struct {
	Action Action

	// Target is the redirect destination when Action == Redirect.
	Target string

	// Replace asks the host to overwrite the current history entry rather
	// than push a new one, so Back does not land on a page the user was
	// never allowed to see.
	Replace bool

	// Route is the resolved table entry when Action == Allow.
	Route Route
}

// Authenticator is the slice of the session manager the guard consumes.
type Authenticator interface {
	Snapshot() domainauth.Session
	CheckAuthentication(ctx context.Context, opts session.CheckOptions) (bool, error)
}

// StartPages supplies the remembered landing section for the current user.
type StartPages interface {
	// StartPage returns the remembered top-level path, or empty when none
	// has been recorded yet.
	StartPage(ctx context.Context) string
}

// GuardOptions bundles dependencies for NewGuard.
type GuardOptions struct {
	Auth       Authenticator
	StartPages StartPages
	Config     config.AuthorityConfig
	Logger     *slog.Logger
	Now        func() time.Time
}

// Guard evaluates navigation requests against the route table and the
// current session.
type Guard struct {
	auth   Authenticator
	starts StartPages
	cfg    config.AuthorityConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewGuard creates a navigation guard.
func NewGuard(opts GuardOptions) *Guard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Guard{
		auth:   opts.Auth,
		starts: opts.StartPages,
		cfg:    opts.Config,
		logger: logger,
		now:    now,
	}
}

// Evaluate decides what to do with a navigation to path. It is idempotent
// and never allows a route whose requirements are unmet.
func (g *Guard) Evaluate(ctx context.Context, path string) Decision {
	route, ok := Resolve(path)
	if !ok {
		return Decision{Action: NotFound}
	}
	if route.RedirectTo != "" {
		return Decision{Action: Redirect, Target: route.RedirectTo, Replace: true}
	}
	if !route.Requires.Auth {
		return Decision{Action: Allow, Route: route}
	}

	if !g.ensureAuthenticated(ctx) {
		return Decision{Action: Redirect, Target: "/login", Replace: true}
	}

	snap := g.auth.Snapshot()
	if route.Path == "/" {
		return Decision{Action: Redirect, Target: g.landing(ctx, snap), Replace: true}
	}
	if !permitted(route, snap.User) {
		return Decision{Action: Redirect, Target: roleHome(snap.User), Replace: true}
	}
	return Decision{Action: Allow, Route: route}
}

// ensureAuthenticated reports whether the session may proceed. A session
// validated recently proceeds immediately while a revalidation runs off the
// navigation path; anything else blocks on a full check.
func (g *Guard) ensureAuthenticated(ctx context.Context) bool {
	snap := g.auth.Snapshot()
	now := g.now()
	if snap.IsAuthenticated() &&
		!snap.NearExpiry(now, g.cfg.RefreshLeadWindow) &&
		snap.FreshlyValidated(now, g.cfg.CheckFreshnessTTL) {
		go func() {
			// The session just passed the freshness debounce, so only a
			// forced check actually reaches the authority.
			bg := context.WithoutCancel(ctx)
			if _, err := g.auth.CheckAuthentication(bg, session.CheckOptions{Force: true}); err != nil {
				g.logger.Warn("background session revalidation failed", slog.Any("error", err))
			}
		}()
		return true
	}

	ok, err := g.auth.CheckAuthentication(ctx, session.CheckOptions{})
	if err != nil {
		g.logger.Warn("session check during navigation failed", slog.Any("error", err))
	}
	return ok
}

// landing resolves the "/" route to a concrete destination: the remembered
// start page when it is still permitted for the current roles, the role
// home otherwise.
func (g *Guard) landing(ctx context.Context, snap domainauth.Session) string {
	if g.starts != nil {
		if start := g.starts.StartPage(ctx); start != "" {
			if route, ok := Resolve(start); ok && route.RedirectTo == "" && permitted(route, snap.User) {
				return route.Path
			}
		}
	}
	return roleHome(snap.User)
}

func permitted(route Route, user *domainauth.User) bool {
	if route.Requires.Admin && (user == nil || !user.IsAdmin()) {
		return false
	}
	if route.Requires.Streamer && (user == nil || !user.CanStream()) {
		return false
	}
	if route.Requires.Entitlement != "" && (user == nil || !user.HasEntitlement(route.Requires.Entitlement)) {
		return false
	}
	return true
}

// roleHome is the default destination for a user's highest role.
func roleHome(user *domainauth.User) string {
	switch {
	case user != nil && user.IsAdmin():
		return "/channels"
	case user != nil && user.CanStream():
		return "/guide"
	default:
		return "/login"
	}
}
