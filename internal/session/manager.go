// Package session owns the authenticated-session lifecycle: establishing,
// refreshing, validating and tearing down the client's belief about who is
// logged in, and persisting enough of it to survive a frontend reload.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
	domainauth "github.com/tic-iptv/tic-ui/internal/domain/auth"
	"github.com/tic-iptv/tic-ui/internal/storage"
)

// Persisted entry keys. These are the wire contract with earlier releases
// of the frontend; do not rename.
const (
	keyToken     = "tic_auth_token"
	keyExpiresAt = "tic_auth_expires_at"
	keyUser      = "tic_auth_user"
)

// ErrNoSession is returned by Refresh when no bearer token is held.
var ErrNoSession = errors.New("session: no bearer token held")

// Authority is the slice of the authority client the manager consumes.
type Authority interface {
	Login(ctx context.Context, username, password string) (authority.Grant, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (authority.Grant, error)
	CheckAuth(ctx context.Context, token string) (authority.CheckAuthResult, error)
}

// CheckOptions controls CheckAuthentication behavior.
type CheckOptions struct {
	// Force skips the near-expiry refresh and the freshness debounce and
	// always performs a full validation call.
	Force bool
}

// Options bundles dependencies for NewManager. Exactly one manager exists
// per process; it is handed to consumers explicitly rather than living in
// a package global.
type Options struct {
	Authority Authority
	Store     storage.Store
	Config    config.AuthorityConfig
	Logger    *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time

	// Reload is invoked when a backend restart is detected via a runtime
	// key change. The host is expected to tear the whole frontend down and
	// start over; session state is intentionally left in place.
	Reload func()
}

// Manager is the single source of truth for the current session.
type Manager struct {
	authority Authority
	store     storage.Store
	cfg       config.AuthorityConfig
	logger    *slog.Logger
	now       func() time.Time
	reload    func()

	refreshGroup singleflight.Group

	mu         sync.RWMutex
	cur        domainauth.Session
	runtimeKey string
}

// NewManager creates a manager hydrated from persisted state, so a reload
// resumes the previous session without a fresh login.
func NewManager(ctx context.Context, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		authority: opts.Authority,
		store:     opts.Store,
		cfg:       opts.Config,
		logger:    logger,
		now:       now,
		reload:    opts.Reload,
	}
	m.hydrate(ctx)
	return m
}

// Snapshot returns a copy of the current session for read-only consumers.
func (m *Manager) Snapshot() domainauth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.cur
	if m.cur.User != nil {
		user := *m.cur.User
		user.Roles = append([]domainauth.Role(nil), m.cur.User.Roles...)
		user.Entitlements = append([]string(nil), m.cur.User.Entitlements...)
		snap.User = &user
	}
	return snap
}

// Token returns the current bearer token, or empty when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur.Token
}

// IsAuthenticated reports whether a bearer token is currently held.
func (m *Manager) IsAuthenticated() bool { return m.Token() != "" }

// Login exchanges credentials for a session. On failure the prior state is
// left untouched and the authority's rejection is returned as-is.
func (m *Manager) Login(ctx context.Context, username, password string) (domainauth.Session, error) {
	grant, err := m.authority.Login(ctx, username, password)
	if err != nil {
		return domainauth.Session{}, err
	}
	m.install(ctx, grant)
	return m.Snapshot(), nil
}

// Logout tears the session down. The authority call is best-effort: local
// and persisted state are cleared regardless of its outcome, and teardown
// never blocks on a network failure beyond the request itself.
func (m *Manager) Logout(ctx context.Context) {
	if token := m.Token(); token != "" {
		if err := m.authority.Logout(ctx, token); err != nil {
			m.logger.Warn("authority logout failed", slog.Any("error", err))
		}
	}
	m.Clear(ctx)
}

// Refresh exchanges the current token for a renewed one. Concurrent
// callers are coalesced onto a single network exchange; every waiter
// observes the same outcome. A failed refresh does not clear state; the
// caller decides what to do next.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		token := m.Token()
		if token == "" {
			return nil, ErrNoSession
		}
		grant, err := m.authority.Refresh(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		m.install(ctx, grant)
		return nil, nil
	})
	return err
}

// CheckAuthentication determines whether the session is currently valid.
//
// Unless forced, a token inside the refresh lead window is transparently
// refreshed first, and a validation that succeeded within the freshness
// window short-circuits without a network call. Otherwise a full
// validation runs: authorization failures clear the session, transient
// failures leave it intact and are reported to the caller only.
func (m *Manager) CheckAuthentication(ctx context.Context, opts CheckOptions) (bool, error) {
	snap := m.Snapshot()
	now := m.now()

	if !opts.Force && snap.IsAuthenticated() {
		if snap.NearExpiry(now, m.cfg.RefreshLeadWindow) {
			err := m.Refresh(ctx)
			if err == nil {
				return true, nil
			}
			m.logger.Warn("session refresh before auth check failed", slog.Any("error", err))
		} else if snap.FreshlyValidated(now, m.cfg.CheckFreshnessTTL) {
			return true, nil
		}
	}

	return m.validate(ctx)
}

// Clear drops all in-memory and persisted session state. The observed
// runtime key survives: a restart marker is about the backend process,
// not the user.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.cur = domainauth.Session{}
	m.mu.Unlock()

	for _, key := range []string{keyToken, keyExpiresAt, keyUser} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("clear persisted session entry failed",
				slog.String("key", key), slog.Any("error", err))
		}
	}
}

// validate performs the full check-auth exchange and applies its result.
func (m *Manager) validate(ctx context.Context) (bool, error) {
	res, err := m.authority.CheckAuth(ctx, m.Token())
	if err != nil {
		if authority.IsAuthorization(err) {
			m.Clear(ctx)
			return false, nil
		}
		return false, fmt.Errorf("validate session: %w", err)
	}

	m.mu.Lock()
	switch {
	case m.runtimeKey == "":
		m.runtimeKey = res.RuntimeKey
	case res.RuntimeKey != "" && res.RuntimeKey != m.runtimeKey:
		// The backend restarted under us: in-memory state across the whole
		// frontend is now suspect, so force a full reload instead of
		// patching the session.
		m.mu.Unlock()
		m.logger.Info("backend restart detected via runtime key, reloading",
			slog.String("previous", m.runtimeKey), slog.String("current", res.RuntimeKey))
		if m.reload != nil {
			m.reload()
		}
		return true, nil
	}

	if res.ExpiresAt != nil {
		m.cur.ExpiresAt = res.ExpiresAt
	}
	m.cur.User = res.User
	m.cur.LastValidatedAt = m.now()
	cur := m.cur
	m.mu.Unlock()

	m.persist(ctx, cur)
	return true, nil
}

// install applies a fresh grant from login or refresh.
func (m *Manager) install(ctx context.Context, grant authority.Grant) {
	m.mu.Lock()
	m.cur = domainauth.Session{
		Token:           grant.Token,
		ExpiresAt:       grant.ExpiresAt,
		User:            grant.User,
		LastValidatedAt: m.now(),
	}
	cur := m.cur
	m.mu.Unlock()

	m.persist(ctx, cur)
}

// persist writes session material to the client-state store. Persistence
// is best-effort; failures are logged and the in-memory session stays
// authoritative.
func (m *Manager) persist(ctx context.Context, cur domainauth.Session) {
	m.persistEntry(ctx, keyToken, []byte(cur.Token))

	if cur.ExpiresAt != nil {
		m.persistEntry(ctx, keyExpiresAt, []byte(cur.ExpiresAt.Format(time.RFC3339)))
	} else {
		m.deleteEntry(ctx, keyExpiresAt)
	}

	if cur.User != nil {
		encoded, err := json.Marshal(cur.User)
		if err != nil {
			m.logger.Warn("encode persisted user failed", slog.Any("error", err))
			return
		}
		m.persistEntry(ctx, keyUser, encoded)
	} else {
		m.deleteEntry(ctx, keyUser)
	}
}

func (m *Manager) persistEntry(ctx context.Context, key string, value []byte) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Warn("persist session entry failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

func (m *Manager) deleteEntry(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("delete session entry failed",
			slog.String("key", key), slog.Any("error", err))
	}
}

// hydrate seeds in-memory state from the store. Corrupt entries are
// discarded and removed, never fatal.
func (m *Manager) hydrate(ctx context.Context) {
	token, err := m.store.Get(ctx, keyToken)
	if err != nil || len(token) == 0 {
		return
	}

	cur := domainauth.Session{Token: string(token)}

	if raw, err := m.store.Get(ctx, keyExpiresAt); err == nil {
		if ts, parseErr := time.Parse(time.RFC3339, string(raw)); parseErr == nil {
			cur.ExpiresAt = &ts
		} else {
			m.deleteEntry(ctx, keyExpiresAt)
		}
	}

	if raw, err := m.store.Get(ctx, keyUser); err == nil {
		var user domainauth.User
		if unmarshalErr := json.Unmarshal(raw, &user); unmarshalErr == nil {
			cur.User = &user
		} else {
			m.logger.Warn("persisted user profile is corrupt, discarding")
			m.deleteEntry(ctx, keyUser)
		}
	}

	m.mu.Lock()
	m.cur = cur
	m.mu.Unlock()
}
