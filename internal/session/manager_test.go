package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
	domainauth "github.com/tic-iptv/tic-ui/internal/domain/auth"
	"github.com/tic-iptv/tic-ui/internal/storage"
)

// stubAuthority is a controllable Authority implementation.
type stubAuthority struct {
	loginGrant authority.Grant
	loginErr   error

	refreshGrant authority.Grant
	refreshErr   error
	refreshGate  chan struct{} // when non-nil, Refresh blocks until closed
	refreshCalls atomic.Int32

	checkResult authority.CheckAuthResult
	checkErr    error
	checkCalls  atomic.Int32

	logoutErr   error
	logoutCalls atomic.Int32
}

func (s *stubAuthority) Login(context.Context, string, string) (authority.Grant, error) {
	return s.loginGrant, s.loginErr
}

func (s *stubAuthority) Logout(context.Context, string) error {
	s.logoutCalls.Add(1)
	return s.logoutErr
}

func (s *stubAuthority) Refresh(context.Context, string) (authority.Grant, error) {
	s.refreshCalls.Add(1)
	if s.refreshGate != nil {
		<-s.refreshGate
	}
	return s.refreshGrant, s.refreshErr
}

func (s *stubAuthority) CheckAuth(context.Context, string) (authority.CheckAuthResult, error) {
	s.checkCalls.Add(1)
	return s.checkResult, s.checkErr
}

func testConfig() config.AuthorityConfig {
	cfg := config.AuthorityConfig{}
	cfg.Sanitize()
	return cfg
}

func adminUser() *domainauth.User {
	return &domainauth.User{ID: 1, Username: "admin", Roles: []domainauth.Role{domainauth.RoleAdmin}}
}

func expiresIn(d time.Duration) *time.Time {
	ts := time.Now().Add(d).Truncate(time.Second)
	return &ts
}

func newTestManager(t *testing.T, auth Authority, store storage.Store) *Manager {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return NewManager(context.Background(), Options{
		Authority: auth,
		Store:     store,
		Config:    testConfig(),
		Logger:    slog.Default(),
	})
}

func TestLoginEstablishesAndPersistsSession(t *testing.T) {
	store := storage.NewMemoryStore()
	auth := &stubAuthority{loginGrant: authority.Grant{
		Token:     "tok-1",
		ExpiresAt: expiresIn(time.Hour),
		User:      adminUser(),
	}}
	m := newTestManager(t, auth, store)
	ctx := context.Background()

	sess, err := m.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)
	assert.True(t, sess.IsAuthenticated())
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin", sess.User.Username)

	token, err := store.Get(ctx, "tic_auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(token))
	_, err = store.Get(ctx, "tic_auth_expires_at")
	require.NoError(t, err)
	_, err = store.Get(ctx, "tic_auth_user")
	require.NoError(t, err)
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	store := storage.NewMemoryStore()
	auth := &stubAuthority{loginGrant: authority.Grant{Token: "tok-1", User: adminUser()}}
	m := newTestManager(t, auth, store)
	ctx := context.Background()

	_, err := m.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	auth.loginErr = &authority.StatusError{Code: http.StatusUnauthorized, Message: "Invalid username or password"}
	_, err = m.Login(ctx, "admin", "wrong")
	require.Error(t, err)
	assert.True(t, authority.IsAuthorization(err))

	assert.True(t, m.IsAuthenticated(), "failed login must not disturb the prior session")
	assert.Equal(t, "tok-1", m.Token())
}

func TestHydrateRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	auth := &stubAuthority{loginGrant: authority.Grant{
		Token:     "tok-1",
		ExpiresAt: expiresIn(time.Hour),
		User:      adminUser(),
	}}
	first := newTestManager(t, auth, store)
	_, err := first.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	want := first.Snapshot()

	second := newTestManager(t, auth, store)
	got := second.Snapshot()

	assert.Equal(t, want.Token, got.Token)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, want.ExpiresAt.Equal(*got.ExpiresAt))
	assert.Equal(t, want.User, got.User)
}

func TestHydrateDiscardsCorruptUser(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tic_auth_token", []byte("tok-1")))
	require.NoError(t, store.Set(ctx, "tic_auth_user", []byte("{broken")))

	m := newTestManager(t, &stubAuthority{}, store)

	snap := m.Snapshot()
	assert.True(t, snap.IsAuthenticated())
	assert.Nil(t, snap.User)
	_, err := store.Get(ctx, "tic_auth_user")
	assert.ErrorIs(t, err, storage.ErrNotFound, "corrupt entry is removed")
}

func TestLogoutAlwaysClears(t *testing.T) {
	for _, tc := range []struct {
		name      string
		logoutErr error
	}{
		{name: "authority reachable"},
		{name: "authority unreachable", logoutErr: assert.AnError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			auth := &stubAuthority{
				loginGrant: authority.Grant{Token: "tok-1", User: adminUser()},
				logoutErr:  tc.logoutErr,
			}
			m := newTestManager(t, auth, store)
			ctx := context.Background()

			_, err := m.Login(ctx, "admin", "hunter2")
			require.NoError(t, err)

			m.Logout(ctx)

			assert.False(t, m.IsAuthenticated())
			assert.Nil(t, m.Snapshot().User)
			_, err = store.Get(ctx, "tic_auth_token")
			assert.ErrorIs(t, err, storage.ErrNotFound)
			_, err = store.Get(ctx, "tic_auth_user")
			assert.ErrorIs(t, err, storage.ErrNotFound)
			assert.Equal(t, int32(1), auth.logoutCalls.Load())
		})
	}
}

func TestRefreshWithoutTokenFails(t *testing.T) {
	m := newTestManager(t, &stubAuthority{}, nil)
	assert.ErrorIs(t, m.Refresh(context.Background()), ErrNoSession)
}

func TestConcurrentRefreshCoalesces(t *testing.T) {
	gate := make(chan struct{})
	auth := &stubAuthority{
		loginGrant:   authority.Grant{Token: "tok-1", User: adminUser()},
		refreshGrant: authority.Grant{Token: "tok-2", User: adminUser()},
		refreshGate:  gate,
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.Refresh(context.Background())
		}()
	}

	// Let every caller attach to the in-flight exchange before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), auth.refreshCalls.Load(), "exactly one network exchange")
	assert.Equal(t, "tok-2", m.Token())
}

func TestConcurrentRefreshSharesFailure(t *testing.T) {
	gate := make(chan struct{})
	auth := &stubAuthority{
		loginGrant:  authority.Grant{Token: "tok-1", User: adminUser()},
		refreshErr:  &authority.StatusError{Code: http.StatusUnauthorized},
		refreshGate: gate,
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.Refresh(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		assert.Error(t, err, "caller %d", i)
		assert.True(t, authority.IsAuthorization(err), "caller %d observes the shared outcome", i)
	}
	assert.Equal(t, int32(1), auth.refreshCalls.Load())
	assert.True(t, m.IsAuthenticated(), "refresh failure alone must not clear state")
}

func TestCheckAuthenticationRefreshesNearExpiry(t *testing.T) {
	auth := &stubAuthority{
		loginGrant:   authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(30 * time.Second), User: adminUser()},
		refreshGrant: authority.Grant{Token: "tok-2", ExpiresAt: expiresIn(time.Hour), User: adminUser()},
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	ok, err := m.CheckAuthentication(context.Background(), CheckOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), auth.refreshCalls.Load(), "exactly one refresh inside the lead window")
	assert.Equal(t, int32(0), auth.checkCalls.Load(), "successful refresh skips full validation")
	assert.Equal(t, "tok-2", m.Token())
}

func TestCheckAuthenticationFreshnessDebounce(t *testing.T) {
	auth := &stubAuthority{
		loginGrant:  authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(time.Hour)},
		checkResult: authority.CheckAuthResult{RuntimeKey: "rk-1", User: adminUser()},
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	// Login counts as a validation, so two immediate checks stay local.
	for range 2 {
		ok, err := m.CheckAuthentication(context.Background(), CheckOptions{})
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int32(0), auth.checkCalls.Load())
	assert.Equal(t, int32(0), auth.refreshCalls.Load())
}

func TestCheckAuthenticationForceAlwaysValidates(t *testing.T) {
	auth := &stubAuthority{
		loginGrant:  authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(time.Hour), User: adminUser()},
		checkResult: authority.CheckAuthResult{RuntimeKey: "rk-1", User: adminUser()},
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	for range 2 {
		ok, err := m.CheckAuthentication(context.Background(), CheckOptions{Force: true})
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int32(2), auth.checkCalls.Load())
}

func TestCheckAuthenticationAuthorizationFailureClears(t *testing.T) {
	store := storage.NewMemoryStore()
	auth := &stubAuthority{
		loginGrant: authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(time.Hour), User: adminUser()},
		checkErr:   &authority.StatusError{Code: http.StatusUnauthorized},
	}
	m := newTestManager(t, auth, store)
	ctx := context.Background()
	_, err := m.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	ok, err := m.CheckAuthentication(ctx, CheckOptions{Force: true})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, m.IsAuthenticated())
	_, err = store.Get(ctx, "tic_auth_token")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckAuthenticationTransientFailureKeepsState(t *testing.T) {
	auth := &stubAuthority{
		loginGrant: authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(time.Hour), User: adminUser()},
		checkErr:   &authority.StatusError{Code: http.StatusBadGateway},
	}
	m := newTestManager(t, auth, nil)
	_, err := m.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)

	ok, err := m.CheckAuthentication(context.Background(), CheckOptions{Force: true})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, m.IsAuthenticated(), "transient failure is non-destructive")
	assert.Equal(t, "tok-1", m.Token())
}

func TestRuntimeKeyMismatchForcesReload(t *testing.T) {
	var reloads atomic.Int32
	auth := &stubAuthority{
		loginGrant:  authority.Grant{Token: "tok-1", ExpiresAt: expiresIn(time.Hour), User: adminUser()},
		checkResult: authority.CheckAuthResult{RuntimeKey: "rk-1", User: adminUser()},
	}
	store := storage.NewMemoryStore()
	m := NewManager(context.Background(), Options{
		Authority: auth,
		Store:     store,
		Config:    testConfig(),
		Reload:    func() { reloads.Add(1) },
	})
	ctx := context.Background()
	_, err := m.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	// First observation seeds the key.
	ok, err := m.CheckAuthentication(ctx, CheckOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(0), reloads.Load())

	// A different key later means the backend restarted.
	auth.checkResult = authority.CheckAuthResult{RuntimeKey: "rk-2", User: adminUser()}
	ok, err = m.CheckAuthentication(ctx, CheckOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), reloads.Load())
	assert.True(t, m.IsAuthenticated(), "reload path must not clear the session")
	_, err = store.Get(ctx, "tic_auth_token")
	assert.NoError(t, err)
}
