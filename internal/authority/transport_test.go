package authority

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher records transport-driven session interactions.
type fakeRefresher struct {
	token      atomic.Value
	refreshErr error
	refreshed  atomic.Int32
	cleared    atomic.Int32
}

func newFakeRefresher(token string) *fakeRefresher {
	f := &fakeRefresher{}
	f.token.Store(token)
	return f
}

func (f *fakeRefresher) Token() string {
	v, _ := f.token.Load().(string)
	return v
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.refreshed.Add(1)
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.token.Store("renewed-token")
	return nil
}

func (f *fakeRefresher) Clear(context.Context) { f.cleared.Add(1) }

func TestBearerTransportRetriesOnceAfterRefresh(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			require.Equal(t, "Bearer stale-token", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer renewed-token", r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	sessions := newFakeRefresher("stale-token")
	client := &http.Client{Transport: &BearerTransport{Sessions: sessions}}

	resp, err := client.Get(srv.URL + "/get-channels")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), sessions.refreshed.Load())
	assert.Equal(t, int32(0), sessions.cleared.Load())
}

func TestBearerTransportSkipsAuthEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	sessions := newFakeRefresher("tok")
	client := &http.Client{Transport: &BearerTransport{Sessions: sessions}}

	resp, err := client.Post(srv.URL+"/auth/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), sessions.refreshed.Load(), "auth endpoints must never trigger a transport refresh")
}

func TestBearerTransportClearsSessionWhenRefreshFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	sessions := newFakeRefresher("tok")
	sessions.refreshErr = assert.AnError
	client := &http.Client{Transport: &BearerTransport{Sessions: sessions}}

	resp, err := client.Get(srv.URL + "/get-channels")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "original 401 is surfaced")
	assert.Equal(t, int32(1), calls.Load(), "no retry after failed refresh")
	assert.Equal(t, int32(1), sessions.cleared.Load())
}

func TestBearerTransportPassesThroughWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	sessions := newFakeRefresher("")
	client := &http.Client{Transport: &BearerTransport{Sessions: sessions}}

	resp, err := client.Get(srv.URL + "/get-channels")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(0), sessions.refreshed.Load())
}
