package authority

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// SessionRefresher is implemented by the session manager. The transport
// uses it to read the current bearer token, to run a coalesced refresh
// after an unauthorized response, and to tear session state down when
// that refresh fails.
type SessionRefresher interface {
	Token() string
	Refresh(ctx context.Context) error
	Clear(ctx context.Context)
}

// BearerTransport is an http.RoundTripper that injects the session bearer
// token and, on a 401 from a non-auth endpoint, performs exactly one
// refresh-and-retry of the original request. Auth endpoints are excluded
// so a failing login or refresh can never recurse into itself.
type BearerTransport struct {
	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Sessions provides tokens and the refresh/teardown hooks.
	Sessions SessionRefresher
}

var authEndpointSuffixes = []string{"/auth/login", "/auth/logout", "/auth/refresh"}

func isAuthEndpoint(path string) bool {
	for _, suffix := range authEndpointSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.Sessions.Token()
	first := cloneWithBearer(req, token)

	resp, err := t.base().RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || isAuthEndpoint(req.URL.Path) || token == "" {
		return resp, nil
	}
	// A request with a one-shot body cannot be replayed.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	if err := t.Sessions.Refresh(req.Context()); err != nil {
		t.Sessions.Clear(req.Context())
		return resp, nil
	}

	// Retry once with the renewed token.
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain before reuse
	resp.Body.Close()

	retry := cloneWithBearer(req, t.Sessions.Token())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return t.base().RoundTrip(retry)
}

// cloneWithBearer copies the request and sets the Authorization header.
// RoundTrippers must not mutate the caller's request.
func cloneWithBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return clone
}
