// Package authority provides the HTTP client for the backend authority:
// the remote service that issues and validates credentials and runs the
// IPTV domain logic this frontend fronts.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxErrorBodyBytes = 4 * 1024 // rejection bodies are small; cap reads defensively

// ClientOptions configures the authority client.
type ClientOptions struct {
	// BaseURL is the authority API root, including the /tic-api mount.
	BaseURL string

	// HTTPClient is the underlying client. Defaults to a 30s-timeout client.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a typed HTTP client for the authority endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates an authority client from options, applying defaults
// for anything unset.
func NewClient(opts ClientOptions) *Client {
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    resolveHTTPClient(opts.HTTPClient),
		logger:  resolveLogger(opts.Logger),
	}
}

func resolveHTTPClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Login exchanges credentials for a session grant. A rejected login is
// surfaced as a StatusError carrying the authority's message; no retry.
func (c *Client) Login(ctx context.Context, username, password string) (Grant, error) {
	body := map[string]string{"username": username, "password": password}
	var payload grantPayload
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body, &payload); err != nil {
		return Grant{}, err
	}
	if !payload.Success || payload.Token == "" {
		return Grant{}, &StatusError{Code: http.StatusUnauthorized, Message: payload.Message}
	}
	return Grant{
		Token:     payload.Token,
		ExpiresAt: parseExpiry(payload.SessionExpiresAt),
		User:      payload.User,
	}, nil
}

// Logout notifies the authority that the session is terminated.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", token, struct{}{}, nil)
}

// Refresh exchanges the current token for a renewed grant.
func (c *Client) Refresh(ctx context.Context, token string) (Grant, error) {
	var payload grantPayload
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", token, struct{}{}, &payload); err != nil {
		return Grant{}, err
	}
	if !payload.Success || payload.Token == "" {
		return Grant{}, &StatusError{Code: http.StatusUnauthorized, Message: payload.Message}
	}
	return Grant{
		Token:     payload.Token,
		ExpiresAt: parseExpiry(payload.SessionExpiresAt),
		User:      payload.User,
	}, nil
}

// CheckAuth performs a full validation of the current token.
func (c *Client) CheckAuth(ctx context.Context, token string) (CheckAuthResult, error) {
	var payload checkAuthPayload
	if err := c.doJSON(ctx, http.MethodGet, "/check-auth", token, nil, &payload); err != nil {
		return CheckAuthResult{}, err
	}
	return CheckAuthResult{
		RuntimeKey: payload.RuntimeKey,
		ExpiresAt:  parseExpiry(payload.SessionExpiresAt),
		User:       payload.User,
	}, nil
}

// BackgroundTasks long-polls the authority task queue. wait and timeout
// follow the server's long-poll contract: timeout is the server-side wait
// budget in seconds.
func (c *Client) BackgroundTasks(ctx context.Context, token string, timeout time.Duration) (TasksSnapshot, error) {
	path := fmt.Sprintf("/get-background-tasks?wait=1&timeout=%d", int(timeout.Seconds()))
	var payload tasksPayload
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &payload); err != nil {
		return TasksSnapshot{}, err
	}
	return TasksSnapshot{
		CurrentTask:  payload.Data.CurrentTask,
		PendingTasks: payload.Data.PendingTasks,
		QueueStatus:  payload.Data.TaskQueueStatus,
	}, nil
}

// GetSettings fetches the authority settings used by startup orchestration.
func (c *Client) GetSettings(ctx context.Context, token string) (Settings, error) {
	var payload settingsPayload
	if err := c.doJSON(ctx, http.MethodGet, "/get-settings", token, nil, &payload); err != nil {
		return Settings{}, err
	}
	firstRun, _ := payload.Data["first_run"].(bool)
	return Settings{FirstRun: firstRun, Raw: payload.Data}, nil
}

// SaveSettings posts a settings document to the authority.
func (c *Client) SaveSettings(ctx context.Context, token string, settings map[string]any) error {
	body := map[string]any{"settings": settings}
	return c.doJSON(ctx, http.MethodPost, "/save-settings", token, body, nil)
}

// TVHRunning reports whether the authority's bundled TVHeadend process is up.
func (c *Client) TVHRunning(ctx context.Context, token string) (bool, error) {
	var payload runningPayload
	if err := c.doJSON(ctx, http.MethodGet, "/tvh-running", token, nil, &payload); err != nil {
		return false, err
	}
	return payload.Data.Running, nil
}

// Ping probes authority health. Healthy responses carry a plain PONG body.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping authority: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return fmt.Errorf("read ping response: %w", err)
	}
	if !strings.Contains(string(body), "PONG") {
		return fmt.Errorf("unexpected ping response %q", string(body))
	}
	return nil
}

// doJSON issues one request and decodes a JSON response into out when the
// status is 2xx. Non-2xx statuses map to StatusError, with the authority's
// message extracted when the body is a JSON rejection document.
func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode, Message: extractMessage(resp.Body)}
	}
	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// extractMessage pulls a rejection message out of an error body, when the
// authority sent one.
func extractMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	var doc struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	return doc.Message
}
