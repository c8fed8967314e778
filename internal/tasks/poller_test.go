package tasks

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tic-iptv/tic-ui/config"
	"github.com/tic-iptv/tic-ui/internal/authority"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

// stubSource serves canned results and fails the test if the poller ever
// overlaps requests.
type stubSource struct {
	t        *testing.T
	result   authority.TasksSnapshot
	err      error
	calls    atomic.Int32
	inFlight atomic.Int32
}

func (s *stubSource) BackgroundTasks(ctx context.Context, token string, timeout time.Duration) (authority.TasksSnapshot, error) {
	if s.inFlight.Add(1) > 1 {
		s.t.Error("overlapping long-poll requests")
	}
	defer s.inFlight.Add(-1)
	s.calls.Add(1)
	return s.result, s.err
}

func pollerConfig() config.TasksConfig {
	return config.TasksConfig{
		Enabled:             true,
		WaitBudget:          time.Second,
		RearmDelay:          time.Millisecond,
		UnauthorizedBackoff: time.Hour,
	}
}

func TestPollerPublishesSnapshots(t *testing.T) {
	source := &stubSource{t: t, result: authority.TasksSnapshot{
		CurrentTask:  "Updating playlists",
		PendingTasks: []string{"Updating EPGs"},
		QueueStatus:  "running",
	}}

	updates := make(chan Snapshot, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewPoller(Options{
		Source: source,
		Tokens: staticTokens("tok"),
		Config: pollerConfig(),
		OnUpdate: func(snap Snapshot) {
			select {
			case updates <- snap:
			default:
			}
		},
	})

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	select {
	case snap := <-updates:
		require.Len(t, snap.Tasks, 2)
		assert.Equal(t, Task{Name: "Updating playlists", State: StateRunning}, snap.Tasks[0])
		assert.Equal(t, Task{Name: "Updating EPGs", State: StateQueued}, snap.Tasks[1])
		assert.Equal(t, "running", snap.QueueStatus)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPollerBacksOffWhenUnauthorized(t *testing.T) {
	source := &stubSource{t: t, err: &authority.StatusError{Code: http.StatusUnauthorized}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewPoller(Options{
		Source: source,
		Tokens: staticTokens(""),
		Config: pollerConfig(),
		OnUpdate: func(Snapshot) {
			t.Error("unauthorized poll must not publish")
		},
	})

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// The hour-long backoff keeps the loop parked after the first attempt.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), source.calls.Load())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPollerTreatsGatewayTimeoutsAsIdleCycles(t *testing.T) {
	source := &stubSource{t: t, err: &authority.StatusError{Code: http.StatusGatewayTimeout}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := NewPoller(Options{
		Source: source,
		Tokens: staticTokens("tok"),
		Config: pollerConfig(),
	})

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// Re-arm keeps polling through 504s at the normal cadence.
	require.Eventually(t, func() bool { return source.calls.Load() > 3 },
		time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
