package authority

import (
	"time"

	domainauth "github.com/tic-iptv/tic-ui/internal/domain/auth"
)

// Grant is the parsed result of a successful login or refresh exchange.
type Grant struct {
	Token     string
	ExpiresAt *time.Time
	User      *domainauth.User
}

// CheckAuthResult is the parsed result of a successful validation call.
type CheckAuthResult struct {
	RuntimeKey string
	ExpiresAt  *time.Time
	User       *domainauth.User
}

// TasksSnapshot is one observation of the authority's background task queue.
type TasksSnapshot struct {
	CurrentTask  string
	PendingTasks []string
	QueueStatus  string
}

// Settings is the subset of authority settings the frontend bootstrap
// consumes. Remaining fields are passed through untouched.
type Settings struct {
	FirstRun bool
	Raw      map[string]any
}

// grantPayload matches the wire shape of login/refresh responses.
type grantPayload struct {
	Success          bool             `json:"success"`
	Token            string           `json:"token"`
	SessionExpiresAt string           `json:"session_expires_at"`
	User             *domainauth.User `json:"user"`
	Message          string           `json:"message"`
}

// checkAuthPayload matches the wire shape of the validation response.
type checkAuthPayload struct {
	Success          bool             `json:"success"`
	RuntimeKey       string           `json:"runtime_key"`
	SessionExpiresAt string           `json:"session_expires_at"`
	User             *domainauth.User `json:"user"`
}

// tasksPayload matches the wire envelope of the background-tasks response.
type tasksPayload struct {
	Success bool `json:"success"`
	Data    struct {
		TaskQueueStatus string   `json:"task_queue_status"`
		CurrentTask     string   `json:"current_task"`
		PendingTasks    []string `json:"pending_tasks"`
	} `json:"data"`
}

// settingsPayload matches the wire envelope of the settings response.
type settingsPayload struct {
	Success    bool           `json:"success"`
	RuntimeKey string         `json:"runtime_key"`
	Data       map[string]any `json:"data"`
}

// runningPayload matches the wire envelope of the tvh-running response.
type runningPayload struct {
	Success bool `json:"success"`
	Data    struct {
		Running bool `json:"running"`
	} `json:"data"`
}

// parseExpiry converts the authority's ISO-8601 expiry into a timestamp.
// Absent or unparseable values map to nil: expiry is advisory and a bad
// value must never break session establishment.
func parseExpiry(value string) *time.Time {
	if value == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &ts
}
