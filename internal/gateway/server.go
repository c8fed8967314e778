// Package gateway exposes the frontend core over HTTP: navigation guard
// decisions as page descriptors, session establishment and teardown, and
// the read models the UI shell polls.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tic-iptv/tic-ui/internal/authority"
	domainauth "github.com/tic-iptv/tic-ui/internal/domain/auth"
	"github.com/tic-iptv/tic-ui/internal/nav"
	"github.com/tic-iptv/tic-ui/internal/prefs"
	"github.com/tic-iptv/tic-ui/internal/tasks"
)

// Sessions is the slice of the session manager the gateway consumes.
type Sessions interface {
	Login(ctx context.Context, username, password string) (domainauth.Session, error)
	Logout(ctx context.Context)
	Snapshot() domainauth.Session
}

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Guard    *nav.Guard
	Sessions Sessions
	Prefs    *prefs.Manager

	// LatestTasks returns the most recent task queue snapshot. Optional.
	LatestTasks func() tasks.Snapshot

	Logger *slog.Logger
}

// NewRouter creates and configures the gateway HTTP handler.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{services: services, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ui/login", h.login)
	mux.HandleFunc("POST /ui/logout", h.logout)
	mux.HandleFunc("GET /ui/session", h.session)
	mux.HandleFunc("GET /ui/prefs", h.getPrefs)
	mux.HandleFunc("PUT /ui/prefs", h.putPrefs)
	mux.HandleFunc("GET /ui/tasks", h.taskQueue)
	mux.HandleFunc("GET /", h.page)

	return Recover(logger)(Logging(logger)(mux))
}

type handlers struct {
	services RouterServices
	logger   *slog.Logger
}

// page evaluates the navigation guard for the requested path and answers
// with a page descriptor, a redirect, or a not-found.
func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	decision := h.services.Guard.Evaluate(r.Context(), r.URL.Path)
	switch decision.Action {
	case nav.Allow:
		WriteJSON(w, http.StatusOK, map[string]any{
			"page": decision.Route.Name,
			"path": decision.Route.Path,
		})
	case nav.Redirect:
		http.Redirect(w, r, decision.Target, http.StatusFound)
	default:
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.services.Sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if authority.IsAuthorization(err) {
			WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: err})
			return
		}
		h.logger.Warn("login exchange failed", slog.Any("error", err))
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "authority_unreachable", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, sessionDocument(sess))
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.services.Sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) session(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, sessionDocument(h.services.Sessions.Snapshot()))
}

func (h *handlers) getPrefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteJSON(w, http.StatusOK, map[string]any{
		"theme":       h.services.Prefs.Theme(ctx),
		"time_format": h.services.Prefs.TimeFormat(ctx),
		"show_help":   h.services.Prefs.ShowHelp(ctx),
		"start_page":  h.services.Prefs.StartPage(ctx),
		"player":      h.services.Prefs.PlayerState(ctx),
	})
}

type prefsRequest struct {
	Theme      *string            `json:"theme"`
	TimeFormat *string            `json:"time_format"`
	ShowHelp   *bool              `json:"show_help"`
	StartPage  *string            `json:"start_page"`
	Player     *prefs.PlayerState `json:"player"`
}

// putPrefs applies a partial preferences update: only fields present in
// the document are written.
func (h *handlers) putPrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	var err error
	if req.Theme != nil {
		err = h.services.Prefs.SetTheme(ctx, *req.Theme)
	}
	if err == nil && req.TimeFormat != nil {
		err = h.services.Prefs.SetTimeFormat(ctx, *req.TimeFormat)
	}
	if err == nil && req.ShowHelp != nil {
		err = h.services.Prefs.SetShowHelp(ctx, *req.ShowHelp)
	}
	if err == nil && req.StartPage != nil {
		err = h.services.Prefs.SetStartPage(ctx, *req.StartPage)
	}
	if err == nil && req.Player != nil {
		err = h.services.Prefs.SetPlayerState(ctx, *req.Player)
	}
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "persist_failed", Err: err})
		return
	}
	h.getPrefs(w, r)
}

func (h *handlers) taskQueue(w http.ResponseWriter, _ *http.Request) {
	snap := tasks.Snapshot{}
	if h.services.LatestTasks != nil {
		snap = h.services.LatestTasks()
	}
	docs := make([]map[string]string, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		docs = append(docs, map[string]string{"name": task.Name, "state": string(task.State)})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"queue_status": snap.QueueStatus,
		"tasks":        docs,
	})
}

// sessionDocument renders a session for the wire, omitting what is not
// known.
func sessionDocument(sess domainauth.Session) map[string]any {
	doc := map[string]any{"authenticated": sess.IsAuthenticated()}
	if sess.ExpiresAt != nil {
		doc["session_expires_at"] = sess.ExpiresAt.Format(time.RFC3339)
	}
	if sess.User != nil {
		roles := make([]string, 0, len(sess.User.Roles))
		for _, role := range sess.User.Roles {
			roles = append(roles, string(role))
		}
		doc["user"] = map[string]any{
			"id":       sess.User.ID,
			"username": sess.User.Username,
			"roles":    roles,
		}
	}
	return doc
}
