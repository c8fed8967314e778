// Package prefs persists per-installation UI preferences in the
// client-state store: theme, clock format, the help panel flag, the
// remembered start page the navigation guard consults, and the floating
// video player's geometry.
package prefs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/tic-iptv/tic-ui/internal/storage"
)

// Persisted entry keys. Part of the stored-state contract with earlier
// releases; do not rename.
const (
	keyTheme       = "tic_ui_theme"
	keyTimeFormat  = "tic_ui_time_format"
	keyShowHelp    = "tic_ui_show_help"
	keyStartPage   = "tic_ui_start_page"
	keyPlayerState = "tic_video_player_state"
)

// Preference defaults.
const (
	DefaultTheme      = "dark"
	DefaultTimeFormat = "24h"
)

// PlayerState is the floating video player's persisted geometry and audio
// state, stored as one JSON document.
type PlayerState struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// DefaultPlayerState is what a fresh or corrupted installation gets.
var DefaultPlayerState = PlayerState{Width: 480, Height: 270, Volume: 1}

// Options bundles dependencies for NewManager.
type Options struct {
	Store  storage.Store
	Logger *slog.Logger
}

// Manager reads and writes UI preferences. Reads never fail: missing or
// corrupt entries fall back to defaults, and corrupt entries are removed.
type Manager struct {
	store  storage.Store
	logger *slog.Logger
}

// NewManager creates a preferences manager.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: opts.Store, logger: logger}
}

// Theme returns the persisted theme, defaulting to DefaultTheme.
func (m *Manager) Theme(ctx context.Context) string {
	return m.getString(ctx, keyTheme, DefaultTheme)
}

// SetTheme persists the theme.
func (m *Manager) SetTheme(ctx context.Context, theme string) error {
	return m.store.Set(ctx, keyTheme, []byte(theme))
}

// TimeFormat returns the persisted clock format, defaulting to
// DefaultTimeFormat.
func (m *Manager) TimeFormat(ctx context.Context) string {
	return m.getString(ctx, keyTimeFormat, DefaultTimeFormat)
}

// SetTimeFormat persists the clock format.
func (m *Manager) SetTimeFormat(ctx context.Context, format string) error {
	return m.store.Set(ctx, keyTimeFormat, []byte(format))
}

// ShowHelp reports whether the help panel is enabled. Defaults to true.
func (m *Manager) ShowHelp(ctx context.Context) bool {
	raw := m.getString(ctx, keyShowHelp, "true")
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		m.discardCorrupt(ctx, keyShowHelp)
		return true
	}
	return enabled
}

// SetShowHelp persists the help panel flag.
func (m *Manager) SetShowHelp(ctx context.Context, enabled bool) error {
	return m.store.Set(ctx, keyShowHelp, []byte(strconv.FormatBool(enabled)))
}

// StartPage returns the remembered top-level section, or empty when none
// has been recorded. The navigation guard consumes this when resolving "/".
func (m *Manager) StartPage(ctx context.Context) string {
	return m.getString(ctx, keyStartPage, "")
}

// SetStartPage records the last-visited top-level section.
func (m *Manager) SetStartPage(ctx context.Context, path string) error {
	if path == "" {
		return m.store.Delete(ctx, keyStartPage)
	}
	return m.store.Set(ctx, keyStartPage, []byte(path))
}

// PlayerState returns the persisted player geometry, falling back to
// DefaultPlayerState when absent or corrupt.
func (m *Manager) PlayerState(ctx context.Context) PlayerState {
	raw, err := m.store.Get(ctx, keyPlayerState)
	if err != nil {
		return DefaultPlayerState
	}
	var state PlayerState
	if err := json.Unmarshal(raw, &state); err != nil {
		m.logger.Warn("persisted player state is corrupt, resetting")
		m.discardCorrupt(ctx, keyPlayerState)
		return DefaultPlayerState
	}
	return state
}

// SetPlayerState persists the player geometry.
func (m *Manager) SetPlayerState(ctx context.Context, state PlayerState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, keyPlayerState, encoded)
}

func (m *Manager) getString(ctx context.Context, key, fallback string) string {
	raw, err := m.store.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		return fallback
	}
	return string(raw)
}

func (m *Manager) discardCorrupt(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("remove corrupt preference failed",
			slog.String("key", key), slog.Any("error", err))
	}
}
