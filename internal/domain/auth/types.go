// Package auth contains domain-level types for the client-side session.
// It is pure and free of transport/storage concerns.
package auth

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and wire payloads.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStreamer Role = "streamer"
)

// User is the cached profile of the authenticated principal, as reported
// by the authority.
type User struct {
	ID           int      `json:"id"`
	Username     string   `json:"username"`
	Roles        []Role   `json:"roles"`
	Entitlements []string `json:"entitlements,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// CanStream reports whether the user may access streamer-level surfaces.
// Admins implicitly have streamer access.
func (u User) CanStream() bool { return u.IsAdmin() || u.HasRole(RoleStreamer) }

// HasEntitlement reports whether the user holds the named feature
// entitlement. Admins hold every entitlement implicitly.
func (u User) HasEntitlement(name string) bool {
	if u.IsAdmin() {
		return true
	}
	for _, e := range u.Entitlements {
		if e == name {
			return true
		}
	}
	return false
}

// Session is the client's belief about current authentication validity.
// Token is the opaque bearer credential; User is non-nil only while a
// token is held.
type Session struct {
	Token           string     `json:"token"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	User            *User      `json:"user,omitempty"`
	LastValidatedAt time.Time  `json:"last_validated_at"`
}

// IsAuthenticated reports whether a bearer credential is currently held.
func (s Session) IsAuthenticated() bool { return s.Token != "" }

// Roles returns the cached role set, or nil when unauthenticated.
func (s Session) Roles() []Role {
	if s.User == nil {
		return nil
	}
	return s.User.Roles
}

// NearExpiry reports whether the token expires within the lead window.
// A session with no recorded expiry is treated as near expiry so that a
// non-forced check refreshes it rather than trusting stale state.
func (s Session) NearExpiry(now time.Time, lead time.Duration) bool {
	if s.ExpiresAt == nil {
		return true
	}
	return s.ExpiresAt.Sub(now) <= lead
}

// FreshlyValidated reports whether a full validation succeeded within ttl.
func (s Session) FreshlyValidated(now time.Time, ttl time.Duration) bool {
	if s.LastValidatedAt.IsZero() {
		return false
	}
	return now.Sub(s.LastValidatedAt) < ttl
}
