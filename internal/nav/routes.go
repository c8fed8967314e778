// Package nav holds the route table and the navigation guard that decides,
// for every requested path, whether to render it, redirect elsewhere, or
// report it unknown.
package nav

import "strings"

// Requirements captures what a route demands of the current session.
type Requirements struct {
	// Auth requires any authenticated session.
	Auth bool
	// Admin requires the admin role.
	Admin bool
	// Streamer requires streaming access. Admins qualify implicitly.
	Streamer bool
	// Entitlement, when non-empty, requires the named feature entitlement.
	Entitlement string
}

// Route is one entry in the navigation table.
type Route struct {
	Path string
	Name string

	// RedirectTo marks a pure alias; the guard redirects before any
	// requirement is evaluated.
	RedirectTo string

	Requires Requirements
}

// routes is the ordered navigation surface. Paths are matched exactly after
// trailing-slash normalisation; anything not listed is a not-found.
var routes = []Route{
	{Path: "/", Name: "landing", Requires: Requirements{Auth: true}},
	{Path: "/login", Name: "login"},
	{Path: "/dashboard", Name: "dashboard", Requires: Requirements{Auth: true}},
	{Path: "/guide", Name: "guide", Requires: Requirements{Auth: true, Streamer: true}},
	{Path: "/dvr", Name: "dvr", Requires: Requirements{Auth: true, Streamer: true, Entitlement: "dvr"}},
	{Path: "/channels", Name: "channels", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/playlists", Name: "playlists", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/epgs", Name: "epgs", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/tvheadend", Name: "tvheadend", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/users", Name: "users", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/audit", Name: "audit", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/settings", Name: "settings", Requires: Requirements{Auth: true, Admin: true}},
	{Path: "/general", Name: "general", RedirectTo: "/settings"},
	{Path: "/user-settings", Name: "user-settings", Requires: Requirements{Auth: true}},
}

// Resolve looks a path up in the route table.
func Resolve(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the navigation table.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
