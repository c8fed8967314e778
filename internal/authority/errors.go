package authority

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the authority answers with a non-success
// HTTP status. Message carries the authority's rejection reason when the
// body contained one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authority: %d %s", e.Code, e.Message)
	}
	return fmt.Sprintf("authority: unexpected status %d", e.Code)
}

// IsAuthorization reports whether err represents an authorization failure
// (401/403). Authorization failures are destructive to session state;
// everything else is transient and must leave state intact.
func IsAuthorization(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0 when err does not
// wrap a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if !errors.As(err, &se) {
		return 0
	}
	return se.Code
}
