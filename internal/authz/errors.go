// Package authz implements the three authorizers: internal, root, and
// basic. All three share a JWT decode preamble (internal/jwtcodec) but
// diverge in their gate check, version/secret-expiry handling, and
// whether they raise or merely report failure.
package authz

import "net/http"

// HTTPError is raised by the internal and root authorizers: a failed
// authorization maps directly to an HTTP status and a stable detail
// string.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string { return e.Detail }

func unauthenticated() *HTTPError {
	return &HTTPError{Status: http.StatusUnauthorized, Detail: "Not authenticated"}
}

func forbidden() *HTTPError {
	return &HTTPError{Status: http.StatusForbidden, Detail: "Forbidden"}
}

func tokenError(status int, detail string) *HTTPError {
	return &HTTPError{Status: status, Detail: detail}
}

func internalInvariant(detail string) *HTTPError {
	return &HTTPError{Status: http.StatusInternalServerError, Detail: detail}
}

const (
	DetailVersionMismatch = "VERSION_MISMATCH"
	DetailSecretExpired   = "SECRET_EXPIRED"
)
