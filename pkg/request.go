package pkg

import (
	"net/http"
	"strings"
)

// AccessToken extracts the bearer credential of a request.
//
// Lookup order:
//  1. http-only cookie cookieName
//  2. "token" query parameter (only when allowQuery; socket handshakes)
//  3. Authorization: Bearer <token>
//
// Returns "" when no credential is present.
func AccessToken(r *http.Request, cookieName string, allowQuery bool) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	if allowQuery {
		if t := r.URL.Query().Get("token"); t != "" {
			return t
		}
	}

	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	return ""
}
