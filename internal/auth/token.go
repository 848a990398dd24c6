package auth

import (
	"net/http"
	"strings"
)

const (
	AccessTokenCookie = "sf_staff_token"

	// StreamTokenParam carries the token on event-stream requests, where
	// browsers cannot set headers.
	StreamTokenParam = "access_token"
)

// ExtractAccessToken looks for a staff token in the cookie, then the bearer
// header, then (for event streams only) the query string.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}

	if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/stream") {
		return r.URL.Query().Get(StreamTokenParam)
	}
	return ""
}
