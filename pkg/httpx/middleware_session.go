package httpx

import (
	"net/http"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// SessionChecker reports whether the agent currently holds a credential.
type SessionChecker interface {
	IsAuthenticated() bool
}

// RoleChecker reports whether the signed-in user holds any of the roles.
type RoleChecker interface {
	HasAnyRole(roles ...string) bool
}

// RequireSession rejects requests with 401 while no one is signed in.
// The body follows the OAuth2 error shape so the UI can branch on "error".
func RequireSession(s SessionChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.IsAuthenticated() {
				slogx.FromContext(r.Context()).Debug("request without session", "path", r.URL.Path)
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "Please sign in.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole rejects requests with 403 unless the signed-in user holds
// at least one of the roles. It does not check for a session; chain it
// after RequireSession.
func RequireAnyRole(c RoleChecker, roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.HasAnyRole(roles...) {
				WriteJSON(w, http.StatusForbidden, map[string]any{
					"error":             "insufficient_role",
					"error_description": "You do not have access to this page.",
					"roles":             roles,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
