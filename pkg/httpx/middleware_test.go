package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
)

type fakeSession struct {
	signedIn bool
	roles    []string
}

func (f fakeSession) IsAuthenticated() bool { return f.signedIn }

func (f fakeSession) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(f.roles, r) {
			return true
		}
	}
	return false
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		session  fakeSession
		wantCode int
	}{
		{"signed in", fakeSession{signedIn: true}, http.StatusOK},
		{"signed out", fakeSession{}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(httpx.RequireSession(tt.session)(okHandler), "127.0.0.1:1", "/api/leave")
			require.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Equal(t, "unauthenticated", body["error"])
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		roles    []string
		wantCode int
	}{
		{"holds one", []string{"employee", "manager"}, http.StatusOK},
		{"holds none", []string{"employee"}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fakeSession{signedIn: true, roles: tt.roles}
			h := httpx.Chain(okHandler, httpx.RequireSession(s), httpx.RequireAnyRole(s, "manager", "hr-admin"))

			rec := serve(h, "127.0.0.1:1", "/api/approvals")
			require.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestParseSpaceDelimitedFields(t *testing.T) {
	t.Parallel()

	require.Nil(t, httpx.ParseSpaceDelimitedFields("   "))
	require.Equal(t, []string{"openid", "leave:read"}, httpx.ParseSpaceDelimitedFields(" openid  leave:read "))
}
