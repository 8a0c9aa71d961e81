package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/jwtx"
)

// backend plays the token service and the resource API. Access tokens are
// HS256 JWTs carrying the configured roles.
type backend struct {
	srv *httptest.Server

	mu           sync.Mutex
	generation   int
	roles        []string
	validAccess  string
	validRefresh string
	refreshDown  bool
	healthCode   int

	refreshCalls atomic.Int32
}

func newBackend(t *testing.T, roles ...string) *backend {
	t.Helper()

	b := &backend{roles: roles}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", b.handleToken)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("GET /health", b.handleHealth)
	mux.HandleFunc("/api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	})
	mux.HandleFunc("/api/slow", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	mux.HandleFunc("/api/", b.handleResource)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	return b
}

func (b *backend) issue() authsdk.TokenResponse {
	b.generation++

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-42",
			ID:      fmt.Sprintf("jti-%d", b.generation),
		},
		Roles:         b.roles,
		Username:      "alex",
		PreferredName: "Alex M",
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		panic(err)
	}

	b.validAccess = access
	b.validRefresh = fmt.Sprintf("refresh-%d", b.generation)

	return authsdk.TokenResponse{
		AccessToken:  b.validAccess,
		RefreshToken: b.validRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    300,
	}
}

func (b *backend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = ""
}

func (b *backend) revokeRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDown = true
}

func (b *backend) setHealth(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthCode = code
}

func (b *backend) accessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validAccess
}

func (b *backend) handleToken(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CodeExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code != "good-code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "authorization code is invalid or expired",
		})
		return
	}

	b.mu.Lock()
	resp := b.issue()
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	var req authsdk.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refreshDown || req.RefreshToken != b.validRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_grant",
			"error_description": "refresh token revoked",
		})
		return
	}
	writeJSON(w, http.StatusOK, b.issue())
}

func (b *backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	code := b.healthCode
	b.mu.Unlock()

	if code == 0 {
		code = http.StatusOK
	}
	status := "ok"
	if code >= 300 {
		status = "degraded"
	}
	if r.Header.Get("Authorization") != "" {
		status = "credential-leaked"
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func (b *backend) handleResource(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	valid := b.validAccess
	b.mu.Unlock()

	token := r.Header.Get("Authorization")
	if valid == "" || token != "Bearer "+valid {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	body, _ := io.ReadAll(r.Body)

	http.SetCookie(w, &http.Cookie{Name: "backend", Value: "1"})
	w.Header().Set("X-Backend", "leave-api")
	writeJSON(w, http.StatusOK, map[string]string{
		"method":     r.Method,
		"path":       r.URL.Path,
		"raw_path":   r.URL.EscapedPath(),
		"query":      r.URL.RawQuery,
		"body":       string(body),
		"token":      token,
		"cookie":     r.Header.Get("Cookie"),
		"accept":     r.Header.Get("Accept"),
		"custom":     r.Header.Get("X-Custom"),
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// agent is a router over a session wired to a backend.
type agent struct {
	router  *Router
	session *authsdk.Session
	backend *backend
	clock   clockwork.FakeClock
}

func newAgent(t *testing.T, b *backend, mutate ...func(*authsdk.Config, *Options)) *agent {
	t.Helper()

	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := authsdk.Config{
		APIBaseURL:        b.srv.URL,
		AuthorizeEndpoint: "https://idp.example.com/authorize",
		ClientID:          "leave-web",
		RedirectURI:       "http://127.0.0.1:8085/callback",
		Scopes:            []string{"openid", "leave:read"},
		UsePKCE:           true,
		HTTPTimeout:       5 * time.Second,
		Logger:            logger,
	}
	opts := Options{
		UIURL:        "/app",
		BuildVersion: "v-test",
		Clock:        clock,
	}
	for _, m := range mutate {
		m(&cfg, &opts)
	}

	sess, err := authsdk.NewSession(cfg)
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	router := NewRouter(sess, opts, logger)
	router.ApplyRoutes()
	t.Cleanup(router.Close)

	return &agent{router: router, session: sess, backend: b, clock: clock}
}

func (a *agent) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *agent) get(target string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, target, nil))
}

// login walks /login and /callback.
func (a *agent) login(t *testing.T) {
	t.Helper()

	rec := a.get("/login")
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	rec = a.get("/callback?code=good-code&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/app", rec.Header().Get("Location"))
	require.True(t, a.session.Guard.IsAuthenticated())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
