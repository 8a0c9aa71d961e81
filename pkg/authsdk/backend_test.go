package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend plays the token service and the resource API.
type fakeBackend struct {
	srv *httptest.Server
	// closing releases handlers still held at a refresh gate.
	closing chan struct{}

	mu            sync.Mutex
	generation    int
	validAccess   map[string]bool
	validRefresh  string
	lastExchange  CodeExchangeRequest
	refreshGate   chan struct{}
	refreshStatus int
	refreshBody   string
	rejectAll     bool
	healthStatus  int

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
	expiredCalls  atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{validAccess: map[string]bool{}, closing: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", b.handleToken)
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("/api/", b.handleResource)
	mux.HandleFunc("GET /health", b.handleHealth)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	t.Cleanup(func() { close(b.closing) })

	return b
}

// issue mints the next generation of tokens and makes them the only valid ones.
func (b *fakeBackend) issue() TokenResponse {
	b.generation++
	access := fmt.Sprintf("access-%d", b.generation)
	refresh := fmt.Sprintf("refresh-%d", b.generation)

	b.validAccess = map[string]bool{access: true}
	b.validRefresh = refresh

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    300,
	}
}

func (b *fakeBackend) setHealthStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthStatus = code
}

func (b *fakeBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	code := b.healthStatus
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
	writeTestJSON(w, code, map[string]string{"status": status})
}

// expireAccess makes the resource API reject every current access token
// while leaving the refresh token usable.
func (b *fakeBackend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = map[string]bool{}
}

func (b *fakeBackend) setRefreshGate(gate chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshGate = gate
}

func (b *fakeBackend) setRefreshFailure(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
	b.refreshBody = body
}

func (b *fakeBackend) setRejectAll(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectAll = v
}

func (b *fakeBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	b.exchangeCalls.Add(1)

	var req CodeExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	b.mu.Lock()
	b.lastExchange = req
	b.mu.Unlock()

	if req.GrantType != "authorization_code" || req.Code != "good-code" {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "authorization code is invalid or expired",
		})
		return
	}

	b.mu.Lock()
	resp := b.issue()
	b.mu.Unlock()

	writeTestJSON(w, http.StatusOK, resp)
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	// Read the body before blocking: the server only notices a client
	// disconnect, and cancels r.Context(), once the body is consumed.
	var req RefreshRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		case <-b.closing:
			return
		}
	}

	if decodeErr != nil {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refreshStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.refreshStatus)
		_, _ = io.WriteString(w, b.refreshBody)
		return
	}
	if b.refreshBody != "" {
		_, _ = io.WriteString(w, b.refreshBody)
		return
	}

	if req.GrantType != "refresh_token" || req.RefreshToken != b.validRefresh {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_grant",
			"error_description": "refresh token revoked",
		})
		return
	}

	writeTestJSON(w, http.StatusOK, b.issue())
}

func (b *fakeBackend) handleResource(w http.ResponseWriter, r *http.Request) {
	b.resourceCalls.Add(1)

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	ok := b.validAccess[token] && !b.rejectAll
	b.mu.Unlock()

	if !ok {
		b.expiredCalls.Add(1)
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	switch r.URL.Path {
	case "/api/forbidden":
		writeTestJSON(w, http.StatusForbidden, map[string]string{"error": "access_denied"})
		return
	case "/api/moved":
		http.Redirect(w, r, "http://other.invalid/collect", http.StatusFound)
		return
	}

	body, _ := io.ReadAll(r.Body)
	writeTestJSON(w, http.StatusOK, map[string]string{
		"path":       r.URL.Path,
		"query":      r.URL.RawQuery,
		"body":       string(body),
		"token":      token,
		"request_id": r.Header.Get("X-Request-ID"),
	})
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestSession builds a session pointed at b.
func newTestSession(t *testing.T, b *fakeBackend) *Session {
	t.Helper()

	sess, err := NewSession(Config{
		APIBaseURL:        b.srv.URL,
		AuthorizeEndpoint: b.srv.URL + "/authorize",
		ClientID:          "leave-web",
		RedirectURI:       "http://127.0.0.1:8085/callback",
		Scopes:            []string{"openid", "leave:read"},
		UsePKCE:           true,
		HTTPTimeout:       5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	return sess
}

// login runs the whole authorization code flow against b.
func login(t *testing.T, sess *Session) Pair {
	t.Helper()

	redirect, err := sess.Flow.BuildAuthorizationRequest()
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)

	pair, err := sess.Flow.CompleteAuthorizationFlow(context.Background(), "good-code", u.Query().Get("state"))
	require.NoError(t, err)

	return pair
}

// get sends GET path through the dispatcher and decodes the echo body.
func get(ctx context.Context, sess *Session, path string) (map[string]string, int, error) {
	req, err := sess.Dispatcher.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := sess.Dispatcher.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out, resp.StatusCode, nil
}
