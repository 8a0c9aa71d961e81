package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/idx"
)

// ExpiryClassifier reports whether a resource API response is the
// backend's "credential expired" signal.
type ExpiryClassifier func(*http.Response) bool

// UnauthorizedIsExpiry treats HTTP 401 as expiry. 403 is a permission
// decision and is passed through.
func UnauthorizedIsExpiry(resp *http.Response) bool {
	return resp.StatusCode == http.StatusUnauthorized
}

// Freshener is the part of the Coordinator the dispatcher depends on.
type Freshener interface {
	EnsureFreshCredential(ctx context.Context, staleAccess string) error
	Expire(rejectedAccess string)
}

// Dispatcher is the single path to the resource API. It attaches the
// current access token to every request and, on an expiry response,
// refreshes through the coordinator and replays the request exactly once.
//
// It implements http.RoundTripper so it can sit under any *http.Client.
type Dispatcher struct {
	baseURL     string
	store       *Store
	coordinator Freshener
	next        http.RoundTripper
	isExpired   ExpiryClassifier
	client      *http.Client
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTransport sets the underlying transport. Defaults to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) DispatcherOption {
	return func(d *Dispatcher) { d.next = rt }
}

// WithExpiryClassifier overrides how expiry responses are recognised.
func WithExpiryClassifier(fn ExpiryClassifier) DispatcherOption {
	return func(d *Dispatcher) { d.isExpired = fn }
}

// WithTimeout sets the timeout of the client returned by Client.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.client.Timeout = timeout }
}

// NewDispatcher creates a dispatcher for the resource API at baseURL.
func NewDispatcher(baseURL string, store *Store, coordinator Freshener, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		store:       store,
		coordinator: coordinator,
		next:        http.DefaultTransport,
		isExpired:   UnauthorizedIsExpiry,
	}
	d.client = &http.Client{
		Transport: d,
		// Redirects go back to the caller; following one would carry the
		// credential to wherever the backend points.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Client returns an *http.Client whose requests go through the dispatcher.
func (d *Dispatcher) Client() *http.Client {
	return d.client
}

// NewRequest builds a request for path relative to the resource API base URL.
func (d *Dispatcher) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+"/"+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// Do sends req through the dispatcher.
func (d *Dispatcher) Do(req *http.Request) (*http.Response, error) {
	return d.client.Do(req)
}

// RoundTrip implements http.RoundTripper.
//
// Without a credential it fails with ErrUnauthenticated and makes no call.
// Every response other than expiry (403, 404, 5xx, transport errors) is
// returned untouched.
func (d *Dispatcher) RoundTrip(req *http.Request) (*http.Response, error) {
	pair, ok := d.store.Get()
	if !ok {
		closeBody(req)
		return nil, ErrUnauthenticated
	}

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	reqID := req.Header.Get("X-Request-ID")
	if !idx.Valid(reqID) {
		reqID = idx.New().String()
	}

	resp, err := d.attempt(req, reqID, pair, getBody)
	if err != nil || !d.isExpired(resp) {
		return resp, err
	}
	drainAndClose(resp)

	if err := d.coordinator.EnsureFreshCredential(req.Context(), pair.AccessToken); err != nil {
		return nil, err
	}

	fresh, ok := d.store.Get()
	if !ok {
		return nil, ErrSessionExpired
	}

	resp, err = d.attempt(req, reqID, fresh, getBody)
	if err != nil || !d.isExpired(resp) {
		return resp, err
	}
	drainAndClose(resp)

	d.coordinator.Expire(fresh.AccessToken)
	return nil, fmt.Errorf("%w: credential rejected after refresh", ErrSessionExpired)
}

// attempt sends a copy of req carrying the credential in p.
func (d *Dispatcher) attempt(
	req *http.Request,
	reqID string,
	p Pair,
	getBody func() (io.ReadCloser, error),
) (*http.Response, error) {
	out := req.Clone(req.Context())

	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
		out.GetBody = getBody
	}

	tokenType := p.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	out.Header.Set("Authorization", tokenType+" "+p.AccessToken)
	out.Header.Set("X-Request-ID", reqID)

	return d.next.RoundTrip(out)
}
