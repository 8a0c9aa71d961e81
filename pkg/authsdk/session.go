package authsdk

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// Config wires a Session.
type Config struct {
	// APIBaseURL is the resource API and token service base URL
	APIBaseURL string

	// AuthorizeEndpoint is the identity provider's authorize URL
	AuthorizeEndpoint string
	ClientID          string
	RedirectURI       string
	Scopes            []string
	UsePKCE           bool
	StateTTL          time.Duration

	// HTTPTimeout bounds token service calls. It is the only bound on a
	// refresh; a refresh that times out ends the session. Defaults to 30 seconds.
	HTTPTimeout time.Duration

	// RequestTimeout bounds a whole resource request including any refresh
	// it waits on. Zero leaves it to the caller's context.
	RequestTimeout time.Duration

	// Transport is the underlying transport for all outbound calls.
	// Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	// ExpiryClassifier overrides UnauthorizedIsExpiry.
	ExpiryClassifier ExpiryClassifier

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Session is the authentication session core: one Credential Store and
// the components that read and write it.
type Session struct {
	Store       *Store
	Flow        *Flow
	Coordinator *Coordinator
	Dispatcher  *Dispatcher
	Guard       *Guard

	client *SDKClient
}

// NewSession builds a session core. The API base URL and client id are
// required up front; identity provider settings are checked when a login
// starts.
func NewSession(cfg Config) (*Session, error) {
	var missing []string
	if cfg.APIBaseURL == "" {
		missing = append(missing, "api base url")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "authsdk")

	client := NewSDKClient(cfg.APIBaseURL, cfg.ClientID, &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: cfg.Transport,
	})

	store := NewStore()
	coordinator := NewCoordinator(store, client, cfg.Clock, logger)

	opts := []DispatcherOption{
		WithTransport(cfg.Transport),
		WithTimeout(cfg.RequestTimeout),
	}
	if cfg.ExpiryClassifier != nil {
		opts = append(opts, WithExpiryClassifier(cfg.ExpiryClassifier))
	}

	flow := NewFlow(FlowConfig{
		AuthorizeEndpoint: cfg.AuthorizeEndpoint,
		ClientID:          cfg.ClientID,
		RedirectURI:       cfg.RedirectURI,
		Scopes:            cfg.Scopes,
		UsePKCE:           cfg.UsePKCE,
		StateTTL:          cfg.StateTTL,
	}, client, store, cfg.Clock, logger)

	return &Session{
		Store:       store,
		Flow:        flow,
		Coordinator: coordinator,
		Dispatcher:  NewDispatcher(cfg.APIBaseURL, store, coordinator, opts...),
		Guard:       NewGuard(store),
		client:      client,
	}, nil
}

// Client returns the token service client.
func (s *Session) Client() *SDKClient {
	return s.client
}

// Logout ends the session explicitly.
func (s *Session) Logout() {
	s.Flow.Abandon()
	s.Store.Clear(ReasonLogout)
}

// Close tears the session down: any pending flow is discarded, an
// in-flight refresh is cancelled and its waiters released, and the store
// is cleared.
func (s *Session) Close() {
	s.Flow.Abandon()
	s.Coordinator.Close()
}
