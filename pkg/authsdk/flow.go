package authsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/cryptox"
)

// DefaultStateTTL bounds how long a pending authorization flow is accepted.
const DefaultStateTTL = 10 * time.Minute

// FlowConfig describes this client to the identity provider.
type FlowConfig struct {
	// AuthorizeEndpoint is the identity provider's authorize URL
	AuthorizeEndpoint string
	ClientID          string
	RedirectURI       string
	Scopes            []string

	// UsePKCE adds an S256 code challenge to the authorization request
	UsePKCE bool

	// StateTTL defaults to DefaultStateTTL
	StateTTL time.Duration
}

func (c FlowConfig) validate() error {
	var missing []string
	if c.AuthorizeEndpoint == "" {
		missing = append(missing, "authorize endpoint")
	}
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// pendingFlow is the transient record of the one outstanding authorization request.
type pendingFlow struct {
	state    string
	verifier string
	issuedAt time.Time
}

// Flow is the authorization code flow initiator. It keeps at most one
// pending flow; starting a new one replaces the previous state.
type Flow struct {
	cfg       FlowConfig
	exchanger Exchanger
	store     *Store
	clock     clockwork.Clock
	logger    *slog.Logger

	mu      sync.Mutex
	pending *pendingFlow
}

// NewFlow creates a flow initiator writing into store. Configuration is
// checked lazily by BuildAuthorizationRequest so a missing identity
// provider surfaces as a ConfigurationError at the point of use.
func NewFlow(cfg FlowConfig, exchanger Exchanger, store *Store, clock clockwork.Clock, logger *slog.Logger) *Flow {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultStateTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Flow{
		cfg:       cfg,
		exchanger: exchanger,
		store:     store,
		clock:     clock,
		logger:    logger,
	}
}

// BuildAuthorizationRequest generates fresh anti-replay state, remembers it
// for the pending flow and returns the identity provider URL to redirect to.
func (f *Flow) BuildAuthorizationRequest() (string, error) {
	if err := f.cfg.validate(); err != nil {
		return "", err
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	var pkce *PKCEChallenge
	if f.cfg.UsePKCE {
		pkce, err = GeneratePKCEChallenge()
		if err != nil {
			return "", err
		}
	}

	redirectURL, err := BuildAuthorizeURL(
		f.cfg.AuthorizeEndpoint,
		f.cfg.ClientID,
		f.cfg.RedirectURI,
		state,
		f.cfg.Scopes,
		pkce,
	)
	if err != nil {
		return "", err
	}

	p := &pendingFlow{state: state, issuedAt: f.clock.Now()}
	if pkce != nil {
		p.verifier = pkce.Verifier
	}

	f.mu.Lock()
	f.pending = p
	f.mu.Unlock()

	return redirectURL, nil
}

// CompleteAuthorizationFlow checks returnedState against the pending flow
// and, on a match, exchanges code for a credential pair and writes it to
// the store.
//
// The pending state is consumed by this call whatever the outcome. A
// mismatch, an expired flow or no pending flow at all returns
// ErrStateMismatch without touching the store. Exchange failures come back
// as *ExchangeError; the code is never re-sent.
func (f *Flow) CompleteAuthorizationFlow(ctx context.Context, code, returnedState string) (Pair, error) {
	f.mu.Lock()
	p := f.pending
	f.pending = nil
	f.mu.Unlock()

	if p == nil {
		return Pair{}, ErrStateMismatch
	}
	if !cryptox.EqualTokens(p.state, returnedState) {
		return Pair{}, ErrStateMismatch
	}
	if f.clock.Since(p.issuedAt) > f.cfg.StateTTL {
		return Pair{}, fmt.Errorf("%w: pending flow expired", ErrStateMismatch)
	}

	if code == "" {
		return Pair{}, &ExchangeError{
			Code:        ErrorCodeInvalidRequest,
			Description: "missing authorization code",
			Err:         errors.New("missing authorization code"),
		}
	}

	tokenResp, err := f.exchanger.ExchangeCode(ctx, code, f.cfg.RedirectURI, p.verifier)
	if err != nil {
		exErr := toExchangeError(err)
		f.logger.WarnContext(ctx, "authorization code exchange failed",
			"status", exErr.StatusCode,
			"code", exErr.Code,
		)
		return Pair{}, exErr
	}

	pair := tokenResp.pair(f.clock.Now(), "")
	if !pair.Valid() {
		return Pair{}, &ExchangeError{
			Code:        ErrorCodeInvalidResponse,
			Description: "token response missing refresh_token",
			Err:         ErrPartialCredential,
		}
	}

	if err := f.store.Set(&pair, ReasonLogin); err != nil {
		return Pair{}, err
	}

	f.logger.InfoContext(ctx, "session established",
		"access_fp", cryptox.FingerprintToken(pair.AccessToken),
	)
	return pair, nil
}

// Pending reports whether an authorization request is outstanding.
func (f *Flow) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}

// SweepExpired discards the pending flow once it is older than the state
// TTL and reports whether it did.
func (f *Flow) SweepExpired() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending == nil || f.clock.Since(f.pending.issuedAt) <= f.cfg.StateTTL {
		return false
	}
	f.pending = nil
	return true
}

// Abandon discards any pending anti-replay state.
func (f *Flow) Abandon() {
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}

func toExchangeError(err error) *ExchangeError {
	var oauthErr *OAuth2Error
	if errors.As(err, &oauthErr) {
		return &ExchangeError{
			StatusCode:  oauthErr.StatusCode,
			Code:        oauthErr.Code,
			Description: oauthErr.Description,
			Err:         err,
		}
	}
	return &ExchangeError{
		Code:        ErrorCodeTransportError,
		Description: "token endpoint unreachable",
		Err:         err,
	}
}
