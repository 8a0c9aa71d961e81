package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
)

// ============================================================================
// OAuth2 Error Codes (RFC 6749)
// ============================================================================

const (
	ErrorCodeInvalidRequest   = "invalid_request"
	ErrorCodeInvalidGrant     = "invalid_grant"
	ErrorCodeInvalidClient    = "invalid_client"
	ErrorCodeServerError      = "server_error"
	ErrorCodeInvalidToken     = "invalid_token"
	ErrorCodeAccessDenied     = "access_denied"
	ErrorCodeSessionExpired   = "session_expired"
	ErrorCodeUnauthenticated  = "unauthenticated"
	ErrorCodeStateMismatch    = "state_mismatch"
	ErrorCodeExchangeFailed   = "exchange_failed"
	ErrorCodeConfiguration    = "configuration_error"
	ErrorCodeTransportError   = "transport_error"
	ErrorCodeInvalidResponse  = "invalid_response"
	ErrorCodeTooManyRequests  = "too_many_requests"
	ErrorCodeTemporarilyDown  = "temporarily_unavailable"
	ErrorCodeUpstreamError    = "upstream_error"
	ErrorCodeMethodNotAllowed = "method_not_allowed"
)

// ============================================================================
// Session errors
// ============================================================================

var (
	// ErrUnauthenticated is returned by the dispatcher when no credential is
	// present. No network call is made.
	ErrUnauthenticated = errors.New("authsdk: not authenticated")

	// ErrSessionExpired is returned when a refresh failed or a retried request
	// was rejected as expired again. The store is absent afterwards.
	ErrSessionExpired = errors.New("authsdk: session expired")

	// ErrStateMismatch is returned when the state returned by the identity
	// provider does not match the pending flow, or no flow is pending.
	ErrStateMismatch = errors.New("authsdk: authorization state mismatch")

	// ErrPartialCredential is returned when a pair missing either token is
	// written to the store.
	ErrPartialCredential = errors.New("authsdk: credential pair must carry both tokens")
)

// ConfigurationError reports missing or invalid setup. It is fatal and never
// retried.
type ConfigurationError struct {
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("authsdk: configuration error: missing %s", strings.Join(e.Missing, ", "))
	}
	return "authsdk: configuration error: " + e.Reason
}

// ExchangeError is returned when the token endpoint rejects an authorization
// code exchange or the exchange could not be completed.
type ExchangeError struct {
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authsdk: code exchange failed (%d %s): %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("authsdk: code exchange failed (%s): %v", e.Code, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// AuthorizationDeniedError is returned when the identity provider redirects
// back with an error instead of a code.
type AuthorizationDeniedError struct {
	Code        string
	Description string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.Description == "" {
		return "authsdk: authorization denied: " + e.Code
	}
	return fmt.Sprintf("authsdk: authorization denied: %s: %s", e.Code, e.Description)
}

// ============================================================================
// OAuth2Error - error body returned by the backend
// ============================================================================

// OAuth2Error represents an error response from the backend token service.
// It is also used to write this agent's own JSON error responses.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as a JSON response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// NewOAuth2Error creates a new OAuth2Error.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// parseErrorResponse turns a non-2xx backend response body into an
// OAuth2Error. Backends in the wild use a handful of shapes:
//
//	{"error": "invalid_grant", "error_description": "..."}
//	{"code": "invalid_grant", "message": "..."}
//	{"error": {"code": "invalid_grant", "message": "..."}}
func parseErrorResponse(statusCode int, body []byte) *OAuth2Error {
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)

		if e := doc.Get("error"); e.IsObject() {
			if code := e.Get("code").String(); code != "" {
				return NewOAuth2Error(statusCode, code, e.Get("message").String())
			}
		} else if code := e.String(); code != "" {
			return NewOAuth2Error(statusCode, code, doc.Get("error_description").String())
		}

		if code := doc.Get("code").String(); code != "" {
			return NewOAuth2Error(statusCode, code, doc.Get("message").String())
		}
	}

	return NewOAuth2Error(
		statusCode,
		ErrorCodeServerError,
		fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode)),
	)
}

// ============================================================================
// User-facing messages
// ============================================================================

const (
	MessageSessionExpired  = "Your session expired, please sign in again."
	MessageUnauthenticated = "Please sign in."
	MessageSignInFailed    = "Sign-in failed, please try again."
	MessageUnavailable     = "Service unavailable."
)

// UserMessage maps a session error to the message shown to the user.
// Backend error codes are logged by callers, never shown.
func UserMessage(err error) string {
	var cfgErr *ConfigurationError
	var exErr *ExchangeError
	var deniedErr *AuthorizationDeniedError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionExpired):
		return MessageSessionExpired
	case errors.Is(err, ErrUnauthenticated):
		return MessageUnauthenticated
	case errors.As(err, &cfgErr):
		return MessageUnavailable
	case errors.Is(err, ErrStateMismatch),
		errors.As(err, &exErr),
		errors.As(err, &deniedErr):
		return MessageSignInFailed
	default:
		return MessageUnavailable
	}
}
