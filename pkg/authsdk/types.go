package authsdk

import (
	"time"
)

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is the body returned by POST /auth/token and POST /auth/refresh.
type TokenResponse struct {
	// AccessToken is the short-lived credential attached to every resource request
	AccessToken string `json:"access_token"`

	// RefreshToken is the longer-lived credential used only to mint new access tokens.
	// The refresh route may omit it, in which case the previous one stays in use.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is normally "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the advisory lifetime of the access token in seconds
	ExpiresIn int `json:"expires_in,omitempty"`

	// Scope is the space-delimited list of granted scopes
	Scope string `json:"scope,omitempty"`
}

// pair converts the response into a credential pair. fallbackRefresh is
// used when the response carries no refresh token.
func (t *TokenResponse) pair(now time.Time, fallbackRefresh string) Pair {
	p := Pair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if p.RefreshToken == "" {
		p.RefreshToken = fallbackRefresh
	}
	if p.TokenType == "" {
		p.TokenType = "Bearer"
	}
	if t.ExpiresIn > 0 {
		p.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return p
}

// ============================================================================
// Request Types
// ============================================================================

// CodeExchangeRequest is the JSON body sent to POST /auth/token.
type CodeExchangeRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier,omitempty"`
}

// RefreshRequest is the JSON body sent to POST /auth/refresh.
type RefreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}
