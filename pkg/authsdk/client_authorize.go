package authsdk

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/cryptox"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier stays with the pending flow, the challenge goes to the identity provider.
type PKCEChallenge struct {
	// Verifier is the high-entropy random string (kept secret)
	Verifier string

	// Challenge is the base64url-encoded SHA256 hash of the verifier
	Challenge string

	// Method is always "S256"
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair
// (RFC 7636, S256).
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	hash := sha256.Sum256([]byte(verifier))

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(hash[:]),
		Method:    "S256",
	}, nil
}

// BuildAuthorizeURL constructs the identity provider redirect for the
// authorization code flow. Query parameters already present on the
// authorize endpoint are preserved.
//
// Example:
//
//	pkce, _ := authsdk.GeneratePKCEChallenge()
//	u, err := authsdk.BuildAuthorizeURL("https://idp.example.com/authorize", "leave-web",
//		"http://127.0.0.1:8085/callback", state, []string{"openid", "leave:read"}, pkce)
func BuildAuthorizeURL(
	authorizeEndpoint, clientID, redirectURI, state string,
	scopes []string,
	pkce *PKCEChallenge,
) (string, error) {
	u, err := url.Parse(authorizeEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse authorize endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &ConfigurationError{Reason: fmt.Sprintf("authorize endpoint %q is not absolute", authorizeEndpoint)}
	}

	params := u.Query()
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)

	if state != "" {
		params.Set("state", state)
	}

	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	if pkce != nil {
		params.Set("code_challenge", pkce.Challenge)
		params.Set("code_challenge_method", pkce.Method)
	}

	u.RawQuery = params.Encode()
	return u.String(), nil
}

// ParseAuthorizationCallback extracts the code and state from the identity
// provider's redirect back to us. An error redirect is returned as
// *AuthorizationDeniedError.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	query := u.Query()

	if errorCode := query.Get("error"); errorCode != "" {
		return "", "", &AuthorizationDeniedError{
			Code:        errorCode,
			Description: query.Get("error_description"),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("callback missing authorization code")
	}

	state = query.Get("state")

	return code, state, nil
}
