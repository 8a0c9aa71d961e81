package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
)

// Exchanger trades a one-time authorization code for a credential pair.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*TokenResponse, error)
}

// Refresher mints a new credential pair from a refresh token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

var (
	_ Exchanger = (*SDKClient)(nil)
	_ Refresher = (*SDKClient)(nil)
)

// ExchangeCode exchanges an authorization code for tokens at POST /auth/token.
// The call is made once; codes are single-use and are never re-sent.
func (c *SDKClient) ExchangeCode(
	ctx context.Context,
	code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	return c.requestToken(ctx, c.TokenPath, &CodeExchangeRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     c.ClientID,
		RedirectURI:  redirectURI,
		CodeVerifier: codeVerifier,
	})
}

// Refresh requests new tokens at POST /auth/refresh.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.requestToken(ctx, c.RefreshPath, &RefreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientID:     c.ClientID,
	})
}

// requestToken posts body to path and decodes a token response. Non-2xx
// responses come back as *OAuth2Error; transport failures are wrapped.
func (c *SDKClient) requestToken(ctx context.Context, path string, body any) (*TokenResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, parseErrorResponse(resp.StatusCode(), resp.Body())
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(resp.Body(), &tokenResp); err != nil {
		return nil, NewOAuth2Error(resp.StatusCode(), ErrorCodeInvalidResponse, "failed to decode token response")
	}

	if tokenResp.AccessToken == "" {
		return nil, NewOAuth2Error(resp.StatusCode(), ErrorCodeInvalidResponse, "token response missing access_token")
	}

	return &tokenResp, nil
}
