/*
Package authsdk is the authentication session core of the leave-management client.

# Overview

It turns a one-time authorization code into a live credential for every call to
the resource API, survives credential expiry transparently, and keeps the
credential in process memory only.

The core is a handful of small components sharing one Credential Store:

  - Store: the current access/refresh pair, with synchronous change notification
  - Flow: builds the identity provider redirect and completes the code exchange
  - Dispatcher: the only path to the resource API; attaches the access token
  - Coordinator: coalesces refreshes so at most one is ever in flight
  - Guard: answers "is anyone signed in" and "does the user hold this role"

Session wires them together:

	sess, err := authsdk.NewSession(authsdk.Config{
		APIBaseURL:        "https://leave.example.com",
		AuthorizeEndpoint: "https://idp.example.com/authorize",
		ClientID:          "leave-web",
		RedirectURI:       "http://127.0.0.1:8085/callback",
		Scopes:            []string{"openid", "leave:read"},
	})
	defer sess.Close()

# Authorization Code Flow

	redirectURL, err := sess.Flow.BuildAuthorizationRequest()
	// ... the browser returns to the callback with code and state ...
	pair, err := sess.Flow.CompleteAuthorizationFlow(ctx, code, state)

A returned state that does not match the last issued one fails with
ErrStateMismatch and never writes the store. The pending state is consumed by
every completion attempt.

# Resource Requests

	req, _ := sess.Dispatcher.NewRequest(ctx, http.MethodGet, "/api/leave/balance", nil)
	resp, err := sess.Dispatcher.Do(req)

Without a credential the call fails with ErrUnauthenticated and nothing is sent.
A 401 triggers one coalesced refresh and exactly one replay of the request. If
the refresh fails, or the replay is rejected as expired too, the store is
cleared and the call fails with ErrSessionExpired. A 403 and every other status
are returned to the caller untouched.

# Error Handling

	switch {
	case errors.Is(err, authsdk.ErrUnauthenticated):
		// route to login
	case errors.Is(err, authsdk.ErrSessionExpired):
		// route to login with "your session expired"
	}

	var exErr *authsdk.ExchangeError
	if errors.As(err, &exErr) {
		log.Warn("code exchange failed", "code", exErr.Code)
	}

UserMessage maps any of these to the text shown to the user.
*/
package authsdk
