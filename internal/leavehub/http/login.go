package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// LoginHandler starts and completes the authorization code flow.
type LoginHandler struct {
	Flow   *authsdk.Flow
	Guard  *authsdk.Guard
	UIURL  string
	Logger *slog.Logger
}

// HandleLogin redirects the browser to the identity provider.
//
//	@Summary		Start sign-in
//	@Description	Generates fresh anti-replay state (and a PKCE challenge when enabled) and
//	@Description	redirects to the identity provider. Starting again replaces any pending sign-in.
//	@Tags			Session
//	@Produce		json
//	@Success		302	{string}	string					"Redirect to the identity provider"
//	@Failure		429	{object}	map[string]interface{}	"Too many sign-in attempts"
//	@Failure		503	{object}	map[string]interface{}	"Identity provider not configured"	example({"error":"configuration","error_description":"Service unavailable."})
//	@Router			/login [get]
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	redirectURL, err := h.Flow.BuildAuthorizationRequest()
	if err != nil {
		log.Error("failed to start sign-in", "error", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, authsdk.ErrorCodeConfiguration, authsdk.UserMessage(err))
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// HandleCallback completes sign-in and sends the browser back to the UI.
// Failures land on the UI too, with auth_error and auth_message query
// parameters for the sign-in screen to show.
//
//	@Summary		Complete sign-in
//	@Description	Redirect target of the identity provider. Verifies the anti-replay state, exchanges
//	@Description	the code once and stores the credential in the agent. The browser is sent back to
//	@Description	the UI either way; on failure the UI URL carries auth_error and auth_message.
//	@Tags			Session
//	@Param			code				query		string	false	"Authorization code"
//	@Param			state				query		string	true	"Anti-replay state from /login"
//	@Param			error				query		string	false	"Identity provider error code"
//	@Param			error_description	query		string	false	"Identity provider error detail"
//	@Success		302					{string}	string	"Redirect to the UI"
//	@Router			/callback [get]
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	query := r.URL.Query()

	code, state, err := authsdk.ParseAuthorizationCallback(r.URL.String())
	if err != nil {
		var denied *authsdk.AuthorizationDeniedError
		if errors.As(err, &denied) {
			// The identity provider ended this attempt; its state is spent.
			h.Flow.Abandon()
			log.Warn("sign-in denied by identity provider", "code", denied.Code)
			h.redirectWithError(w, r, denied.Code, err)
			return
		}
		// A missing code still has to consume the pending state.
		state = query.Get("state")
	}

	if _, err := h.Flow.CompleteAuthorizationFlow(r.Context(), code, state); err != nil {
		errCode := authsdk.ErrorCodeExchangeFailed
		var exErr *authsdk.ExchangeError
		switch {
		case errors.Is(err, authsdk.ErrStateMismatch):
			errCode = authsdk.ErrorCodeStateMismatch
		case errors.As(err, &exErr):
			errCode = exErr.Code
		}

		log.Warn("sign-in failed", "error", err, "code", errCode)
		h.redirectWithError(w, r, errCode, err)
		return
	}

	id, _ := h.Guard.Identity()
	log.Info("signed in", "user_id", id.UserID)

	httpx.NoCache(w)
	http.Redirect(w, r, h.UIURL, http.StatusFound)
}

func (h *LoginHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string, err error) {
	target, parseErr := url.Parse(h.UIURL)
	if parseErr != nil {
		httpx.WriteError(w, http.StatusBadRequest, code, authsdk.UserMessage(err))
		return
	}

	q := target.Query()
	q.Set("auth_error", code)
	q.Set("auth_message", authsdk.UserMessage(err))
	target.RawQuery = q.Encode()

	httpx.NoCache(w)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// LogoutHandler ends the session.
type LogoutHandler struct {
	Session *authsdk.Session
	UIURL   string
}

// ServeHTTP clears the credential and sends the browser back to the UI.
//
//	@Summary		Sign out
//	@Description	Discards the credential held by the agent. Subscribers of /session/events
//	@Description	receive a "logout" transition.
//	@Tags			Session
//	@Success		303	{string}	string					"Redirect to the UI"
//	@Failure		403	{object}	map[string]interface{}	"Cross-origin request"
//	@Router			/logout [post]
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Session.Logout()
	slogx.FromContext(r.Context()).Info("signed out")

	httpx.NoCache(w)
	http.Redirect(w, r, h.UIURL, http.StatusSeeOther)
}
