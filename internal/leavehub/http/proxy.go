package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// maxProxyBody caps request bodies forwarded to the resource API. Bodies
// are buffered for the single replay after a refresh.
const maxProxyBody = 8 << 20

// forwardedRequestHeaders are the only browser headers passed upstream.
// Cookies and any Authorization the browser sends never leave the agent.
var forwardedRequestHeaders = []string{
	"Accept",
	"Accept-Language",
	"Content-Type",
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
}

// droppedResponseHeaders are hop-by-hop or would let the backend set state
// in the browser behind the agent's back.
var droppedResponseHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Set-Cookie":          true,
	"Www-Authenticate":    true,
	"Content-Length":      true,
}

// ProxyHandler forwards /api/* to the resource API through the dispatcher.
type ProxyHandler struct {
	Dispatcher *authsdk.Dispatcher
}

// ServeHTTP godoc
//
//	@Summary		Resource API proxy
//	@Description	Forwards the request to the resource API with the session's access token. On an
//	@Description	expiry rejection the agent refreshes once, shared by all concurrent callers, and
//	@Description	replays the request once. Backend responses, including 403, pass through.
//	@Tags			API
//	@Param			path	path		string					true	"Resource path under /api/"
//	@Success		200		{string}	string					"Backend response"
//	@Failure		401		{object}	map[string]interface{}	"Not signed in, or session expired"	example({"error":"session_expired","error_description":"Your session expired, please sign in again."})
//	@Failure		403		{object}	map[string]interface{}	"Cross-origin request or missing role"
//	@Failure		502		{object}	map[string]interface{}	"Resource API unreachable"
//	@Failure		504		{object}	map[string]interface{}	"Resource API timed out"
//	@Router			/api/{path} [get]
//	@Router			/api/{path} [post]
//	@Router			/api/{path} [put]
//	@Router			/api/{path} [patch]
//	@Router			/api/{path} [delete]
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	// The escaped form keeps an encoded slash inside a segment from
	// becoming a path separator upstream.
	target := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.ContentLength != 0 {
		body = http.MaxBytesReader(w, r.Body, maxProxyBody)
	}

	out, err := h.Dispatcher.NewRequest(r.Context(), r.Method, target, body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "Malformed request.")
		return
	}
	for _, k := range forwardedRequestHeaders {
		if v := r.Header.Values(k); len(v) > 0 {
			out.Header[k] = v
		}
	}
	if reqID := slogx.RequestIDFromContext(r.Context()); reqID != "" {
		out.Header.Set("X-Request-ID", reqID)
	}

	resp, err := h.Dispatcher.Do(out)
	if err != nil {
		h.writeDispatchError(w, r, err)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		if !droppedResponseHeaders[http.CanonicalHeaderKey(k)] {
			w.Header()[k] = v
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Warn("proxy response copy interrupted", "error", err)
	}
}

func (h *ProxyHandler) writeDispatchError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var maxErr *http.MaxBytesError
	var netErr net.Error

	switch {
	case errors.Is(err, authsdk.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, authsdk.ErrorCodeUnauthenticated, authsdk.MessageUnauthenticated)
	case errors.Is(err, authsdk.ErrSessionExpired):
		log.Info("session expired", "error", err)
		httpx.WriteError(w, http.StatusUnauthorized, authsdk.ErrorCodeSessionExpired, authsdk.MessageSessionExpired)
	case errors.As(err, &maxErr):
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, authsdk.ErrorCodeInvalidRequest, "Request body too large.")
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		log.Debug("client went away", "error", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		log.Warn("resource API timed out", "error", err)
		httpx.WriteError(w, http.StatusGatewayTimeout, authsdk.ErrorCodeUpstreamError, authsdk.MessageUnavailable)
	default:
		log.Error("resource API unreachable", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, authsdk.ErrorCodeUpstreamError, authsdk.MessageUnavailable)
	}
}
