package httpx

import (
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// OriginPolicy decides which browser contexts may drive the agent. The
// agent attaches the user's credential to proxied calls, so a page on
// another origin must not be able to trigger them.
type OriginPolicy struct {
	// Hosts are the Host header values the agent answers to, for example
	// "127.0.0.1:8085". Empty allows any host.
	Hosts []string

	// Origins are extra allowed origins such as a UI dev server,
	// "http://localhost:5173". The agent's own origin is always allowed.
	Origins []string
}

// RequireSameOrigin rejects requests whose Host is not one of p.Hosts or
// that a browser marks as coming from a foreign origin.
func RequireSameOrigin(p OriginPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason := p.reject(r); reason != "" {
				slogx.FromContext(r.Context()).Warn("cross-origin request rejected",
					"reason", reason,
					"origin", r.Header.Get("Origin"),
					"host", r.Host,
				)
				WriteError(w, http.StatusForbidden, "cross_origin", "Request origin not allowed.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p OriginPolicy) reject(r *http.Request) string {
	if len(p.Hosts) > 0 && !slices.Contains(p.Hosts, strings.ToLower(r.Host)) {
		return "host"
	}

	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		// No Origin: same-origin GET or a non-browser client. Sec-Fetch-Site
		// still catches cross-site navigations from modern browsers.
		if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
			return "fetch-site"
		}
		if origin == "null" {
			return "opaque-origin"
		}
		return ""
	}

	if slices.Contains(p.Origins, origin) {
		return ""
	}

	u, err := url.Parse(origin)
	if err != nil || !sameHost(u.Host, r.Host) {
		return "origin"
	}
	return ""
}

func sameHost(a, b string) bool {
	ah, ap, errA := net.SplitHostPort(a)
	bh, bp, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	return strings.EqualFold(ah, bh) && ap == bp
}
