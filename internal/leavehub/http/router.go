package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/venkateshmergu-svg/LMS-ORG-01-sub000/api/leavehub" // Swagger docs
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// RouteRole requires one of Roles for proxied API paths under Prefix
// (relative to /api/, ending in "/").
type RouteRole struct {
	Prefix string
	Roles  []string
}

// String renders rr in the LEAVEHUB_ROUTE_ROLES form.
func (rr RouteRole) String() string {
	return rr.Prefix + "=" + strings.Join(rr.Roles, "|")
}

// Options configures the agent surface.
type Options struct {
	UIURL        string
	Swagger      bool
	RouteRoles   []RouteRole
	Origins      httpx.OriginPolicy
	LoginLimit   httpx.RateLimitConfig
	ProbeLimit   httpx.RateLimitConfig
	BuildVersion string

	// HeartbeatInterval spaces keep-alive comments on /session/events.
	// Defaults to 25 seconds.
	HeartbeatInterval time.Duration
	Clock             clockwork.Clock
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	session   *authsdk.Session
	opts      Options
	startTime time.Time
	logger    *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewRouter(sess *authsdk.Session, opts Options, logger *slog.Logger) *Router {
	if opts.UIURL == "" {
		opts.UIURL = "/"
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 25 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		session:   sess,
		opts:      opts,
		startTime: opts.Clock.Now(),
		logger:    logger,
		done:      make(chan struct{}),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerSession()
	r.registerProxy()
	r.registerSystem()

	if r.opts.Swagger {
		r.Mux.Handle("/swagger/", httpSwagger.Handler())
	}
}

// Close ends long-lived streams. Register it with http.Server.RegisterOnShutdown.
func (r *Router) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			leavehub session agent
//	@version		0.1.0
//	@description	Loopback session agent for the leave-management web UI.
//	@description
//	@description	The agent owns the sign-in session. The browser never sees a token: it calls
//	@description	/api/* on the agent, which attaches the access token, refreshes it when the
//	@description	backend reports expiry and replays the request once.
//
//	@host			127.0.0.1:8085
//	@BasePath		/
//	@schemes		http
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		Flow:   r.session.Flow,
		Guard:  r.session.Guard,
		UIURL:  r.opts.UIURL,
		Logger: r.logger,
	}

	// /login and /callback draw from separate per-route buckets.
	limit := httpx.RateLimitByRoute(r.opts.LoginLimit)

	r.Mux.Handle("GET /login", httpx.Chain(http.HandlerFunc(h.HandleLogin), limit))

	// The identity provider redirects here cross-site, so no origin check.
	r.Mux.Handle("GET /callback", httpx.Chain(http.HandlerFunc(h.HandleCallback), limit))

	logout := &LogoutHandler{Session: r.session, UIURL: r.opts.UIURL}
	r.Mux.Handle("POST /logout", httpx.Chain(logout,
		httpx.RequireSameOrigin(r.opts.Origins),
	))
}

func (r *Router) registerSession() {
	h := &SessionHandler{Guard: r.session.Guard}
	r.Mux.Handle("GET /session", httpx.Chain(h,
		httpx.RequireSameOrigin(r.opts.Origins),
	))

	events := &EventsHandler{
		Guard:     r.session.Guard,
		Heartbeat: r.opts.HeartbeatInterval,
		Clock:     r.opts.Clock,
		Done:      r.done,
	}
	r.Mux.Handle("GET /session/events", httpx.Chain(events,
		httpx.RequireSameOrigin(r.opts.Origins),
	))
}

func (r *Router) registerProxy() {
	proxy := &ProxyHandler{Dispatcher: r.session.Dispatcher}

	base := []httpx.Middleware{
		httpx.RequireSameOrigin(r.opts.Origins),
		httpx.RequireSession(r.session.Guard),
	}

	r.Mux.Handle("/api/", httpx.Chain(proxy, base...))

	seen := map[string]bool{}
	for _, rr := range r.opts.RouteRoles {
		pattern := "/api/" + strings.TrimPrefix(rr.Prefix, "/")
		if !strings.HasSuffix(pattern, "/") || strings.ContainsAny(pattern, "{} ") || seen[pattern] || pattern == "/api/" {
			r.logger.Warn("ignoring route role", "prefix", rr.Prefix)
			continue
		}
		seen[pattern] = true

		gated := make([]httpx.Middleware, 0, len(base)+1)
		gated = append(gated, base...)
		gated = append(gated, httpx.RequireAnyRole(r.session.Guard, rr.Roles...))

		r.Mux.Handle(pattern, httpx.Chain(proxy, gated...))
	}
}

func (r *Router) registerSystem() {
	limit := httpx.RateLimitByIP(r.opts.ProbeLimit)

	r.Mux.Handle("GET /livez", httpx.Chain(
		LivezHandler(r.startTime, r.opts.BuildVersion, r.opts.Clock),
		limit,
	))
	r.Mux.Handle("GET /readyz", httpx.Chain(
		ReadyzHandler(r.startTime, r.opts.BuildVersion, r.opts.Clock, r.session.Client()),
		limit,
	))
}
