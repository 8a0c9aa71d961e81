package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/venkateshmergu-svg/LMS-ORG-01-sub000/internal/leavehub/http"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/internal/leavehub/service"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application is the session agent process: one session core and the HTTP
// surface in front of it.
type Application struct {
	cfg    Config
	logger *slog.Logger

	session             *authsdk.Session
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and wires the application.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "leavehub",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSession(); err != nil {
		return nil, err
	}
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the HTTP surface, for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run serves until SIGINT/SIGTERM or a server error.
func (app *Application) Run() error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.Serve(ln)
}

// Serve is Run on an existing listener.
func (app *Application) Serve(ln net.Listener) error {
	app.housekeepingService.Start()

	app.logger.Info("session agent starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"pkce", app.cfg.FeaturePKCE,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		app.teardown()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops serving, then tears the session down: the pending flow is
// abandoned, an in-flight refresh is cancelled and its waiters released,
// and the credential is discarded.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session agent...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var shutdownErr error
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		shutdownErr = err
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.teardown()

	app.logger.Info("session agent stopped")
	return shutdownErr
}

func (app *Application) teardown() {
	app.housekeepingService.Stop()
	app.router.Close()
	app.session.Close()
}

func (app *Application) initSession() error {
	sess, err := authsdk.NewSession(authsdk.Config{
		APIBaseURL:        app.cfg.APIBaseURL,
		AuthorizeEndpoint: app.cfg.AuthorizeEndpoint(),
		ClientID:          app.cfg.ClientID,
		RedirectURI:       app.cfg.RedirectURI,
		Scopes:            app.cfg.Scopes,
		UsePKCE:           app.cfg.FeaturePKCE,
		StateTTL:          app.cfg.StateTTL,
		HTTPTimeout:       app.cfg.HTTPTimeout,
		RequestTimeout:    app.cfg.RequestTimeout,
		Logger:            app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	sess.Client().HealthPath = app.cfg.APIHealthPath

	app.session = sess
	return nil
}

func (app *Application) initServices() {
	app.housekeepingService = service.NewHousekeepingService(
		app.session.Flow,
		app.logger,
		app.cfg.SweepInterval,
		nil,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.session, httpapi.Options{
		UIURL:        app.cfg.UIURL,
		Swagger:      app.cfg.FeatureSwagger,
		RouteRoles:   app.cfg.RouteRoles,
		Origins:      app.originPolicy(),
		LoginLimit:   app.cfg.LoginRateLimit,
		ProbeLimit:   app.cfg.ProbeRateLimit,
		BuildVersion: BuildVersion,
	}, app.logger)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	app.server.RegisterOnShutdown(router.Close)
}

// originPolicy allows the loopback names of the listen port, the redirect
// URI's host and any configured extra origins.
func (app *Application) originPolicy() httpx.OriginPolicy {
	port := strconv.Itoa(app.cfg.Port)

	hosts := []string{
		net.JoinHostPort("127.0.0.1", port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("::1", port),
	}
	if app.cfg.ListenAddr != "" {
		hosts = append(hosts, net.JoinHostPort(app.cfg.ListenAddr, port))
	}
	if u, err := url.Parse(app.cfg.RedirectURI); err == nil && u.Host != "" {
		hosts = append(hosts, strings.ToLower(u.Host))
	}

	return httpx.OriginPolicy{Hosts: hosts, Origins: app.cfg.AllowedOrigins}
}
