package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpapi "github.com/venkateshmergu-svg/LMS-ORG-01-sub000/internal/leavehub/http"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
)

func validConfig() Config {
	return Config{
		APIBaseURL:          "http://127.0.0.1:9000",
		IDPAuthority:        "https://idp.example.com",
		IDPAuthorizePath:    "/authorize",
		ClientID:            "leave-web",
		RedirectURI:         "http://127.0.0.1:8085/callback",
		UIURL:               "/",
		StateTTL:            time.Minute,
		HTTPTimeout:         5 * time.Second,
		SweepInterval:       time.Minute,
		LoginRateLimit:      httpx.LoginLimit,
		ProbeRateLimit:      httpx.ProbeLimit,
		ListenAddr:          "127.0.0.1",
		Port:                8085,
		ShutdownGracePeriod: time.Second,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LEAVEHUB_API_BASE_URL", "http://127.0.0.1:9000/")
	t.Setenv("LEAVEHUB_IDP_AUTHORITY", "https://idp.example.com/")
	t.Setenv("LEAVEHUB_CLIENT_ID", "leave-web")
	t.Setenv("PORT", "")

	cfg := LoadConfig()

	require.Equal(t, "http://127.0.0.1:9000", cfg.APIBaseURL)
	require.Equal(t, "https://idp.example.com/authorize", cfg.AuthorizeEndpoint())
	require.Equal(t, "http://127.0.0.1:8085/callback", cfg.RedirectURI)
	require.Equal(t, []string{"openid", "profile", "leave:read", "leave:write"}, cfg.Scopes)
	require.True(t, cfg.FeaturePKCE)
	require.True(t, cfg.FeatureSwagger)
	require.Equal(t, authsdk.DefaultStateTTL, cfg.StateTTL)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Zero(t, cfg.RequestTimeout)
	require.Equal(t, authsdk.DefaultHealthPath, cfg.APIHealthPath)
	require.Equal(t, "127.0.0.1:8085", cfg.Addr())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("LEAVEHUB_API_BASE_URL", "http://127.0.0.1:9000")
	t.Setenv("LEAVEHUB_IDP_AUTHORITY", "https://idp.example.com")
	t.Setenv("LEAVEHUB_CLIENT_ID", "leave-web")
	t.Setenv("PORT", "9999")
	t.Setenv("LEAVEHUB_SCOPES", "openid leave:read")
	t.Setenv("LEAVEHUB_FEATURE_PKCE", "false")
	t.Setenv("LEAVEHUB_FEATURE_SWAGGER", "0")
	t.Setenv("LEAVEHUB_STATE_TTL", "5m")
	t.Setenv("LEAVEHUB_HTTP_TIMEOUT", "45")
	t.Setenv("LEAVEHUB_REQUEST_TIMEOUT", "2m")
	t.Setenv("LEAVEHUB_ALLOWED_ORIGINS", "http://localhost:5173/, ")
	t.Setenv("LEAVEHUB_ROUTE_ROLES", "approvals=manager|hr-admin")
	t.Setenv("LEAVEHUB_RATELIMIT_LOGIN_BURST", "2")

	cfg := LoadConfig()

	require.Equal(t, "http://127.0.0.1:9999/callback", cfg.RedirectURI)
	require.Equal(t, []string{"openid", "leave:read"}, cfg.Scopes)
	require.False(t, cfg.FeaturePKCE)
	require.False(t, cfg.FeatureSwagger)
	require.Equal(t, 5*time.Minute, cfg.StateTTL)
	require.Equal(t, 45*time.Second, cfg.HTTPTimeout, "bare integers are seconds")
	require.Equal(t, 2*time.Minute, cfg.RequestTimeout)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	require.Equal(t, []httpapi.RouteRole{{Prefix: "approvals/", Roles: []string{"manager", "hr-admin"}}}, cfg.RouteRoles)
	require.Equal(t, 2, cfg.LoginRateLimit.Burst)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("reports every missing key", func(t *testing.T) {
		err := Config{Port: 8085}.Validate()

		var cfgErr *authsdk.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, []string{"LEAVEHUB_API_BASE_URL", "LEAVEHUB_IDP_AUTHORITY", "LEAVEHUB_CLIENT_ID"}, cfgErr.Missing)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		reason string
	}{
		{"relative api url", func(c *Config) { c.APIBaseURL = "/api" }, "LEAVEHUB_API_BASE_URL"},
		{"relative authority", func(c *Config) { c.IDPAuthority = "idp.example.com" }, "LEAVEHUB_IDP_AUTHORITY"},
		{"relative redirect", func(c *Config) { c.RedirectURI = "/callback" }, "LEAVEHUB_REDIRECT_URI"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			var cfgErr *authsdk.ConfigurationError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			require.Contains(t, cfgErr.Reason, tt.reason)
		})
	}
}

func TestParseRouteRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []httpapi.RouteRole
	}{
		{"empty", "", nil},
		{"single", "admin/=hr-admin", []httpapi.RouteRole{{Prefix: "admin/", Roles: []string{"hr-admin"}}}},
		{"leading slash and missing trailing slash", "/approvals=manager", []httpapi.RouteRole{{Prefix: "approvals/", Roles: []string{"manager"}}}},
		{"several", "a/=x, b/=y|z", []httpapi.RouteRole{
			{Prefix: "a/", Roles: []string{"x"}},
			{Prefix: "b/", Roles: []string{"y", "z"}},
		}},
		{"malformed skipped", "noequals,=role,admin/=,{id}/=x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseRouteRoles(tt.in))
		})
	}
}
