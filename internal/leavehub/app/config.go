package app

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	httpapi "github.com/venkateshmergu-svg/LMS-ORG-01-sub000/internal/leavehub/http"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
)

type Config struct {
	APIBaseURL          string                // Required: resource API and token endpoint base
	APIHealthPath       string                // Optional: backend route probed by /readyz (default: /health)
	IDPAuthority        string                // Required: identity provider authority URL
	IDPAuthorizePath    string                // Optional: authorize path under the authority (default: /authorize)
	ClientID            string                // Required: OAuth client id
	RedirectURI         string                // Optional: callback address (default: http://127.0.0.1:{port}/callback)
	Scopes              []string              // Optional: requested scopes
	UIURL               string                // Optional: where the browser lands after login and logout (default: /)
	RouteRoles          []httpapi.RouteRole   // Optional: role gates on proxied API prefixes
	AllowedOrigins      []string              // Optional: extra browser origins allowed to call the agent
	FeaturePKCE         bool                  // Feature toggle: PKCE on the authorization request (default: true)
	FeatureSwagger      bool                  // Feature toggle: serve /swagger/ (default: true)
	StateTTL            time.Duration         // Pending anti-replay state lifetime (default: 10m)
	HTTPTimeout         time.Duration         // Token endpoint timeout, the only bound on a refresh (default: 30s)
	RequestTimeout      time.Duration         // Proxied API request timeout, 0 for none (default: 0)
	SweepInterval       time.Duration         // Pending flow sweep interval (default: 1m)
	LoginRateLimit      httpx.RateLimitConfig // Limit on /login and /callback
	ProbeRateLimit      httpx.RateLimitConfig // Limit on /livez and /readyz
	Env                 string                // Environment (dev, staging, prod) (default: dev)
	LogLevel            string                // Log level (debug, info, warn, error) (default: info)
	LogFormat           string                // Log format (json, text) (default: json)
	ListenAddr          string                // Bind address (default: 127.0.0.1)
	Port                int                   // HTTP server port (default: 8085)
	ShutdownGracePeriod time.Duration         // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first; variables already set win.
func LoadConfig() Config {
	_ = godotenv.Load()

	port := getEnvIntOrDefault("PORT", 8085)

	cfg := Config{
		APIBaseURL:       strings.TrimSuffix(os.Getenv("LEAVEHUB_API_BASE_URL"), "/"),
		APIHealthPath:    getEnvOrDefault("LEAVEHUB_API_HEALTH_PATH", authsdk.DefaultHealthPath),
		IDPAuthority:     strings.TrimSuffix(os.Getenv("LEAVEHUB_IDP_AUTHORITY"), "/"),
		IDPAuthorizePath: getEnvOrDefault("LEAVEHUB_IDP_AUTHORIZE_PATH", "/authorize"),
		ClientID:         os.Getenv("LEAVEHUB_CLIENT_ID"),
		RedirectURI:      getEnvOrDefault("LEAVEHUB_REDIRECT_URI", fmt.Sprintf("http://127.0.0.1:%d/callback", port)),
		Scopes: httpx.ParseSpaceDelimitedFields(
			getEnvOrDefault("LEAVEHUB_SCOPES", "openid profile leave:read leave:write"),
		),
		UIURL:               getEnvOrDefault("LEAVEHUB_UI_URL", "/"),
		RouteRoles:          parseRouteRoles(os.Getenv("LEAVEHUB_ROUTE_ROLES")),
		AllowedOrigins:      parseList(os.Getenv("LEAVEHUB_ALLOWED_ORIGINS")),
		FeaturePKCE:         getEnvBoolOrDefault("LEAVEHUB_FEATURE_PKCE", true),
		FeatureSwagger:      getEnvBoolOrDefault("LEAVEHUB_FEATURE_SWAGGER", true),
		StateTTL:            getEnvDurationOrDefault("LEAVEHUB_STATE_TTL", authsdk.DefaultStateTTL),
		HTTPTimeout:         getEnvDurationOrDefault("LEAVEHUB_HTTP_TIMEOUT", 30*time.Second),
		RequestTimeout:      getEnvDurationOrDefault("LEAVEHUB_REQUEST_TIMEOUT", 0),
		SweepInterval:       getEnvDurationOrDefault("LEAVEHUB_SWEEP_INTERVAL", time.Minute),
		LoginRateLimit:      httpx.ParseRateLimitFromEnv("LOGIN", httpx.LoginLimit),
		ProbeRateLimit:      httpx.ParseRateLimitFromEnv("PROBE", httpx.ProbeLimit),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		ListenAddr:          getEnvOrDefault("LISTEN_ADDR", "127.0.0.1"),
		Port:                port,
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var missing []string
	if c.APIBaseURL == "" {
		missing = append(missing, "LEAVEHUB_API_BASE_URL")
	}
	if c.IDPAuthority == "" {
		missing = append(missing, "LEAVEHUB_IDP_AUTHORITY")
	}
	if c.ClientID == "" {
		missing = append(missing, "LEAVEHUB_CLIENT_ID")
	}
	if len(missing) > 0 {
		return &authsdk.ConfigurationError{Missing: missing}
	}

	for _, v := range []struct{ name, raw string }{
		{"LEAVEHUB_API_BASE_URL", c.APIBaseURL},
		{"LEAVEHUB_IDP_AUTHORITY", c.IDPAuthority},
		{"LEAVEHUB_REDIRECT_URI", c.RedirectURI},
	} {
		u, err := url.Parse(v.raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &authsdk.ConfigurationError{Reason: v.name + " must be an absolute URL"}
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return &authsdk.ConfigurationError{Reason: "PORT out of range"}
	}
	return nil
}

// AuthorizeEndpoint joins the authority and authorize path.
func (c Config) AuthorizeEndpoint() string {
	if c.IDPAuthority == "" {
		return ""
	}
	return c.IDPAuthority + "/" + strings.TrimPrefix(c.IDPAuthorizePath, "/")
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddr, c.Port)
}

// parseRouteRoles reads "prefix=role|role,prefix=role", for example
// "approvals/=manager|hr-admin,admin/=hr-admin". Malformed entries are skipped.
func parseRouteRoles(s string) []httpapi.RouteRole {
	var out []httpapi.RouteRole
	for _, entry := range strings.Split(s, ",") {
		prefix, roles, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || prefix == "" || roles == "" {
			continue
		}

		if strings.ContainsAny(prefix, "{} ") {
			continue
		}

		var rr httpapi.RouteRole
		rr.Prefix = strings.TrimPrefix(prefix, "/")
		if !strings.HasSuffix(rr.Prefix, "/") {
			rr.Prefix += "/"
		}
		for _, r := range strings.Split(roles, "|") {
			if r = strings.TrimSpace(r); r != "" {
				rr.Roles = append(rr.Roles, r)
			}
		}
		if len(rr.Roles) > 0 {
			out = append(out, rr)
		}
	}
	return out
}

func parseList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.TrimSuffix(v, "/"))
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
