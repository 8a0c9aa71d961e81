package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Service string
	Version string
	Env     string // e.g. "dev", "prod"
	Level   string // e.g. "debug", "info", "warn", "error"
	Format  string // e.g. "json", "text"

	// Output defaults to os.Stdout
	Output io.Writer
}

// Redacted replaces the value of any secret-bearing attribute.
const Redacted = "[redacted]"

// secretKeys are attribute keys whose values are credentials. Matching is
// case-insensitive and ignores "-" versus "_". "code" is absent: error codes
// use that key, and authorization codes are never logged.
var secretKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"authorization": true,
	"code_verifier": true,
	"state":         true,
	"cookie":        true,
}

// New builds the process logger and installs it as the slog default.
// Credential attributes are redacted whatever the caller passes.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		AddSource:   cfg.Env == "dev",
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ReplaceAll(strings.ToLower(a.Key), "-", "_")
	if secretKeys[key] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// parseLevel maps a string to slog.Level; unknown values are info.
func parseLevel(lvl string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(lvl))); err != nil {
		if strings.EqualFold(lvl, "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return l
}
