package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes v as JSON with the given status. Responses are never
// cached: every body the agent serves describes the live session.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the OAuth2-style error body {error, error_description}.
func WriteError(w http.ResponseWriter, code int, errCode, description string) {
	WriteJSON(w, code, map[string]string{
		"error":             errCode,
		"error_description": description,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ParseSpaceDelimitedFields splits a space-delimited list such as scopes.
// Returns nil for blank input.
func ParseSpaceDelimitedFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
