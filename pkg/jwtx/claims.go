package jwtx

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformed = errors.New("jwtx: malformed token")

// Claims are the access-token claims the leave-management backend issues.
// The backend remains the authority on validity; these are read for
// presentation and UI gating only.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID
	SID string `json:"sid,omitempty"`

	// Permission Scopes "leave:read leave:write"
	Scopes []string `json:"scopes,omitempty"`

	// Roles held by the user, e.g. ["employee", "manager"]
	Roles []string `json:"roles,omitempty"`

	// Username for the authenticated user
	Username string `json:"username,omitempty"`

	// PreferredName is the display name for the user
	PreferredName string `json:"preferred_name,omitempty"`

	// Name is the OIDC full name, used when PreferredName is unset
	Name string `json:"name,omitempty"`
}

// ParseUnverified decodes the claims of a JWT without checking its
// signature. An opaque (non-JWT) token returns ErrMalformed.
func ParseUnverified(raw string) (Claims, error) {
	var c Claims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return c, nil
}

// DisplayName picks the most human-friendly name the token carries.
func (c *Claims) DisplayName() string {
	switch {
	case c.PreferredName != "":
		return c.PreferredName
	case c.Name != "":
		return c.Name
	default:
		return c.Username
	}
}

// HasRole reports whether role is among the token's roles.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether at least one of roles is among the token's roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}
