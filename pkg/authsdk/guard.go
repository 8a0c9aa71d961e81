package authsdk

import (
	"time"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/jwtx"
)

// Identity is the read-only projection of the current credential.
// It exists only while a credential pair exists.
type Identity struct {
	UserID      string   `json:"user_id,omitempty"`
	Username    string   `json:"username,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles"`
}

// identityFromPair derives the identity from the access token claims. An
// opaque access token yields an empty identity with no roles.
func identityFromPair(p Pair) Identity {
	claims, err := jwtx.ParseUnverified(p.AccessToken)
	if err != nil {
		return Identity{Roles: []string{}}
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}

	return Identity{
		UserID:      claims.Subject,
		Username:    claims.Username,
		DisplayName: claims.DisplayName(),
		Roles:       roles,
	}
}

// State is what the Guard reports to watchers after each store change.
type State struct {
	Authenticated bool       `json:"authenticated"`
	Identity      *Identity  `json:"identity,omitempty"`
	Reason        Reason     `json:"reason,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Guard answers navigation and rendering questions from the Credential
// Store. It holds no state of its own.
type Guard struct {
	store *Store
}

// NewGuard returns a guard over store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// IsAuthenticated is true iff the store holds a pair.
func (g *Guard) IsAuthenticated() bool {
	_, ok := g.store.Get()
	return ok
}

// Identity returns the current identity.
func (g *Guard) Identity() (Identity, bool) {
	p, ok := g.store.Get()
	if !ok {
		return Identity{}, false
	}
	return identityFromPair(p), true
}

// HasRole reports whether the current identity carries role. It is false,
// not an error, when nobody is signed in.
func (g *Guard) HasRole(role string) bool {
	claims, ok := g.claims()
	return ok && claims.HasRole(role)
}

// HasAnyRole reports whether the current identity carries at least one of roles.
func (g *Guard) HasAnyRole(roles ...string) bool {
	claims, ok := g.claims()
	return ok && claims.HasAnyRole(roles...)
}

func (g *Guard) claims() (jwtx.Claims, bool) {
	p, ok := g.store.Get()
	if !ok {
		return jwtx.Claims{}, false
	}
	claims, err := jwtx.ParseUnverified(p.AccessToken)
	return claims, err == nil
}

// Current returns the guard state together with the reason of the last
// store change, so a caller arriving after the fact can still tell an
// expired session from one that never began.
func (g *Guard) Current() State {
	p, ok := g.store.Get()
	return stateOf(p, ok, g.store.LastReason())
}

// Watch calls fn with the re-evaluated state on every store change, in
// the store's notification order. It does not call fn for the current
// state; use Current for that.
func (g *Guard) Watch(fn func(State)) (cancel func()) {
	return g.store.Subscribe(func(c Change) {
		if c.Pair == nil {
			fn(stateOf(Pair{}, false, c.Reason))
			return
		}
		fn(stateOf(*c.Pair, true, c.Reason))
	})
}

func stateOf(p Pair, ok bool, reason Reason) State {
	if !ok {
		return State{Reason: reason}
	}
	id := identityFromPair(p)
	st := State{Authenticated: true, Identity: &id, Reason: reason}
	if !p.ExpiresAt.IsZero() {
		exp := p.ExpiresAt.UTC()
		st.ExpiresAt = &exp
	}
	return st
}
