package authsdk

import (
	"sync"
	"time"
)

// Reason describes why the Credential Store changed.
type Reason string

const (
	ReasonLogin    Reason = "login"
	ReasonRefresh  Reason = "refresh"
	ReasonLogout   Reason = "logout"
	ReasonExpired  Reason = "expired"
	ReasonTeardown Reason = "teardown"
)

// Pair is an access/refresh credential pair.
//
// ExpiresAt is advisory only. The backend rejecting the access token is the
// sole authority on expiry.
type Pair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// Valid reports whether both halves of the pair are present.
func (p Pair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Change is delivered to subscribers on every store write.
// Pair is nil when the store became absent.
type Change struct {
	Pair   *Pair
	Reason Reason
}

// Subscriber receives store changes synchronously.
// Subscribers must not write to the store from inside the callback.
type Subscriber func(Change)

type subscription struct {
	id uint64
	fn Subscriber
}

// Store holds the current credential pair in process memory only.
//
// Writes are serialized, and every write notifies all current subscribers
// before the next write may begin. Readers never observe a partial pair.
type Store struct {
	writeMu sync.Mutex // serializes Set/Clear together with their notifications

	mu     sync.RWMutex
	pair   *Pair
	reason Reason

	subsMu sync.Mutex
	subs   []subscription
	nextID uint64
}

// NewStore returns an empty (logged-out) store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current pair and whether one is present.
func (s *Store) Get() (Pair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pair == nil {
		return Pair{}, false
	}
	return *s.pair, true
}

// LastReason returns the reason of the most recent change, or "" if the
// store was never written.
func (s *Store) LastReason() Reason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// AccessToken returns the current access token, or "" when absent.
func (s *Store) AccessToken() string {
	p, _ := s.Get()
	return p.AccessToken
}

// Set replaces the current pair. A nil pair makes the store absent.
// A pair missing either token is rejected with ErrPartialCredential and
// the store is left untouched.
func (s *Store) Set(p *Pair, reason Reason) error {
	if p != nil && !p.Valid() {
		return ErrPartialCredential
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.write(p, reason)
	return nil
}

// Clear makes the store absent.
func (s *Store) Clear(reason Reason) {
	_ = s.Set(nil, reason)
}

// CompareAndSet replaces the pair only while the store still holds
// expectedAccess as its access token. It reports whether the write happened.
// A nil pair clears the store under the same condition.
func (s *Store) CompareAndSet(expectedAccess string, p *Pair, reason Reason) (bool, error) {
	if p != nil && !p.Valid() {
		return false, ErrPartialCredential
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur, ok := s.Get()
	if !ok || cur.AccessToken != expectedAccess {
		return false, nil
	}

	s.write(p, reason)
	return true, nil
}

// write must be called with writeMu held.
func (s *Store) write(p *Pair, reason Reason) {
	var stored *Pair
	if p != nil {
		cp := *p
		stored = &cp
	}

	s.mu.Lock()
	s.pair = stored
	s.reason = reason
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		var delivered *Pair
		if stored != nil {
			cp := *stored
			delivered = &cp
		}
		sub.fn(Change{Pair: delivered, Reason: reason})
	}
}

// Subscribe registers fn for every subsequent change, in subscription order.
// The returned function removes the subscription and is safe to call more
// than once.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()

			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}
