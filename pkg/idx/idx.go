// Package idx mints request ids: ULIDs, so ids sort by creation time and
// a log line can be correlated with the backend's by id alone.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an id for the current time.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt returns an id stamped with t. Ids minted for the same millisecond
// are still strictly increasing.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// Valid reports whether s is a well-formed ULID. Inbound X-Request-ID
// values that are not get replaced before they are forwarded upstream.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (id ID) IsZero() bool { return id == Zero }

func (id ID) String() string { return string(id) }

// Time returns the embedded timestamp, or the zero time for an invalid id.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
