package idx

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in canonical string form. Request ids are the main consumer.
type ID string

// maxExternalLen caps caller supplied ids (X-Request-ID) before we trust them
// in log lines.
const maxExternalLen = 64

var (
	mu      sync.Mutex
	once    sync.Once
	entropy *ulid.MonotonicEntropy
)

// New returns a lexicographically sortable ULID for the current UTC time.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt generates an ID at the provided time, mostly useful for tests.
func NewAt(t time.Time) ID {
	once.Do(func() {
		entropy = ulid.Monotonic(rand.Reader, 0)
	})

	mu.Lock()
	defer mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// FromHeader returns the caller supplied request id when it is short and made
// of safe characters, otherwise a freshly generated one.
func FromHeader(value string) ID {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxExternalLen {
		return New()
	}
	for _, r := range value {
		if !isSafe(r) {
			return New()
		}
	}
	return ID(value)
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}

func (id ID) String() string { return string(id) }
