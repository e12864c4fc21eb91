package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Verification failure reasons. Handlers map these to specific 4xx
// messages; none of them carries the stored code.
var (
	ErrNoPending     = errors.New("otp: no pending code")
	ErrPhoneMismatch = errors.New("otp: phone mismatch")
	ErrCodeMismatch  = errors.New("otp: code mismatch")
)

// Store binds a pending one-time code to a login session. At most one code
// is live per session; issuing again overwrites it. A successful verify is
// single-use: the record is erased before the result is returned.
type Store interface {
	// Issue generates a fresh code for the session, replacing any pending
	// one, and returns the plain code for out-of-band delivery.
	Issue(ctx context.Context, sessionID, phone string) (string, error)
	// Verify checks phone and code against the pending record. Inputs are
	// trimmed before comparison. It returns nil on a match and one of the
	// sentinel errors above otherwise.
	Verify(ctx context.Context, sessionID, phone, code string) error
}

type record struct {
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MemoryStore is the in-process Store. The clock is injected so expiry is
// testable without sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[string]record
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a MemoryStore with the given code lifetime.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		pending: make(map[string]record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the store's clock. Tests use it to advance time.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Issue(_ context.Context, sessionID, phone string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	hash, err := HashCode(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = record{
		Phone:     strings.TrimSpace(phone),
		CodeHash:  hash,
		ExpiresAt: s.now().Add(s.ttl),
	}
	return code, nil
}

func (s *MemoryStore) Verify(_ context.Context, sessionID, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[sessionID]
	if !ok {
		return ErrNoPending
	}
	if s.now().After(rec.ExpiresAt) {
		delete(s.pending, sessionID)
		return ErrNoPending
	}
	if rec.Phone != strings.TrimSpace(phone) {
		return ErrPhoneMismatch
	}
	if !CheckCode(strings.TrimSpace(code), rec.CodeHash) {
		return ErrCodeMismatch
	}

	// Single-use: erase before reporting success so an immediate replay
	// sees no pending code.
	delete(s.pending, sessionID)
	return nil
}
