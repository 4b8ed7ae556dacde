package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinCost is the lowest bcrypt work factor the hasher accepts.
const MinCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password is too long")

// PasswordHasher hashes and verifies passwords with bcrypt. At most
// concurrency hash operations run at once; further callers wait.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewPasswordHasher returns a hasher with the given bcrypt cost and
// concurrency bound. A concurrency below 1 is treated as 1.
func NewPasswordHasher(cost, concurrency int) (*PasswordHasher, error) {
	if cost < MinCost {
		return nil, fmt.Errorf("bcrypt cost %d is below minimum %d", cost, MinCost)
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d is above maximum %d", cost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("notekeeper-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	return &PasswordHasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(concurrency)),
		dummy: dummy,
	}, nil
}

// Hash returns a salted bcrypt digest of plaintext. Inputs longer than
// MaxPasswordBytes fail with ErrPasswordTooLong.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest or a
// cancelled ctx yields false.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// DummyVerify burns the same work as Verify against a fixed digest. Login
// calls it for unknown usernames so response time does not reveal them.
func (h *PasswordHasher) DummyVerify(ctx context.Context, plaintext string) {
	_ = h.Verify(ctx, plaintext, string(h.dummy))
}
