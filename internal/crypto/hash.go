package crypto

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 12
	MinCost     = 8
	MaxCost     = 15

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. A cost outside [MinCost, MaxCost] falls back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < MinCost || cost > MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the effective work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

type hashResult struct {
	hash []byte
	err  error
}

// Hash returns the bcrypt hash of password. The password bytes are used as-is.
// If ctx is cancelled first, Hash returns ctx.Err() and the result is discarded.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	done := make(chan hashResult, 1)
	go func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		done <- hashResult{hash: hash, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("hashing password: %w", res.err)
		}
		return string(res.hash), nil
	}
}

// Verify reports whether password matches hash. Comparison is constant-time;
// a malformed hash or a cancelled context yields false.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	done := make(chan bool, 1)
	go func() {
		done <- bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}()

	select {
	case <-ctx.Done():
		return false
	case ok := <-done:
		return ok
	}
}
