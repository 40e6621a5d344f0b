package security

import (
	"context"
	"errors"
	"habit_tracker/internal/common"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

// HashPassword hashes plaintext with bcrypt at the given cost. The cost is
// recorded in the returned hash, so CheckPassword needs no extra parameters.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", oops.Code("HASH_COST_INVALID").
			With("cost", cost).
			Wrapf(common.ErrConfiguration, "cost factor must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", oops.Code("HASH_INPUT_TOO_LONG").
			Wrapf(common.ErrValidation, "password exceeds %d bytes", MaxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", oops.Code("HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches hash. A mismatch is
// (false, nil); a hash bcrypt cannot parse is an ErrVerification error.
// Input longer than MaxPasswordBytes never matches: HashPassword refuses it,
// and bcrypt would otherwise compare only its first 72 bytes.
func CheckPassword(plaintext, hash string) (bool, error) {
	if len(plaintext) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("HASH_UNPARSEABLE").
			Wrapf(common.ErrVerification, "%v", err)
	}
}

// HashObserver receives the duration of each hashing operation.
type HashObserver interface {
	ObserveHash(op string, d time.Duration)
}

// PasswordHasher runs bcrypt work behind a bounded semaphore so a burst of
// logins cannot occupy every CPU. Safe for concurrent use.
type PasswordHasher struct {
	cost     int
	sem      *semaphore.Weighted
	observer HashObserver
}

// NewPasswordHasher validates cost and concurrency. Both failures wrap
// common.ErrConfiguration.
func NewPasswordHasher(cost, concurrency int, observer HashObserver) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("HASH_COST_INVALID").
			With("cost", cost).
			Wrapf(common.ErrConfiguration, "cost factor must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		return nil, oops.Code("HASH_CONCURRENCY_INVALID").
			With("concurrency", concurrency).
			Wrapf(common.ErrConfiguration, "hash concurrency must be positive")
	}
	return &PasswordHasher{
		cost:     cost,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		observer: observer,
	}, nil
}

// Cost returns the configured bcrypt cost factor.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash hashes plaintext once a worker slot is free or ctx is done.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var hashed string
	err := h.run(ctx, "hash", func() error {
		var err error
		hashed, err = HashPassword(plaintext, h.cost)
		return err
	})
	return hashed, err
}

// Verify compares plaintext with hash once a worker slot is free or ctx is done.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var ok bool
	err := h.run(ctx, "verify", func() error {
		var err error
		ok, err = CheckPassword(plaintext, hash)
		return err
	})
	return ok, err
}

func (h *PasswordHasher) run(ctx context.Context, op string, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return oops.Code("HASH_SLOT_UNAVAILABLE").With("op", op).Wrap(err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := fn()
	if h.observer != nil {
		h.observer.ObserveHash(op, time.Since(start))
	}
	return err
}
