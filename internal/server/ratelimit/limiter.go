// Package ratelimit throttles verification-code requests per user and
// channel: a short cooldown between requests, a cap per window, and a
// longer block once the cap is exceeded.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrLimited = errors.New("rate limited")

// LimitError tells the caller how long to wait.
type LimitError struct {
	RetryAfter time.Duration
	Reason     string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", e.Reason, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error { return ErrLimited }

// Store is the counter backend.
type Store interface {
	// TTL returns the remaining lifetime of key, or a value <= 0 when absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Incr increments key, starting its expiry at window on first use.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Mark sets key with the given lifetime.
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

type Config struct {
	Window   time.Duration
	Max      int
	Cooldown time.Duration
	Block    time.Duration
}

type Limiter struct {
	store Store
	cfg   Config
}

func NewLimiter(store Store, cfg Config) *Limiter {
	if cfg.Block <= 0 {
		cfg.Block = 3 * cfg.Window
	}
	return &Limiter{store: store, cfg: cfg}
}

// Allow records a request for subject or rejects it with a *LimitError.
// Backend failures are returned as-is.
func (l *Limiter) Allow(ctx context.Context, subject string) error {
	blockKey := "otp:block:" + subject
	lastKey := "otp:last:" + subject
	countKey := "otp:count:" + subject

	ttl, err := l.store.TTL(ctx, blockKey)
	if err != nil {
		return err
	}
	if ttl > 0 {
		return &LimitError{RetryAfter: ttl, Reason: "too many requests"}
	}

	if l.cfg.Cooldown > 0 {
		ttl, err = l.store.TTL(ctx, lastKey)
		if err != nil {
			return err
		}
		if ttl > 0 {
			return &LimitError{RetryAfter: ttl, Reason: "requested too soon"}
		}
	}

	if l.cfg.Max > 0 {
		n, err := l.store.Incr(ctx, countKey, l.cfg.Window)
		if err != nil {
			return err
		}
		if n > int64(l.cfg.Max) {
			if err := l.store.Mark(ctx, blockKey, l.cfg.Block); err != nil {
				return err
			}
			return &LimitError{RetryAfter: l.cfg.Block, Reason: "too many requests"}
		}
	}

	if l.cfg.Cooldown > 0 {
		return l.store.Mark(ctx, lastKey, l.cfg.Cooldown)
	}
	return nil
}
