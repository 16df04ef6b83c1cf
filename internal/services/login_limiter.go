package services

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/utils"
)

// CounterStore is the slice of the Redis cache the limiter needs;
// *cache.RedisCache satisfies it.
type CounterStore interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
}

type RateLimitResult struct {
	Allowed    bool          `json:"allowed"`
	Count      int64         `json:"count"`
	Remaining  int64         `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after"`
}

// LoginLimiter counts failed logins per email inside a fixed window.
type LoginLimiter interface {
	Check(ctx context.Context, email string) (*RateLimitResult, error)
	RecordFailure(ctx context.Context, email string) (*RateLimitResult, error)
	Reset(ctx context.Context, email string) error
}

type loginLimiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
}

// NewLoginLimiter returns a limiter that always allows when store is nil.
func NewLoginLimiter(store CounterStore, limit int, window time.Duration) LoginLimiter {
	return &loginLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
	}
}

func loginAttemptKey(email string) string {
	return utils.CacheLoginAttemptPrefix + email
}

func (l *loginLimiter) Check(ctx context.Context, email string) (*RateLimitResult, error) {
	if l.store == nil || l.limit <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: l.limit}, nil
	}

	count, err := l.store.GetInt(ctx, loginAttemptKey(email))
	if err != nil {
		return nil, fmt.Errorf("failed to read login attempts: %w", err)
	}
	return l.result(ctx, email, count), nil
}

func (l *loginLimiter) RecordFailure(ctx context.Context, email string) (*RateLimitResult, error) {
	if l.store == nil || l.limit <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: l.limit}, nil
	}

	count, err := l.store.IncrementWithTTL(ctx, loginAttemptKey(email), l.window)
	if err != nil {
		return nil, fmt.Errorf("failed to record login attempt: %w", err)
	}
	return l.result(ctx, email, count), nil
}

func (l *loginLimiter) Reset(ctx context.Context, email string) error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, loginAttemptKey(email))
}

func (l *loginLimiter) result(ctx context.Context, email string, count int64) *RateLimitResult {
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &RateLimitResult{
		Allowed:   count < l.limit,
		Count:     count,
		Remaining: remaining,
	}
	if !result.Allowed {
		if ttl, err := l.store.GetTTL(ctx, loginAttemptKey(email)); err == nil && ttl > 0 {
			result.RetryAfter = ttl
		}
	}
	return result
}
