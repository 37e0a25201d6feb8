package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"pera.com/perasystem/pkg/apperror"
)

const (
	ScopeRequisition = "requisition_create"
	ScopeLogin       = "login_failed"
)

// RateLimitError tells the caller how long to wait.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// NewRateLimitError formats the wait time the way clients display it.
func NewRateLimitError(action string, retryAfter time.Duration) *RateLimitError {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("please wait %d seconds before %s again", secs, action),
		RetryAfter: retryAfter,
	}
}

func key(subject, scope string) string {
	return fmt.Sprintf("rate_limit:%s:%s", scope, subject)
}

// CheckAndSetRateLimit takes the cooldown slot for subject if it is free.
// A nil client or non-positive limit always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, subject, scope string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(subject, scope), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, subject, scope string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(subject, scope)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, subject, scope string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(subject, scope)).Result()
	return err
}

func failureKey(subject, scope string) string {
	return fmt.Sprintf("failures:%s:%s", scope, subject)
}

// RecordFailure counts a failed attempt for subject. The counter expires
// window after the first failure it holds.
func RecordFailure(ctx context.Context, rdb *redis.Client, subject, scope string, window time.Duration) (int64, error) {
	if rdb == nil || window <= 0 {
		return 0, nil
	}

	k := failureKey(subject, scope)
	n, err := rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record failure in redis: %w", err)
	}
	if n == 1 {
		if err := rdb.Expire(ctx, k, window).Err(); err != nil {
			return n, fmt.Errorf("failed to set failure window: %w", err)
		}
	}
	return n, nil
}

// Failures returns the failures counted for subject and how long until
// the counter resets.
func Failures(ctx context.Context, rdb *redis.Client, subject, scope string) (int64, time.Duration, error) {
	if rdb == nil {
		return 0, 0, nil
	}

	k := failureKey(subject, scope)
	n, err := rdb.Get(ctx, k).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read failures: %w", err)
	}
	ttl, err := rdb.TTL(ctx, k).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read failures ttl: %w", err)
	}
	return n, ttl, nil
}

func ClearFailures(ctx context.Context, rdb *redis.Client, subject, scope string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, failureKey(subject, scope)).Err()
}
