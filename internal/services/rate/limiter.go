package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

const (
	ActionSwipe   = "swipes"
	ActionMessage = "messages"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Policy caps one action per user over two fixed windows. Zero disables a window.
type Policy struct {
	PerMinute int
	Per10Sec  int
}

type Limiter struct {
	store    WindowStore
	policies map[string]Policy
}

func NewLimiter(store WindowStore, policies map[string]Policy) *Limiter {
	normalized := make(map[string]Policy, len(policies))
	for action, policy := range policies {
		if policy.PerMinute < 0 {
			policy.PerMinute = 0
		}
		if policy.Per10Sec < 0 {
			policy.Per10Sec = 0
		}
		normalized[action] = policy
	}

	return &Limiter{
		store:    store,
		policies: normalized,
	}
}

// Allow counts one action and reports whether it fits every window. When it does not,
// retryAfterSec is the longest remaining window.
func (l *Limiter) Allow(ctx context.Context, action, userID string) (int64, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, false, fmt.Errorf("invalid user id")
	}
	policy, ok := l.policies[action]
	if !ok {
		return 0, true, nil
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if policy.PerMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(action, userID), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(policy.PerMinute) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if policy.Per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, tenSecKey(action, userID), tenSecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(policy.Per10Sec) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// RetryAfter reads the windows without counting.
func (l *Limiter) RetryAfter(ctx context.Context, action, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("invalid user id")
	}
	policy, ok := l.policies[action]
	if !ok {
		return 0, nil
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if policy.PerMinute > 0 {
		count, ttl, err := l.store.WindowState(ctx, minuteKey(action, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(policy.PerMinute) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if policy.Per10Sec > 0 {
		count, ttl, err := l.store.WindowState(ctx, tenSecKey(action, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(policy.Per10Sec) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func minuteKey(action, userID string) string {
	return "rate:" + action + ":min:" + userID
}

func tenSecKey(action, userID string) string {
	return "rate:" + action + ":10s:" + userID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
