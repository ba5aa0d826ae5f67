package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type rateWindow struct {
	count     int64
	expiresAt time.Time
}

// RateWindows is the fixed-window counter used by the rate limiter when redis is
// not configured.
type RateWindows struct {
	mu      sync.Mutex
	windows map[string]rateWindow
	now     func() time.Time
}

func NewRateWindows() *RateWindows {
	return &RateWindows{
		windows: make(map[string]rateWindow),
		now:     time.Now,
	}
}

func (r *RateWindows) SetNow(now func() time.Time) {
	if now == nil {
		return
	}
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *RateWindows) IncrementWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window payload")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = rateWindow{expiresAt: now.Add(window)}
	}
	w.count++
	r.windows[key] = w
	return w.count, w.expiresAt.Sub(now), nil
}

func (r *RateWindows) WindowState(_ context.Context, key string) (int64, time.Duration, error) {
	if key == "" {
		return 0, 0, fmt.Errorf("rate key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		delete(r.windows, key)
		return 0, 0, nil
	}
	return w.count, w.expiresAt.Sub(now), nil
}
