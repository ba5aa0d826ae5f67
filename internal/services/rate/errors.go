package rate

import (
	"context"
	"errors"
)

var ErrTooFast = errors.New("too fast")

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return ErrTooFast.Error()
}

func (e TooFastError) Is(target error) bool {
	return target == ErrTooFast
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

// Check counts one action and converts a refusal into a TooFastError.
func (l *Limiter) Check(ctx context.Context, action, userID string) error {
	retryAfter, allowed, err := l.Allow(ctx, action, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}
