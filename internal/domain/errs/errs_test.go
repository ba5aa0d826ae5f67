package errs

import (
	"errors"
	"testing"
)

func TestTransientWrapsBothCauseAndSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transient("load swipe", cause)

	if !errors.Is(err, ErrTransientStore) {
		t.Fatalf("expected transient sentinel in %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected original cause in %v", err)
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient returned false for %v", err)
	}
}

func TestTransientDoesNotDoubleWrap(t *testing.T) {
	inner := Transient("inner", errors.New("timeout"))
	outer := Transient("outer", inner)

	if got, want := outer.Error(), "outer: inner: transient store failure: timeout"; got != want {
		t.Fatalf("unexpected message: got %q want %q", got, want)
	}
}

func TestTransientNil(t *testing.T) {
	if err := Transient("noop", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestInvalidTargetAndInvariantFormat(t *testing.T) {
	err := InvalidTarget("user %q not found", "u1")
	if !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected invalid target, got %v", err)
	}
	if err.Error() != `invalid target: user "u1" not found` {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	err = Invariant("conversation %s has participants %v", "a_b", []string{"a", "c"})
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}
