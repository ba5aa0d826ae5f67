package logger

import "testing"

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := New(Options{Service: "api", Console: true})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled by default")
	}
	if !log.Core().Enabled(0) {
		t.Fatalf("info should be enabled by default")
	}
}
