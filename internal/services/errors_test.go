package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrExternalTool, "converter", "run", "pandoc exited 1", base)

	if !errors.Is(err, ErrExternalTool) {
		t.Error("wrapped error should match its marker")
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match the underlying error")
	}
	for _, fragment := range []string{"converter", "run", "pandoc exited 1", "boom"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error message missing %q: %s", fragment, err)
		}
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "ocr", "transcribe", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Error("nil marker should default to ErrExternalTool")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected fallback detail, got %q", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrRateLimited, "gemini", "generate", "429", nil), true},
		{Wrap(ErrTimeout, "executor", "run", "", nil), false},
		{Wrap(ErrValidation, "cache", "load", "", nil), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrConfiguration, "config", "load", "api key missing", nil)) {
		t.Error("configuration errors should be fatal")
	}
	if IsFatal(Wrap(ErrExternalTool, "converter", "run", "", nil)) {
		t.Error("tool errors should not be fatal")
	}
}
