package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  Error
		want string
	}{
		{"message and cause", New(CodeFetchFailed, "fetch remote version", cause), "fetch remote version: connection refused"},
		{"message only", New(CodeParseFailed, "payload is not an object", nil), "payload is not an object"},
		{"cause only", New(CodeUnknown, "", cause), "connection refused"},
		{"code only", New(CodeStoreFailed, "", nil), "store_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	base := New(CodeParseFailed, "decode payload", errors.New("bad json"))
	wrapped := fmt.Errorf("check: %w", base)

	if got := CodeOf(wrapped); got != CodeParseFailed {
		t.Fatalf("CodeOf() = %q, want %q", got, CodeParseFailed)
	}
	if !IsCode(wrapped, CodeParseFailed) {
		t.Fatal("IsCode() = false, want true")
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeUnknown)
	}
}

func TestWrapKeepsExistingCode(t *testing.T) {
	if Wrap(CodeFetchFailed, "x", nil) != nil {
		t.Fatal("Wrap(nil) should stay nil")
	}

	plain := errors.New("timeout")
	got := Wrap(CodeFetchFailed, "fetch local version", plain)
	if CodeOf(got) != CodeFetchFailed {
		t.Fatalf("CodeOf(Wrap(plain)) = %q, want %q", CodeOf(got), CodeFetchFailed)
	}
	if !errors.Is(got, plain) {
		t.Fatal("wrapped error should unwrap to the cause")
	}

	coded := New(CodeParseFailed, "decode", nil)
	if got := Wrap(CodeFetchFailed, "fetch", coded); CodeOf(got) != CodeParseFailed {
		t.Fatalf("Wrap should not override an existing code, got %q", CodeOf(got))
	}
}
