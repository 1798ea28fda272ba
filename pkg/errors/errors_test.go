package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeDependency, cause, "detector call failed")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsCodedError(t *testing.T) {
	inner := New(CodeNotFound, "object missing")
	wrapped := fmt.Errorf("fetching image: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected coded error to be found")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error defaults to retryable", errors.New("timeout"), true},
		{"dependency retryable", New(CodeDependency, "store down"), true},
		{"not found terminal", New(CodeNotFound, "gone"), false},
		{"inference terminal", New(CodeInference, "bad output"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%s: IsRetryable=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if !meta.Retryable {
		t.Fatalf("unknown codes should fall back to internal metadata")
	}
}
