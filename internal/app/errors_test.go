package app

import (
	"errors"
	"fmt"
	"testing"
)

func TestStartError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", &StartError{Phase: PhaseImport, Err: cause})

	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
	if p := PhaseOf(err); p != PhaseImport {
		t.Errorf("PhaseOf() = %v, want import", p)
	}
	if p := PhaseOf(cause); p != "" {
		t.Errorf("PhaseOf(plain) = %v, want empty", p)
	}
	if msg := err.Error(); msg != "outer: start: import: boom" {
		t.Errorf("unexpected message %q", msg)
	}

	var nilErr *StartError
	if nilErr.Error() != "" || nilErr.Unwrap() != nil {
		t.Error("expected a nil *StartError to be inert")
	}
}

func TestAttachError(t *testing.T) {
	cause := errors.New("boom")
	err := &AttachError{Step: StepLoad, Root: "pages/home", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
	if msg := err.Error(); msg != "set root pages/home: load: boom" {
		t.Errorf("unexpected message %q", msg)
	}
}
