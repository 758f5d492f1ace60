package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNoCoordinator indicates the container has no resource coordinator.
	ErrNoCoordinator = errors.New("no resource coordinator")
)

// Phase is the startup stage that failed.
type Phase string

// Startup phases, in the order Start runs them.
const (
	PhasePlugins  Phase = "plugins"
	PhaseImport   Phase = "import"
	PhaseRegister Phase = "register"
)

// StartError reports the phase in which Start failed.
type StartError struct {
	Phase Phase
	Err   error
}

func (e *StartError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("start: %s: %v", e.Phase, e.Err)
}

func (e *StartError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AttachStep is the step of SetRoot that failed.
type AttachStep string

// Attach steps.
const (
	StepHost   AttachStep = "host"
	StepLoad   AttachStep = "load"
	StepCreate AttachStep = "create"
	StepSlot   AttachStep = "slot"
)

// AttachError reports a failed root attachment.
type AttachError struct {
	Step AttachStep
	Root string
	Err  error
}

func (e *AttachError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("set root %s: %s: %v", e.Root, e.Step, e.Err)
}

func (e *AttachError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PhaseOf returns the phase of the StartError in err's chain, or "".
func PhaseOf(err error) Phase {
	var se *StartError
	if errors.As(err, &se) {
		return se.Phase
	}
	return ""
}
