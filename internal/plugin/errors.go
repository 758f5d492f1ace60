package plugin

import (
	"errors"
	"fmt"
)

// Plugin errors.
var (
	// ErrLoadFailed matches every Error from the load phase.
	ErrLoadFailed = errors.New("plugin load failed")

	// ErrInstallFailed matches every Error from the install phase.
	ErrInstallFailed = errors.New("plugin install failed")

	// ErrEmptyModuleID is returned for a descriptor without a module id.
	ErrEmptyModuleID = errors.New("plugin module id is empty")
)

// Phase is the step of plugin loading that failed.
type Phase string

// Phases.
const (
	PhaseLoad    Phase = "load"
	PhaseInstall Phase = "install"
)

// Error reports the plugin and phase that failed.
type Error struct {
	ModuleID string
	Phase    Phase
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.ModuleID, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrLoadFailed or ErrInstallFailed by phase.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrLoadFailed:
		return e.Phase == PhaseLoad
	case ErrInstallFailed:
		return e.Phase == PhaseInstall
	}
	return false
}
