package resource

import (
	"errors"
	"fmt"
)

// Resource errors.
var (
	// ErrDuplicate matches every DuplicateError.
	ErrDuplicate = errors.New("resource already registered")

	// ErrUnknownResource is returned when a loaded module is not a resource.
	ErrUnknownResource = errors.New("module is not a resource")

	// ErrNotElement is returned when a root specifier does not name an element.
	ErrNotElement = errors.New("resource is not an element")
)

// ImportError reports the resource whose import failed.
type ImportError struct {
	ID  string
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import resource %s: %v", e.ID, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// RegisterError reports the descriptor whose registration failed. Entries
// registered before Index stay in the registry.
type RegisterError struct {
	Index int
	ID    string
	Err   error
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register resource %s (#%d): %v", e.ID, e.Index, e.Err)
}

func (e *RegisterError) Unwrap() error {
	return e.Err
}
