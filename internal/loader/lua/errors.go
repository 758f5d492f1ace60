package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotTable is returned when a module chunk does not return a table.
	ErrNotTable = errors.New("lua module must return a table")

	// ErrNotFunction is returned when calling a field that is not a function.
	ErrNotFunction = errors.New("lua field is not a function")
)
