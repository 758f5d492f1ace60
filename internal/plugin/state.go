package plugin

// State is the progress of a single plugin through Load.
type State int

// Plugin states.
const (
	// StatePending - Load has not started on the plugin.
	StatePending State = iota

	// StateLoading - the module is being loaded.
	StateLoading

	// StateInstalling - the module loaded and its install hook is running.
	StateInstalling

	// StateInstalled - the install hook returned successfully.
	StateInstalled

	// StateLoaded - a load-only module finished loading.
	StateLoaded

	// StateFailed - loading or installing failed.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsDone reports whether s is terminal.
func (s State) IsDone() bool {
	return s == StateInstalled || s == StateLoaded || s == StateFailed
}
