package loader

import "context"

// Result is the outcome of a submitted load.
type Result struct {
	Module Module
	Err    error
}

// Submitter is implemented by loaders that accept a load without blocking
// the caller. The load is registered with the loader before Submit returns,
// and the channel yields exactly one Result.
type Submitter interface {
	Submit(ctx context.Context, id string) <-chan Result
}

// Submit starts loading id through l and returns the pending result.
//
// Loaders implementing Submitter see the load before Submit returns. Any
// other loader is called on a new goroutine, and Submit returns only once
// that goroutine is about to call LoadModule. Either way, loads submitted
// one after another from a single goroutine reach the loader in that order
// and complete concurrently.
func Submit(ctx context.Context, l Loader, id string) <-chan Result {
	if s, ok := l.(Submitter); ok {
		return s.Submit(ctx, id)
	}

	out := make(chan Result, 1)
	entered := make(chan struct{})
	go func() {
		close(entered)
		m, err := l.LoadModule(ctx, id)
		out <- Result{Module: m, Err: err}
	}()
	<-entered
	return out
}

// Resolved returns a channel that already holds m and err.
func Resolved(m Module, err error) <-chan Result {
	out := make(chan Result, 1)
	out <- Result{Module: m, Err: err}
	return out
}
