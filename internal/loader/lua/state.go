package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single chunk or function call.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe. State serializes every call
// with a mutex, so one State may be shared between goroutines, but calls
// never run in parallel.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	closed           bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the per-call timeout. Zero disables it.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)
	state.L = L

	return state
}

// openSafeLibraries opens the base, table, string and math libraries and
// strips the loaders that can reach the filesystem.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoFile runs the chunk at path and returns the values it returned.
func (s *State) DoFile(ctx context.Context, path string) ([]lua.LValue, error) {
	return s.run(ctx, func() (*lua.LFunction, error) {
		return s.L.LoadFile(path)
	})
}

// DoString runs code and returns the values it returned.
func (s *State) DoString(ctx context.Context, code string) ([]lua.LValue, error) {
	return s.run(ctx, func() (*lua.LFunction, error) {
		return s.L.LoadString(code)
	})
}

func (s *State) run(ctx context.Context, compile func() (*lua.LFunction, error)) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := compile()
	if err != nil {
		return nil, err
	}
	return s.callLocked(ctx, fn)
}

// CallFunction calls fn with Go arguments and returns its results as Go
// values. Arguments and results are converted with a Bridge while the state
// is locked.
func (s *State) CallFunction(ctx context.Context, fn lua.LValue, args ...any) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	f, ok := fn.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w (got %s)", ErrNotFunction, fn.Type())
	}

	b := NewBridge(s.L)
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = b.ToLuaValue(a)
	}

	results, err := s.callLocked(ctx, f, largs...)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(results))
	for i, r := range results {
		out[i] = b.ToGoValue(r)
	}
	return out, nil
}

// callLocked pushes fn and args and collects every returned value.
// s.mu must be held.
func (s *State) callLocked(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) (results []lua.LValue, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	stackTop := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, err
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results = make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)

	return results, nil
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// RegisterModule sets a global table holding funcs.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) *lua.LTable {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
	return mod
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Close is idempotent.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}

// Inspect runs fn with the underlying LState while the state is locked.
// fn must not retain L.
func (s *State) Inspect(fn func(L *lua.LState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	fn(s.L)
	return nil
}
