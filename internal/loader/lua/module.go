package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Module is a loaded Lua module: the table its chunk returned and the state
// that owns it.
type Module struct {
	id    string
	path  string
	state *State
	table *lua.LTable
}

// ID returns the identifier the module was loaded under.
func (m *Module) ID() string { return m.id }

// Path returns the file the module was loaded from.
func (m *Module) Path() string { return m.path }

// HasFunction reports whether the module table has a function field name.
// It fails with ErrStateClosed once the module is closed.
func (m *Module) HasFunction(name string) (bool, error) {
	var ok bool
	if err := m.state.Inspect(func(*lua.LState) {
		_, ok = m.table.RawGetString(name).(*lua.LFunction)
	}); err != nil {
		return false, fmt.Errorf("module %s: %w", m.id, err)
	}
	return ok, nil
}

// Call calls the function field name with Go arguments.
func (m *Module) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	var fn lua.LValue = lua.LNil
	if err := m.state.Inspect(func(*lua.LState) {
		fn = m.table.RawGetString(name)
	}); err != nil {
		return nil, err
	}
	if fn == lua.LNil {
		return nil, fmt.Errorf("module %s: %q: %w", m.id, name, ErrNotFunction)
	}

	results, err := m.state.CallFunction(ctx, fn, args...)
	if err != nil {
		return nil, fmt.Errorf("module %s: %s: %w", m.id, name, err)
	}
	return results, nil
}

// Field returns the Go form of the field name; nil when it is unset.
func (m *Module) Field(name string) (any, error) {
	var v any
	if err := m.state.Inspect(func(L *lua.LState) {
		v = NewBridge(L).ToGoValue(m.table.RawGetString(name))
	}); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.id, err)
	}
	return v, nil
}

// Fields returns the module table as a Go map. Function fields are omitted.
func (m *Module) Fields() (map[string]any, error) {
	var out map[string]any
	if err := m.state.Inspect(func(L *lua.LState) {
		out, _ = NewBridge(L).ToGoValue(m.table).(map[string]any)
	}); err != nil {
		return nil, fmt.Errorf("module %s: %w", m.id, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Close releases the module's Lua state.
func (m *Module) Close() error {
	return m.state.Close()
}
