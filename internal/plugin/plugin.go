package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/loader/lua"
)

// Descriptor names a plugin module and its configuration. A nil Config is
// passed to the install hook as an empty map.
type Descriptor struct {
	ModuleID string
	Config   map[string]any
}

// Installer is implemented by modules with an install hook.
type Installer interface {
	Install(ctx context.Context, cfg map[string]any) error
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(ctx context.Context, cfg map[string]any) error

// Install calls f.
func (f InstallerFunc) Install(ctx context.Context, cfg map[string]any) error {
	return f(ctx, cfg)
}

// Kind says what Load does with a module once it is loaded.
type Kind int

const (
	// KindLoadOnly modules are done when loaded.
	KindLoadOnly Kind = iota

	// KindInstallable modules are done when their install hook returns.
	KindInstallable
)

func (k Kind) String() string {
	if k == KindInstallable {
		return "installable"
	}
	return "load-only"
}

// Classify decides once, after load, whether m is installable. The returned
// Installer is nil for KindLoadOnly. A Lua module that can no longer be
// inspected is an error.
func Classify(m loader.Module) (Kind, Installer, error) {
	switch mod := m.(type) {
	case Installer:
		return KindInstallable, mod, nil
	case *lua.Module:
		ok, err := mod.HasFunction("install")
		if err != nil {
			return KindLoadOnly, nil, err
		}
		if ok {
			return KindInstallable, luaInstaller{mod: mod}, nil
		}
	}
	return KindLoadOnly, nil, nil
}

type luaInstaller struct {
	mod *lua.Module
}

func (i luaInstaller) Install(ctx context.Context, cfg map[string]any) error {
	out, err := i.mod.Call(ctx, "install", cfg)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	if ok, isBool := out[0].(bool); isBool && !ok {
		return errors.New("install returned false")
	}
	if out[0] == nil && len(out) > 1 {
		if msg, ok := out[1].(string); ok {
			return errors.New(msg)
		}
		return fmt.Errorf("install failed: %v", out[1])
	}
	return nil
}
