package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"golang.org/x/net/html"

	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/loader/lua"
	"github.com/dshills/apphost/internal/view"
)

type goElement struct{ name string }

func (e goElement) Name() string { return e.name }

func (e goElement) Create(di.Container) (Component, error) { return nil, nil }

func luaLoader(t *testing.T, id, code string) *lua.Loader {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, filepath.FromSlash(id)+".lua")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	return lua.NewLoader(lua.WithPaths(dir))
}

func luaModule(t *testing.T, id, code string) *lua.Module {
	t.Helper()
	l := luaLoader(t, id, code)
	t.Cleanup(func() { _ = l.Close() })

	m, err := l.LoadModule(context.Background(), id)
	if err != nil {
		t.Fatalf("LoadModule(%s) failed: %v", id, err)
	}
	return m.(*lua.Module)
}

func TestFromModule_GoValues(t *testing.T) {
	ctx := context.Background()

	def := &ElementDef{ElementName: "x"}
	d, err := FromModule(ctx, "x", def)
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}
	if d != Descriptor(def) {
		t.Error("expected an ElementDef to be its own descriptor")
	}

	d, err = FromModule(ctx, "y", goElement{name: "go-el"})
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}
	r := NewRegistry()
	if err := d.Register(r); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if _, ok := r.Element("go-el"); !ok {
		t.Error("expected go-el to be registered")
	}

	if _, err := FromModule(ctx, "z", "just a string"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource, got %v", err)
	}
}

func TestFromModule_LuaElement(t *testing.T) {
	m := luaModule(t, "widgets/user-card", `
return {
  template = "<div class=\"card\">{{.name}}</div>",
  model = function() return { name = "Ada" } end,
}
`)
	d, err := FromModule(context.Background(), "widgets/user-card", m)
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}

	def, ok := d.(*ElementDef)
	if !ok {
		t.Fatalf("expected *ElementDef, got %T", d)
	}
	if def.Name() != "user-card" {
		t.Errorf("expected name from the id, got %s", def.Name())
	}

	comp, err := def.Create(newContainer(NewRegistry()))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if got := comp.View().(*view.Fragment).String(); got != `<div class="card">Ada</div>` {
		t.Errorf("unexpected view %s", got)
	}
}

func TestFromModule_LuaStaticModel(t *testing.T) {
	m := luaModule(t, "banner", `
return { name = "app-banner", template = "<h1>{{.title}}</h1>", model = { title = "Hello" } }
`)
	d, err := FromModule(context.Background(), "banner", m)
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}
	def := d.(*ElementDef)
	if def.Name() != "app-banner" {
		t.Errorf("expected app-banner, got %s", def.Name())
	}
	if !reflect.DeepEqual(def.Model, map[string]any{"title": "Hello"}) {
		t.Errorf("unexpected model %v", def.Model)
	}
}

func TestFromModule_LuaAttribute(t *testing.T) {
	m := luaModule(t, "tooltip", `
return {
  kind = "attribute",
  apply = function(value, attrs)
    return { title = value, ["data-tag"] = attrs.tooltip }
  end,
}
`)
	d, err := FromModule(context.Background(), "tooltip", m)
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}

	r := NewRegistry()
	if err := d.Register(r); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	attr, ok := r.Attribute("tooltip")
	if !ok {
		t.Fatal("expected tooltip attribute")
	}

	n := &html.Node{Type: html.ElementNode, Data: "span", Attr: []html.Attribute{{Key: "tooltip", Val: "hello"}}}
	if err := attr.Apply(n, "hello"); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	want := []html.Attribute{
		{Key: "tooltip", Val: "hello"},
		{Key: "data-tag", Val: "hello"},
		{Key: "title", Val: "hello"},
	}
	if !slices.Equal(n.Attr, want) {
		t.Errorf("attributes = %v, want %v", n.Attr, want)
	}
}

func TestFromModule_LuaValueConverter(t *testing.T) {
	m := luaModule(t, "upper", `
return { kind = "valueConverter", toView = function(v, suffix) return string.upper(v) .. (suffix or "") end }
`)
	d, err := FromModule(context.Background(), "upper", m)
	if err != nil {
		t.Fatalf("FromModule() failed: %v", err)
	}

	r := NewRegistry()
	if err := d.Register(r); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	c, ok := r.ValueConverter("upper")
	if !ok {
		t.Fatal("expected upper converter")
	}

	out, err := c.ToView("ada", "!")
	if err != nil {
		t.Fatalf("ToView() failed: %v", err)
	}
	if out != "ADA!" {
		t.Errorf("expected ADA!, got %v", out)
	}
}

func TestFromModule_LuaInvalid(t *testing.T) {
	tests := map[string]string{
		"no-template": `return { kind = "element" }`,
		"no-apply":    `return { kind = "attribute" }`,
		"no-toview":   `return { kind = "valueConverter" }`,
		"bad-kind":    `return { kind = "widget", template = "<i></i>" }`,
	}
	for id, code := range tests {
		t.Run(id, func(t *testing.T) {
			_, err := FromModule(context.Background(), id, luaModule(t, id, code))
			if !errors.Is(err, ErrUnknownResource) {
				t.Errorf("expected ErrUnknownResource, got %v", err)
			}
		})
	}
}

func TestFromModule_ClosedLuaModule(t *testing.T) {
	l := luaLoader(t, "late", `return { template = "<i></i>" }`)
	m, err := l.LoadModule(context.Background(), "late")
	if err != nil {
		t.Fatalf("LoadModule() failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if _, err := FromModule(context.Background(), "late", m); !errors.Is(err, lua.ErrStateClosed) {
		t.Errorf("expected ErrStateClosed, got %v", err)
	}
}
