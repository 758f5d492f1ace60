package resource

import (
	"context"
	"fmt"
	"path"
	"sort"

	"golang.org/x/net/html"

	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/loader/lua"
)

// FromModule turns a loaded module into a Descriptor.
//
// Go modules qualify by implementing Descriptor, or ElementType (registered
// under its own name). Lua modules describe themselves with a table:
//
//	return {
//	    kind = "element",          -- "element" (default), "attribute", "valueConverter"
//	    name = "user-card",        -- defaults to the last segment of the id
//	    template = "<div>{{.name}}</div>",
//	    model = { name = "Ada" },  -- or a function returning the model
//	}
//
// Attributes provide apply(value, attrs) returning a table of attributes to
// set; value converters provide toView(value, ...).
func FromModule(ctx context.Context, id string, m loader.Module) (Descriptor, error) {
	switch mod := m.(type) {
	case Descriptor:
		return mod, nil
	case ElementType:
		return elementTypeDescriptor{t: mod}, nil
	case *lua.Module:
		return fromLua(ctx, id, mod)
	default:
		return nil, fmt.Errorf("%s (%T): %w", id, m, ErrUnknownResource)
	}
}

// Resource functions run long after import, so they keep the import
// context's values but not its deadline.
func fromLua(ctx context.Context, id string, mod *lua.Module) (Descriptor, error) {
	ctx = context.WithoutCancel(ctx)
	fields, err := mod.Fields()
	if err != nil {
		return nil, err
	}
	name, _ := fields["name"].(string)
	if name == "" {
		name = path.Base(id)
	}
	kind, _ := fields["kind"].(string)

	switch Kind(kind) {
	case KindElement, "":
		tmpl, ok := fields["template"].(string)
		if !ok {
			return nil, fmt.Errorf("%s: element has no template: %w", id, ErrUnknownResource)
		}
		def := &ElementDef{ElementName: name, Template: tmpl}
		hasModel, err := mod.HasFunction("model")
		if err != nil {
			return nil, err
		}
		if hasModel {
			def.ModelFunc = func() (map[string]any, error) {
				out, err := mod.Call(ctx, "model")
				if err != nil {
					return nil, err
				}
				if len(out) == 0 {
					return nil, nil
				}
				m, _ := out[0].(map[string]any)
				return m, nil
			}
		} else if m, ok := fields["model"].(map[string]any); ok {
			def.Model = m
		}
		return def, nil

	case KindAttribute:
		if err := requireFunction(mod, id, "apply", "attribute"); err != nil {
			return nil, err
		}
		return &AttributeDef{AttributeName: name, Behavior: luaAttribute(ctx, mod)}, nil

	case KindValueConverter:
		if err := requireFunction(mod, id, "toView", "value converter"); err != nil {
			return nil, err
		}
		return &ConverterDef{ConverterName: name, Converter: ConverterFunc(func(value any, args ...any) (any, error) {
			out, err := mod.Call(ctx, "toView", append([]any{value}, args...)...)
			if err != nil || len(out) == 0 {
				return nil, err
			}
			return out[0], nil
		})}, nil

	default:
		return nil, fmt.Errorf("%s: kind %q: %w", id, kind, ErrUnknownResource)
	}
}

func requireFunction(mod *lua.Module, id, fn, kind string) error {
	ok, err := mod.HasFunction(fn)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %s has no %s function: %w", id, kind, fn, ErrUnknownResource)
	}
	return nil
}

// luaAttribute calls apply(value, attrs) and sets every returned attribute,
// in key order.
func luaAttribute(ctx context.Context, mod *lua.Module) Attribute {
	return AttributeFunc(func(n *html.Node, value string) error {
		attrs := make(map[string]any, len(n.Attr))
		for _, a := range n.Attr {
			attrs[a.Key] = a.Val
		}

		out, err := mod.Call(ctx, "apply", value, attrs)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		set, _ := out[0].(map[string]any)
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			SetAttr(n, k, fmt.Sprint(set[k]))
		}
		return nil
	})
}
