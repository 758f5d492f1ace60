package resource

import (
	"fmt"
	"html/template"

	"golang.org/x/net/html"

	"github.com/dshills/apphost/internal/binding"
	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/view"
)

// Descriptor is an imported resource. Its only contract is to register
// itself.
type Descriptor interface {
	Register(r *Registry) error
}

// ElementType is a component type: something that can be instantiated
// against a container.
type ElementType interface {
	Name() string
	Create(c di.Container) (Component, error)
}

// Component is an instantiated element.
type Component interface {
	View() view.View
}

// Attribute is a custom attribute behavior applied to every element that
// carries the attribute when a view is created.
type Attribute interface {
	Apply(n *html.Node, value string) error
}

// ValueConverter converts a model value for display.
type ValueConverter interface {
	ToView(value any, args ...any) (any, error)
}

// ConverterFunc adapts a function to ValueConverter.
type ConverterFunc func(value any, args ...any) (any, error)

// ToView calls f.
func (f ConverterFunc) ToView(value any, args ...any) (any, error) {
	return f(value, args...)
}

// AttributeFunc adapts a function to Attribute.
type AttributeFunc func(n *html.Node, value string) error

// Apply calls f.
func (f AttributeFunc) Apply(n *html.Node, value string) error {
	return f(n, value)
}

// ElementDef declares a custom element. It is both a Descriptor (it
// registers itself as an element) and an ElementType.
type ElementDef struct {
	ElementName string
	Template    string
	Model       map[string]any

	// ModelFunc, when set, builds the model at Create time instead of Model.
	ModelFunc func() (map[string]any, error)
}

// Name returns the element name.
func (d *ElementDef) Name() string { return d.ElementName }

// Register adds d to the element table.
func (d *ElementDef) Register(r *Registry) error {
	return r.RegisterElement(d.ElementName, d)
}

// Create renders the element through the container's binding language and
// applies the registry's attribute behaviors to the result.
func (d *ElementDef) Create(c di.Container) (Component, error) {
	lang, err := binding.Resolve(c)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", d.ElementName, err)
	}

	model := d.Model
	if d.ModelFunc != nil {
		if model, err = d.ModelFunc(); err != nil {
			return nil, fmt.Errorf("create %s: model: %w", d.ElementName, err)
		}
	}

	v, err := lang.CreateView(d.Template, model)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", d.ElementName, err)
	}

	if c.HasHandler(RegistryKey) {
		registry, err := di.Get[*Registry](c, RegistryKey)
		if err != nil {
			return nil, err
		}
		if err := ApplyAttributes(registry, v); err != nil {
			return nil, fmt.Errorf("create %s: %w", d.ElementName, err)
		}
	}

	return &Instance{ElementName: d.ElementName, Model: model, view: v}, nil
}

// Instance is the Component built by ElementDef.
type Instance struct {
	ElementName string
	Model       map[string]any
	view        view.View
}

// View returns the rendered view.
func (i *Instance) View() view.View { return i.view }

// AttributeDef declares a custom attribute.
type AttributeDef struct {
	AttributeName string
	Behavior      Attribute
}

// Register adds d to the attribute table.
func (d *AttributeDef) Register(r *Registry) error {
	return r.RegisterAttribute(d.AttributeName, d.Behavior)
}

// ConverterDef declares a value converter.
type ConverterDef struct {
	ConverterName string
	Converter     ValueConverter
}

// Register adds d to the value converter table.
func (d *ConverterDef) Register(r *Registry) error {
	return r.RegisterValueConverter(d.ConverterName, d.Converter)
}

// elementTypeDescriptor registers a bare ElementType under its own name.
type elementTypeDescriptor struct {
	t ElementType
}

func (d elementTypeDescriptor) Register(r *Registry) error {
	return r.RegisterElement(d.t.Name(), d.t)
}

// ApplyAttributes walks v and applies every registered attribute found on
// an element node.
func ApplyAttributes(r *Registry, v view.View) error {
	var walk func(n *html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode {
			// Attr may be rewritten by a behavior; iterate over a copy.
			for _, a := range append([]html.Attribute(nil), n.Attr...) {
				behavior, ok := r.Attribute(a.Key)
				if !ok {
					continue
				}
				if err := behavior.Apply(n, a.Val); err != nil {
					return fmt.Errorf("attribute %s: %w", a.Key, err)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range v.Nodes() {
		if err := walk(n); err != nil {
			return err
		}
	}
	return nil
}

// Funcs exposes the registry's value converters to templates:
//
//	{{convert "upper" .title}}
func Funcs(r *Registry) template.FuncMap {
	return template.FuncMap{
		"convert": func(name string, value any, args ...any) (any, error) {
			c, ok := r.ValueConverter(name)
			if !ok {
				return nil, fmt.Errorf("unknown value converter %q", name)
			}
			return c.ToView(value, args...)
		},
	}
}

// SetAttr sets (or replaces) attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
