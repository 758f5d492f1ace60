package view

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// View is rendered output that can be placed into a slot.
type View interface {
	Nodes() []*html.Node
}

// AttachedHook is implemented by views that want to know when they become
// part of the live document.
type AttachedHook interface {
	Attached()
}

// DetachedHook is implemented by views that want to know when they are
// removed from a slot.
type DetachedHook interface {
	Detached()
}

// Fragment is a View over a list of sibling nodes.
type Fragment struct {
	nodes    []*html.Node
	attached bool
}

// NewFragment wraps nodes. The nodes must not have a parent.
func NewFragment(nodes ...*html.Node) *Fragment {
	return &Fragment{nodes: nodes}
}

// ParseFragment parses markup as the content of a <div>.
func ParseFragment(markup string) (*Fragment, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	return NewFragment(nodes...), nil
}

// Nodes returns the fragment's top-level nodes.
func (f *Fragment) Nodes() []*html.Node { return f.nodes }

// Attached marks the fragment as attached.
func (f *Fragment) Attached() { f.attached = true }

// Detached marks the fragment as detached.
func (f *Fragment) Detached() { f.attached = false }

// IsAttached reports whether the fragment is attached.
func (f *Fragment) IsAttached() bool { return f.attached }

// String renders the fragment.
func (f *Fragment) String() string {
	var b strings.Builder
	for _, n := range f.nodes {
		b.WriteString(RenderNode(n))
	}
	return b.String()
}
