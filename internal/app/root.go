package app

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/resource"
	"github.com/dshills/apphost/internal/view"
)

// DefaultHostID is the id of the element SetRoot attaches to when no host
// is given.
const DefaultHostID = "applicationHost"

// HostTarget selects the element SetRoot attaches to. The zero value means
// the element with id DefaultHostID.
type HostTarget struct {
	id   string
	node *html.Node
}

// HostID targets the element with the given id. An empty id means
// DefaultHostID.
func HostID(id string) HostTarget { return HostTarget{id: id} }

// HostElement targets n directly.
func HostElement(n *html.Node) HostTarget { return HostTarget{node: n} }

// resolve finds the host element. An id that matches nothing falls back to
// the document body.
func (t HostTarget) resolve(doc *view.Document) *html.Node {
	if t.node != nil {
		return t.node
	}
	id := t.id
	if id == "" {
		id = DefaultHostID
	}
	if n := doc.ElementByID(id); n != nil {
		return n
	}
	return doc.Body()
}

// Host is the attached root.
type Host struct {
	Element   *html.Node
	Root      string
	Component resource.Component
	Slot      *view.Slot
}

// RootAttached is the payload of TopicRootAttached.
type RootAttached struct {
	Root      string
	Host      *html.Node
	Component resource.Component
}

// SetRoot loads root as an element type, instantiates it against the
// container and places its view in the host element, replacing the host's
// content. It does not wait for or require Start.
func (a *Application) SetRoot(ctx context.Context, root string, target HostTarget) (*Application, error) {
	host := target.resolve(a.document)
	if host == nil {
		return nil, &AttachError{Step: StepHost, Root: root, Err: view.ErrNoHost}
	}
	a.hosts.Bind(host, a)

	coordinator, err := di.Get[resource.Coordinator](a.container, resource.CoordinatorKey)
	if err != nil {
		return nil, &AttachError{Step: StepLoad, Root: root, Err: err}
	}
	elementType, err := coordinator.LoadElement(ctx, root)
	if err != nil {
		return nil, &AttachError{Step: StepLoad, Root: root, Err: err}
	}

	component, err := elementType.Create(a.container)
	if err != nil {
		return nil, &AttachError{Step: StepCreate, Root: root, Err: err}
	}

	slot, err := view.NewSlot(host, true)
	if err != nil {
		return nil, &AttachError{Step: StepSlot, Root: root, Err: err}
	}

	a.rootMu.Lock()
	if prev := a.host; prev != nil {
		prev.Slot.Detached()
	}
	slot.Swap(component.View())
	slot.Attached()
	a.host = &Host{Element: host, Root: root, Component: component, Slot: slot}
	a.rootMu.Unlock()

	a.logger.Info("root attached", zap.String("root", root), zap.String("host", hostName(host)))
	a.publish(TopicRootAttached, RootAttached{Root: root, Host: host, Component: component})
	return a, nil
}

// Root returns the attached root, or nil before SetRoot succeeds.
func (a *Application) Root() *Host {
	a.rootMu.Lock()
	defer a.rootMu.Unlock()
	return a.host
}

func hostName(n *html.Node) string {
	if id := view.Attr(n, "id"); id != "" {
		return n.Data + "#" + id
	}
	return n.Data
}
