package app

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/dshills/apphost/internal/di"
)

// HostRegistryKey is the container key of the host registry.
var HostRegistryKey = di.KeyOf[*HostRegistry]()

// HostRegistry maps host elements to the application attached to them.
// It holds plain references and owns neither side.
type HostRegistry struct {
	mu    sync.RWMutex
	hosts map[*html.Node]*Application
}

// NewHostRegistry creates an empty registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{hosts: make(map[*html.Node]*Application)}
}

// Bind records app as the application of host, replacing any earlier one.
func (r *HostRegistry) Bind(host *html.Node, app *Application) {
	r.mu.Lock()
	r.hosts[host] = app
	r.mu.Unlock()
}

// Lookup returns the application attached to host.
func (r *HostRegistry) Lookup(host *html.Node) (*Application, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.hosts[host]
	return app, ok
}

// Unbind forgets host.
func (r *HostRegistry) Unbind(host *html.Node) {
	r.mu.Lock()
	delete(r.hosts, host)
	r.mu.Unlock()
}

// Len returns the number of bound hosts.
func (r *HostRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hosts)
}
