package view

import (
	"golang.org/x/net/html"
)

// Slot is a managed attachment point inside a host element.
type Slot struct {
	host          *html.Node
	clearExisting bool
	cleared       bool

	views    []View
	attached bool
}

// NewSlot creates a slot over host. With clearExisting set the host's
// current children are removed on the first Add or Swap ("replace contents"
// mode).
func NewSlot(host *html.Node, clearExisting bool) (*Slot, error) {
	if host == nil {
		return nil, ErrNoHost
	}
	return &Slot{host: host, clearExisting: clearExisting}, nil
}

// Host returns the host element.
func (s *Slot) Host() *html.Node { return s.host }

// Views returns the views currently in the slot.
func (s *Slot) Views() []View { return s.views }

// IsAttached reports whether Attached has been called.
func (s *Slot) IsAttached() bool { return s.attached }

// Add appends v to the slot. If the slot is already attached, v is
// notified immediately.
func (s *Slot) Add(v View) {
	s.clearOnce()
	for _, n := range v.Nodes() {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		s.host.AppendChild(n)
	}
	s.views = append(s.views, v)

	if s.attached {
		if h, ok := v.(AttachedHook); ok {
			h.Attached()
		}
	}
}

// RemoveAll removes every view from the slot.
func (s *Slot) RemoveAll() {
	for _, v := range s.views {
		for _, n := range v.Nodes() {
			if n.Parent == s.host {
				s.host.RemoveChild(n)
			}
		}
		if s.attached {
			if h, ok := v.(DetachedHook); ok {
				h.Detached()
			}
		}
	}
	s.views = nil
}

// Swap replaces the slot's views with v.
func (s *Slot) Swap(v View) {
	s.RemoveAll()
	s.Add(v)
}

// Attached signals that the slot is live. Every view in the slot gets its
// Attached hook called once.
func (s *Slot) Attached() {
	if s.attached {
		return
	}
	s.attached = true
	for _, v := range s.views {
		if h, ok := v.(AttachedHook); ok {
			h.Attached()
		}
	}
}

// Detached reverses Attached.
func (s *Slot) Detached() {
	if !s.attached {
		return
	}
	s.attached = false
	for _, v := range s.views {
		if h, ok := v.(DetachedHook); ok {
			h.Detached()
		}
	}
}

func (s *Slot) clearOnce() {
	if !s.clearExisting || s.cleared {
		return
	}
	s.cleared = true
	for c := s.host.FirstChild; c != nil; {
		next := c.NextSibling
		s.host.RemoveChild(c)
		c = next
	}
}
