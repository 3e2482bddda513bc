// Package hierarchy stores the directory tree: one root group with nested
// groups and users, all sharing a single namespace.
//
// A Hierarchy is not safe for concurrent use. Callers that share one across
// goroutines must serialize mutations against traversals; the service layer
// does this with a single RWMutex.
package hierarchy

import (
	"fmt"
	"time"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
)

// Hierarchy owns the entry tree and the registered-name index
type Hierarchy struct {
	root  *domain.Group
	names map[string]domain.Entry
	clock func() time.Time
}

// New creates an empty hierarchy. clock stamps entry creation times; nil
// means time.Now.
func New(clock func() time.Time) *Hierarchy {
	if clock == nil {
		clock = time.Now
	}
	return &Hierarchy{
		names: make(map[string]domain.Entry),
		clock: clock,
	}
}

// Now returns the hierarchy clock's current time
func (h *Hierarchy) Now() time.Time {
	return h.clock()
}

// CreateRoot creates the root group. It must be called exactly once, before
// any other insertion.
func (h *Hierarchy) CreateRoot(name string) (*domain.Group, error) {
	if h.root != nil {
		return nil, fmt.Errorf("%w: root is %q", domain.ErrAlreadyInitialized, h.root.Name())
	}
	g, err := domain.NewGroup(name, "", h.clock())
	if err != nil {
		return nil, err
	}
	h.root = g
	h.names[name] = g
	return g, nil
}

// Root returns the root group, nil before CreateRoot
func (h *Hierarchy) Root() *domain.Group {
	return h.root
}

// AddGroup creates a group under parent, or under the root when parent is nil
func (h *Hierarchy) AddGroup(name string, parent *domain.Group) (*domain.Group, error) {
	parent, err := h.checkInsert(name, parent)
	if err != nil {
		return nil, err
	}
	g, err := domain.NewGroup(name, parent.Name(), h.clock())
	if err != nil {
		return nil, err
	}
	parent.AddChild(g)
	h.names[name] = g
	return g, nil
}

// AddUser creates a user under parent, or under the root when parent is nil
func (h *Hierarchy) AddUser(name string, parent *domain.Group) (*domain.User, error) {
	parent, err := h.checkInsert(name, parent)
	if err != nil {
		return nil, err
	}
	u, err := domain.NewUser(name, parent.Name(), h.clock())
	if err != nil {
		return nil, err
	}
	parent.AddChild(u)
	h.names[name] = u
	return u, nil
}

// checkInsert resolves the effective parent and rejects names already in use.
// Nothing is modified when it returns an error.
func (h *Hierarchy) checkInsert(name string, parent *domain.Group) (*domain.Group, error) {
	if h.root == nil {
		return nil, fmt.Errorf("%w: hierarchy has no root", domain.ErrInvalidParent)
	}
	if parent == nil {
		parent = h.root
	}
	if registered, ok := h.names[parent.Name()]; !ok || registered != domain.Entry(parent) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidParent, parent.Name())
	}
	if _, taken := h.names[name]; taken {
		return nil, fmt.Errorf("%w: %q", domain.ErrNameCollision, name)
	}
	return parent, nil
}

// NameExists reports whether name is registered to any group or user
func (h *Hierarchy) NameExists(name string) bool {
	_, ok := h.names[name]
	return ok
}

// FindByName searches the tree depth-first from the root. Returns nil when
// no entry has the name.
func (h *Hierarchy) FindByName(name string) domain.Entry {
	if h.root == nil {
		return nil
	}
	return findDFS(h.root, name)
}

func findDFS(e domain.Entry, name string) domain.Entry {
	if e.Name() == name {
		return e
	}
	g, ok := e.(*domain.Group)
	if !ok {
		return nil
	}
	for _, child := range g.Children() {
		if found := findDFS(child, name); found != nil {
			return found
		}
	}
	return nil
}

// User returns the user with the given name
func (h *Hierarchy) User(name string) (*domain.User, bool) {
	u, ok := h.names[name].(*domain.User)
	return u, ok
}

// Group returns the group with the given name
func (h *Hierarchy) Group(name string) (*domain.Group, bool) {
	g, ok := h.names[name].(*domain.Group)
	return g, ok
}

// AllEntries lists every entry in pre-order: each group before its
// children, children in attach order, root first
func (h *Hierarchy) AllEntries() []domain.Entry {
	if h.root == nil {
		return nil
	}
	out := make([]domain.Entry, 0, len(h.names))
	h.Walk(func(e domain.Entry, depth int) {
		out = append(out, e)
	})
	return out
}

// Walk visits every entry in pre-order with its depth below the root
func (h *Hierarchy) Walk(fn func(e domain.Entry, depth int)) {
	if h.root == nil {
		return
	}
	walk(h.root, 0, fn)
}

func walk(e domain.Entry, depth int, fn func(domain.Entry, int)) {
	fn(e, depth)
	if g, ok := e.(*domain.Group); ok {
		for _, child := range g.Children() {
			walk(child, depth+1, fn)
		}
	}
}

// Len returns the number of registered entries
func (h *Hierarchy) Len() int {
	return len(h.names)
}
