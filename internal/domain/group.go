package domain

import (
	"fmt"
	"strings"
	"time"
)

// Group is a composite entry holding other groups and users
type Group struct {
	name      string
	parent    string // parent group name, empty for the root
	children  []Entry
	members   map[string]struct{} // child names
	createdAt time.Time
}

// NewGroup constructs a detached group. parent is the name of the group it
// will be attached under, or empty for a root.
func NewGroup(name, parent string, createdAt time.Time) (*Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name cannot be empty", ErrInvalidName)
	}
	return &Group{
		name:      name,
		parent:    parent,
		members:   make(map[string]struct{}),
		createdAt: createdAt,
	}, nil
}

func (g *Group) Name() string         { return g.name }
func (g *Group) CreatedAt() time.Time { return g.createdAt }
func (g *Group) Kind() EntryKind      { return EntryKindGroup }
func (g *Group) entry()               {}

// Accept dispatches to VisitGroup
func (g *Group) Accept(v Visitor) int {
	return v.VisitGroup(g)
}

// Parent returns the name of the enclosing group
func (g *Group) Parent() string {
	return g.parent
}

// IsRoot reports whether the group has no parent
func (g *Group) IsRoot() bool {
	return g.parent == ""
}

// AddChild attaches e to the group. Adding a child that is already present is
// a no-op and returns false.
func (g *Group) AddChild(e Entry) bool {
	if e == nil {
		return false
	}
	if _, ok := g.members[e.Name()]; ok {
		return false
	}
	g.members[e.Name()] = struct{}{}
	g.children = append(g.children, e)
	return true
}

// HasChild checks direct membership by name
func (g *Group) HasChild(name string) bool {
	_, ok := g.members[name]
	return ok
}

// Children returns the direct children in attach order
func (g *Group) Children() []Entry {
	out := make([]Entry, len(g.children))
	copy(out, g.children)
	return out
}

// Len returns the number of direct children
func (g *Group) Len() int {
	return len(g.children)
}
