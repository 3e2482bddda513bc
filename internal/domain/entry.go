package domain

import "time"

// EntryKind identifies which variant of Entry a value is
type EntryKind int

const (
	EntryKindUnspecified EntryKind = iota
	EntryKindGroup
	EntryKindUser
)

func (k EntryKind) String() string {
	switch k {
	case EntryKindGroup:
		return "group"
	case EntryKindUser:
		return "user"
	default:
		return "unspecified"
	}
}

// Entry is a node of the directory hierarchy. The set of implementations is
// closed: only *Group and *User satisfy it.
type Entry interface {
	Name() string
	CreatedAt() time.Time
	Kind() EntryKind
	// Accept dispatches the entry to the matching Visitor method
	Accept(v Visitor) int

	entry()
}

// Visitor computes a per-entry value for each Entry variant. Adding a
// variant to Entry adds a method here, so every visitor must handle it.
type Visitor interface {
	VisitGroup(g *Group) int
	VisitUser(u *User) int
}
