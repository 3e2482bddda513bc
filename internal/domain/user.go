package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

// MaxPostLength is the longest post accepted, in UTF-16 code units
const MaxPostLength = 144

// User is a leaf entry that posts content and follows other users
type User struct {
	name         string
	group        string // owning group name
	following    []string
	followIndex  map[string]struct{}
	posts        []string
	createdAt    time.Time
	lastPostedAt time.Time
	notifier     *events.Notifier
}

// NewUser creates a user owned by the named group. The user follows itself
// and is subscribed to its own notifier.
func NewUser(name, group string, createdAt time.Time) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: user name cannot be empty", ErrInvalidName)
	}
	u := &User{
		name:        name,
		group:       group,
		followIndex: make(map[string]struct{}),
		createdAt:   createdAt,
		notifier:    events.NewNotifier(name),
	}
	u.Follow(name)
	u.notifier.Subscribe(name)
	return u, nil
}

func (u *User) Name() string         { return u.name }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) Kind() EntryKind      { return EntryKindUser }
func (u *User) entry()               {}

// Accept dispatches to VisitUser
func (u *User) Accept(v Visitor) int {
	return v.VisitUser(u)
}

// Group returns the name of the owning group
func (u *User) Group() string {
	return u.group
}

// Notifier returns the user's subscriber list
func (u *User) Notifier() *events.Notifier {
	return u.notifier
}

// Follow records name in the following set. Returns false if it was already
// present.
func (u *User) Follow(name string) bool {
	if _, ok := u.followIndex[name]; ok {
		return false
	}
	u.followIndex[name] = struct{}{}
	u.following = append(u.following, name)
	return true
}

// IsFollowing checks the following set
func (u *User) IsFollowing(name string) bool {
	_, ok := u.followIndex[name]
	return ok
}

// Following returns followed names in the order they were followed, self first
func (u *User) Following() []string {
	out := make([]string, len(u.following))
	copy(out, u.following)
	return out
}

// Post validates text and appends it to the user's posts
func (u *User) Post(text string, at time.Time) error {
	if err := ValidatePost(text); err != nil {
		return err
	}
	u.posts = append(u.posts, text)
	u.lastPostedAt = at
	return nil
}

// Posts returns all posts, oldest first
func (u *User) Posts() []string {
	out := make([]string, len(u.posts))
	copy(out, u.posts)
	return out
}

// PostCount returns the number of posts
func (u *User) PostCount() int {
	return len(u.posts)
}

// LastPostedAt returns the time of the latest post, zero if the user never posted
func (u *User) LastPostedAt() time.Time {
	return u.lastPostedAt
}

// HasPosted reports whether the user posted at least once
func (u *User) HasPosted() bool {
	return !u.lastPostedAt.IsZero()
}

// ValidatePost checks that text is non-empty and at most MaxPostLength
// UTF-16 code units long
func ValidatePost(text string) error {
	if text == "" {
		return fmt.Errorf("%w: post cannot be empty", ErrInvalidPost)
	}
	if n := PostLength(text); n > MaxPostLength {
		return fmt.Errorf("%w: post is %d characters, at most %d allowed", ErrInvalidPost, n, MaxPostLength)
	}
	return nil
}

// PostLength counts text in UTF-16 code units
func PostLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}
