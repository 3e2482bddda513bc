package aggregate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
	"github.com/DaDevFox/task-systems/social-core/internal/hierarchy"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	h     *hierarchy.Hierarchy
	users map[string]*domain.User
}

// newFixture builds Root{alice, Friends{bob, carol}} with no posts
func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := hierarchy.New(func() time.Time { return base })
	_, err := h.CreateRoot("Root")
	require.NoError(t, err)

	f := &fixture{h: h, users: map[string]*domain.User{}}
	alice, err := h.AddUser("alice", nil)
	require.NoError(t, err)
	friends, err := h.AddGroup("Friends", nil)
	require.NoError(t, err)
	bob, err := h.AddUser("bob", friends)
	require.NoError(t, err)
	carol, err := h.AddUser("carol", friends)
	require.NoError(t, err)

	f.users["alice"], f.users["bob"], f.users["carol"] = alice, bob, carol
	return f
}

func (f *fixture) post(t *testing.T, user, text string, at time.Time) {
	t.Helper()
	require.NoError(t, f.users[user].Post(text, at))
}

func TestCounts(t *testing.T) {
	f := newFixture(t)
	entries := f.h.AllEntries()

	users := Run(entries, NewUserCount())
	groups := Run(entries, NewGroupCount())

	assert.Equal(t, 3, users)
	assert.Equal(t, 2, groups)
	assert.Equal(t, len(entries), users+groups)
}

func TestTweetCount(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, Run(f.h.AllEntries(), NewTweetCount()))

	f.post(t, "alice", "one", base)
	f.post(t, "alice", "two", base)
	f.post(t, "carol", "three", base)

	sum := 0
	for _, u := range f.users {
		sum += len(u.Posts())
	}
	assert.Equal(t, 3, sum)
	assert.Equal(t, sum, Run(f.h.AllEntries(), NewTweetCount()))
}

func TestPositiveTweetRatio(t *testing.T) {
	tests := []struct {
		name  string
		posts []string
		want  int
	}{
		{"NoPosts", nil, 0},
		{"AllPositive", []string{"good morning"}, 100},
		{"NonePositive", []string{"meh", "rain again"}, 0},
		{"Third", []string{"GREAT day", "nothing", "still nothing"}, 33},
		{"TwoThirds", []string{"haha", "lol", "no"}, 66},
		{"CountedOncePerPost", []string{"good great best happy haha lol", "plain"}, 50},
		{"SubstringMatch", []string{"goodbye"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, p := range tt.posts {
				f.post(t, "bob", p, base)
			}

			got := Run(f.h.AllEntries(), NewPositiveTweetRatio())
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive("Have a HAPPY day"))
	assert.True(t, IsPositive("LoL"))
	assert.False(t, IsPositive("sad"))
	assert.False(t, IsPositive(""))
}

func TestNameValidity(t *testing.T) {
	f := newFixture(t)
	entries := f.h.AllEntries()
	assert.Equal(t, len(entries), Run(entries, NewNameValidity()))

	_, err := f.h.AddUser("has space", nil)
	require.NoError(t, err)
	_, err = f.h.AddUser("tab\there", nil)
	require.NoError(t, err)
	entries = f.h.AllEntries()
	assert.Equal(t, len(entries)-2, Run(entries, NewNameValidity()))
}

func TestNameValidityDetectsDuplicatesWithinRun(t *testing.T) {
	f := newFixture(t)
	entries := f.h.AllEntries()

	// the same entry twice in one run is a duplicate
	doubled := append(entries, entries[1])
	assert.Equal(t, len(entries), Run(doubled, NewNameValidity()))
}

func TestNameValidityStateIsPerRun(t *testing.T) {
	f := newFixture(t)
	entries := f.h.AllEntries()

	first := Run(entries, NewNameValidity())
	second := Run(entries, NewNameValidity())
	assert.Equal(t, first, second)
	assert.Equal(t, len(entries), second)
}

func TestMostRecentPoster(t *testing.T) {
	f := newFixture(t)

	agg := NewMostRecentPoster()
	assert.Equal(t, 0, Run(f.h.AllEntries(), agg))
	assert.Equal(t, NoPoster, agg.Name())
	assert.True(t, agg.Latest().IsZero())

	f.post(t, "carol", "first", base.Add(time.Minute))
	f.post(t, "alice", "second", base.Add(2*time.Minute))

	agg = NewMostRecentPoster()
	got := Run(f.h.AllEntries(), agg)
	assert.Equal(t, "alice", agg.Name())
	assert.Equal(t, int(base.Add(2*time.Minute).UnixMilli()), got)
	assert.Equal(t, base.Add(2*time.Minute), agg.Latest())

	f.post(t, "bob", "third", base.Add(3*time.Minute))
	agg = NewMostRecentPoster()
	Run(f.h.AllEntries(), agg)
	assert.Equal(t, "bob", agg.Name())
}

func TestMostRecentPosterTieKeepsFirstInTraversal(t *testing.T) {
	f := newFixture(t)
	at := base.Add(time.Hour)
	f.post(t, "carol", "same time", at)
	f.post(t, "bob", "same time", at)

	agg := NewMostRecentPoster()
	Run(f.h.AllEntries(), agg)
	// bob precedes carol in pre-order
	assert.Equal(t, "bob", agg.Name())
}

func TestMostRecentPosterIndependentRuns(t *testing.T) {
	f := newFixture(t)
	f.post(t, "alice", "late", base.Add(time.Hour))

	// a run over a hierarchy with only earlier posts is not affected by a
	// previous run that saw a later one
	Run(f.h.AllEntries(), NewMostRecentPoster())

	other := newFixture(t)
	other.post(t, "bob", "early", base.Add(time.Minute))
	agg := NewMostRecentPoster()
	Run(other.h.AllEntries(), agg)
	assert.Equal(t, "bob", agg.Name())
}

// postLength is an ad-hoc statistic showing that new aggregators plug into
// Run without touching entries or traversal
type postLength struct{ Sum }

func (postLength) VisitGroup(*domain.Group) int { return 0 }
func (postLength) VisitUser(u *domain.User) int {
	return len(strings.Join(u.Posts(), ""))
}

func TestCustomAggregator(t *testing.T) {
	f := newFixture(t)
	f.post(t, "alice", "abc", base)
	f.post(t, "bob", "de", base)

	assert.Equal(t, 5, Run(f.h.AllEntries(), postLength{}))
}
