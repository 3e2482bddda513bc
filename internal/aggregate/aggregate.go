// Package aggregate computes statistics over directory entries. Each
// statistic is an Aggregator: a domain.Visitor that scores one entry at a
// time plus a rule for folding the scores together. New statistics are new
// Aggregator types; entries and traversal stay untouched.
package aggregate

import (
	"strings"
	"time"
	"unicode"

	"github.com/DaDevFox/task-systems/social-core/internal/domain"
)

// NoPoster is what MostRecentPoster reports when nobody has posted
const NoPoster = "none"

// PositiveWords is the lexicon used to classify a post as positive
var PositiveWords = []string{"good", "great", "best", "happy", "haha", "lol"}

// Aggregator scores entries and folds the scores into one result
type Aggregator interface {
	domain.Visitor
	Fold(acc, value int) int
}

// Finisher is implemented by aggregators whose folded value needs a final
// transformation
type Finisher interface {
	Finish(acc int) int
}

// Run dispatches every entry to agg and folds the results, starting from 0.
// Aggregators carry run-scoped state, so pass a fresh one per run.
func Run(entries []domain.Entry, agg Aggregator) int {
	acc := 0
	for _, e := range entries {
		acc = agg.Fold(acc, e.Accept(agg))
	}
	if f, ok := agg.(Finisher); ok {
		return f.Finish(acc)
	}
	return acc
}

// Sum is the default fold rule
type Sum struct{}

func (Sum) Fold(acc, value int) int { return acc + value }

// UserCount counts users
type UserCount struct{ Sum }

func NewUserCount() *UserCount { return &UserCount{} }

func (*UserCount) VisitGroup(*domain.Group) int { return 0 }
func (*UserCount) VisitUser(*domain.User) int   { return 1 }

// GroupCount counts groups, the root included
type GroupCount struct{ Sum }

func NewGroupCount() *GroupCount { return &GroupCount{} }

func (*GroupCount) VisitGroup(*domain.Group) int { return 1 }
func (*GroupCount) VisitUser(*domain.User) int   { return 0 }

// TweetCount counts posts across all users
type TweetCount struct{ Sum }

func NewTweetCount() *TweetCount { return &TweetCount{} }

func (*TweetCount) VisitGroup(*domain.Group) int { return 0 }
func (*TweetCount) VisitUser(u *domain.User) int { return u.PostCount() }

// PositiveTweetRatio yields the integer percentage of posts that contain a
// positive word. Zero when there are no posts.
type PositiveTweetRatio struct {
	Sum
	total int
}

func NewPositiveTweetRatio() *PositiveTweetRatio { return &PositiveTweetRatio{} }

func (*PositiveTweetRatio) VisitGroup(*domain.Group) int { return 0 }

func (a *PositiveTweetRatio) VisitUser(u *domain.User) int {
	positive := 0
	for _, p := range u.Posts() {
		a.total++
		if IsPositive(p) {
			positive++
		}
	}
	return positive
}

func (a *PositiveTweetRatio) Finish(positive int) int {
	if a.total == 0 {
		return 0
	}
	return positive * 100 / a.total
}

// IsPositive reports whether text contains any word from PositiveWords,
// ignoring case
func IsPositive(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range PositiveWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// NameValidity scores 1 for each entry whose name has not been seen earlier
// in the run and contains no whitespace
type NameValidity struct {
	Sum
	seen map[string]struct{}
}

func NewNameValidity() *NameValidity {
	return &NameValidity{seen: make(map[string]struct{})}
}

func (a *NameValidity) VisitGroup(g *domain.Group) int { return a.score(g.Name()) }
func (a *NameValidity) VisitUser(u *domain.User) int   { return a.score(u.Name()) }

func (a *NameValidity) score(name string) int {
	_, dup := a.seen[name]
	a.seen[name] = struct{}{}
	if dup || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return 0
	}
	return 1
}

// MostRecentPoster tracks the user with the latest post. The fold keeps the
// maximum post time in Unix milliseconds; Name reports who produced it.
type MostRecentPoster struct {
	latest time.Time
	name   string
}

func NewMostRecentPoster() *MostRecentPoster { return &MostRecentPoster{} }

func (*MostRecentPoster) VisitGroup(*domain.Group) int { return 0 }

func (a *MostRecentPoster) VisitUser(u *domain.User) int {
	if !u.HasPosted() {
		return 0
	}
	// strictly later only, so ties keep the first user in traversal order
	if u.LastPostedAt().After(a.latest) {
		a.latest = u.LastPostedAt()
		a.name = u.Name()
	}
	return int(u.LastPostedAt().UnixMilli())
}

func (*MostRecentPoster) Fold(acc, value int) int {
	if value > acc {
		return value
	}
	return acc
}

// Name returns the most recent poster seen so far, or NoPoster
func (a *MostRecentPoster) Name() string {
	if a.name == "" {
		return NoPoster
	}
	return a.name
}

// Latest returns the time of the most recent post, zero if none
func (a *MostRecentPoster) Latest() time.Time {
	return a.latest
}

var (
	_ Aggregator = (*UserCount)(nil)
	_ Aggregator = (*GroupCount)(nil)
	_ Aggregator = (*TweetCount)(nil)
	_ Aggregator = (*PositiveTweetRatio)(nil)
	_ Aggregator = (*NameValidity)(nil)
	_ Aggregator = (*MostRecentPoster)(nil)
	_ Finisher   = (*PositiveTweetRatio)(nil)
)
