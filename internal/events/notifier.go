package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// ErrNoFeedSink is returned when a subscriber has no sink to deliver to
var ErrNoFeedSink = errors.New("no feed sink for subscriber")

// Delivery is one post as received by a follower's feed
type Delivery struct {
	ID       string    `json:"id"`
	Poster   string    `json:"poster"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
}

// NewDelivery builds a delivery with a fresh ID
func NewDelivery(poster, text string, postedAt time.Time) Delivery {
	return Delivery{
		ID:       uuid.New().String(),
		Poster:   poster,
		Text:     text,
		PostedAt: postedAt,
	}
}

// FeedSink receives deliveries for one subscriber
type FeedSink interface {
	Deliver(ctx context.Context, d Delivery) error
}

// FeedSinkFunc adapts a function to FeedSink
type FeedSinkFunc func(ctx context.Context, d Delivery) error

func (f FeedSinkFunc) Deliver(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// Fanout returns a sink that delivers to every non-nil sink in order and
// joins their errors
func Fanout(sinks ...FeedSink) FeedSink {
	return FeedSinkFunc(func(ctx context.Context, d Delivery) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Deliver(ctx, d); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// SinkResolver maps a subscriber name to its sink. It returns nil when the
// subscriber has none.
type SinkResolver func(subscriber string) FeedSink

// Notifier is the subscriber list of a single user. Subscribers are held by
// name and resolved to sinks at delivery time.
type Notifier struct {
	owner       string
	mu          sync.RWMutex
	subscribers []string
	index       map[string]struct{}
}

// NewNotifier creates an empty notifier for owner
func NewNotifier(owner string) *Notifier {
	return &Notifier{
		owner: owner,
		index: make(map[string]struct{}),
	}
}

// Owner returns the name of the user whose posts this notifier publishes
func (n *Notifier) Owner() string {
	return n.owner
}

// Subscribe adds name to the subscriber list. Subscribing twice is a no-op
// and returns false.
func (n *Notifier) Subscribe(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.index[name]; ok {
		return false
	}
	n.index[name] = struct{}{}
	n.subscribers = append(n.subscribers, name)
	return true
}

// IsSubscribed checks whether name is subscribed
func (n *Notifier) IsSubscribed(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.index[name]
	return ok
}

// Snapshot returns the subscribers in subscription order
func (n *Notifier) Snapshot() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.subscribers))
	copy(out, n.subscribers)
	return out
}

// Len returns the number of subscribers
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// Publish delivers d to the subscribers present at call time
func (n *Notifier) Publish(ctx context.Context, d Delivery, resolve SinkResolver) (int, error) {
	return Deliver(ctx, d, n.Snapshot(), resolve)
}

// Deliver sends d synchronously to each subscriber in order. A failing sink
// does not stop delivery to the rest; all failures are joined. Returns the
// number of successful deliveries.
func Deliver(ctx context.Context, d Delivery, subscribers []string, resolve SinkResolver) (int, error) {
	delivered := 0
	var errs []error
	for _, name := range subscribers {
		var sink FeedSink
		if resolve != nil {
			sink = resolve(name)
		}
		if sink == nil {
			errs = append(errs, pkgerrors.Wrapf(ErrNoFeedSink, "deliver to %s", name))
			continue
		}
		if err := sink.Deliver(ctx, d); err != nil {
			errs = append(errs, pkgerrors.Wrapf(err, "deliver to %s", name))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}
