package repository

import (
	"context"
	"sync"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

// InMemoryFeedRepository is an in-memory implementation of FeedRepository
type InMemoryFeedRepository struct {
	mu    sync.RWMutex
	feeds map[string][]events.Delivery
}

// NewInMemoryFeedRepository creates a new in-memory feed repository
func NewInMemoryFeedRepository() *InMemoryFeedRepository {
	return &InMemoryFeedRepository{
		feeds: make(map[string][]events.Delivery),
	}
}

// Append records a delivery
func (r *InMemoryFeedRepository) Append(ctx context.Context, owner string, d events.Delivery) error {
	if err := validateAppend(owner, d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.feeds[owner] = append(r.feeds[owner], d)
	return nil
}

// List returns deliveries newest first
func (r *InMemoryFeedRepository) List(ctx context.Context, owner string, limit int) ([]events.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	feed := r.feeds[owner]
	n := len(feed)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]events.Delivery, 0, n)
	for i := len(feed) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, feed[i])
	}
	return out, nil
}

// Count returns the feed size
func (r *InMemoryFeedRepository) Count(ctx context.Context, owner string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.feeds[owner]), nil
}

// Close is a no-op
func (r *InMemoryFeedRepository) Close() error {
	return nil
}
