package repository

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

// FeedRepository stores the deliveries each user's feed has received
type FeedRepository interface {
	// Append records a delivery in owner's feed
	Append(ctx context.Context, owner string, d events.Delivery) error

	// List returns owner's deliveries, newest first. limit <= 0 means all.
	List(ctx context.Context, owner string, limit int) ([]events.Delivery, error)

	// Count returns the number of deliveries in owner's feed
	Count(ctx context.Context, owner string) (int, error)

	// Close releases the underlying storage
	Close() error
}

// Common errors
var (
	ErrInvalidFeedItem = fmt.Errorf("invalid feed item")
	ErrInvalidOwner    = fmt.Errorf("invalid feed owner")
)

// FeedSink adapts a repository to the delivery interface for one owner
func FeedSink(repo FeedRepository, owner string) events.FeedSink {
	return events.FeedSinkFunc(func(ctx context.Context, d events.Delivery) error {
		return repo.Append(ctx, owner, d)
	})
}

func validateAppend(owner string, d events.Delivery) error {
	if owner == "" {
		return ErrInvalidOwner
	}
	if d.ID == "" || d.Poster == "" {
		return fmt.Errorf("%w: delivery needs an id and a poster", ErrInvalidFeedItem)
	}
	return nil
}

// feedPrefix is the key prefix shared by all of owner's items in the
// key-value stores. The owner is hex encoded so one owner's prefix can never
// be a prefix of another's.
func feedPrefix(owner string) []byte {
	return []byte("feed:" + hex.EncodeToString([]byte(owner)) + ":")
}

// feedKey appends a big-endian sequence so keys sort in append order
func feedKey(owner string, seq uint64) []byte {
	key := feedPrefix(owner)
	return binary.BigEndian.AppendUint64(key, seq)
}

// prefixEnd returns the smallest key greater than every key with prefix
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
