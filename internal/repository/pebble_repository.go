package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

var pebbleSequenceKey = []byte("meta:feed_seq")

// PebbleFeedRepository implements FeedRepository on a Pebble LSM. Items sit
// under the owner's prefix in sequence order; the last sequence number is
// persisted alongside them in the same batch.
type PebbleFeedRepository struct {
	db     *pebble.DB
	logger *logrus.Logger

	mu  sync.Mutex // serializes sequence allocation
	seq uint64
}

// NewPebbleFeedRepository opens (or creates) a Pebble store in dir
func NewPebbleFeedRepository(dir string, logger *logrus.Logger) (*PebbleFeedRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pebble")
	}

	r := &PebbleFeedRepository{db: db, logger: logger}

	val, closer, err := db.Get(pebbleSequenceKey)
	switch {
	case err == nil:
		if len(val) == 8 {
			r.seq = binary.BigEndian.Uint64(val)
		}
		closer.Close()
	case errors.Is(err, pebble.ErrNotFound):
	default:
		db.Close()
		return nil, errors.Wrap(err, "failed to read feed sequence")
	}

	return r, nil
}

// Close closes the database
func (r *PebbleFeedRepository) Close() error {
	return r.db.Close()
}

// Append writes the delivery and the advanced sequence in one batch
func (r *PebbleFeedRepository) Append(ctx context.Context, owner string, d events.Delivery) error {
	if err := validateAppend(owner, d); err != nil {
		return err
	}

	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to marshal delivery")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.seq + 1
	batch := r.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(feedKey(owner, next), data, nil); err != nil {
		return errors.Wrap(err, "failed to stage delivery")
	}
	if err := batch.Set(pebbleSequenceKey, binary.BigEndian.AppendUint64(nil, next), nil); err != nil {
		return errors.Wrap(err, "failed to stage feed sequence")
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrapf(err, "failed to store delivery for %s", owner)
	}
	r.seq = next

	r.logger.WithFields(logrus.Fields{
		"owner":  owner,
		"poster": d.Poster,
		"seq":    next,
	}).Debug("feed item stored")

	return nil
}

func (r *PebbleFeedRepository) ownerIter(owner string) (*pebble.Iterator, error) {
	prefix := feedPrefix(owner)
	return r.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
}

// List walks the owner's bounded key range from the end
func (r *PebbleFeedRepository) List(ctx context.Context, owner string, limit int) ([]events.Delivery, error) {
	iter, err := r.ownerIter(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open iterator")
	}
	defer iter.Close()

	var out []events.Delivery
	for iter.Last(); iter.Valid(); iter.Prev() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var d events.Delivery
		if err := json.Unmarshal(iter.Value(), &d); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal delivery")
		}
		out = append(out, d)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrapf(err, "failed to list feed for %s", owner)
	}

	return out, nil
}

// Count counts keys in the owner's range
func (r *PebbleFeedRepository) Count(ctx context.Context, owner string) (int, error) {
	iter, err := r.ownerIter(owner)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open iterator")
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, errors.Wrapf(err, "failed to count feed for %s", owner)
	}
	return count, nil
}
