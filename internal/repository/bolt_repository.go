package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

var feedsBucket = []byte("feeds")

// BoltFeedRepository implements FeedRepository using BoltDB (bbolt). Each
// owner gets a nested bucket keyed by the bucket's own sequence.
type BoltFeedRepository struct {
	db     *bbolt.DB
	logger *logrus.Logger
}

// NewBoltFeedRepository opens (or creates) the bolt file at dbPath
func NewBoltFeedRepository(dbPath string, logger *logrus.Logger) (*BoltFeedRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create parent directory for bolt db")
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(feedsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create feeds bucket")
	}

	return &BoltFeedRepository{db: db, logger: logger}, nil
}

// Close closes the database
func (r *BoltFeedRepository) Close() error {
	return r.db.Close()
}

// Append stores a delivery in owner's bucket
func (r *BoltFeedRepository) Append(ctx context.Context, owner string, d events.Delivery) error {
	if err := validateAppend(owner, d); err != nil {
		return err
	}

	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to marshal delivery")
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(feedsBucket).CreateBucketIfNotExists([]byte(owner))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(binary.BigEndian.AppendUint64(nil, seq), data)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store delivery for %s", owner)
	}

	r.logger.WithFields(logrus.Fields{
		"owner":  owner,
		"poster": d.Poster,
	}).Debug("feed item stored")

	return nil
}

// List reads owner's bucket from the last key backwards
func (r *BoltFeedRepository) List(ctx context.Context, owner string, limit int) ([]events.Delivery, error) {
	var out []events.Delivery

	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(feedsBucket).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var d events.Delivery
			if err := json.Unmarshal(v, &d); err != nil {
				return errors.Wrap(err, "failed to unmarshal delivery")
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list feed for %s", owner)
	}

	return out, nil
}

// Count returns the number of keys in owner's bucket
func (r *BoltFeedRepository) Count(ctx context.Context, owner string) (int, error) {
	count := 0
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(feedsBucket).Bucket([]byte(owner))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count feed for %s", owner)
	}
	return count, nil
}
