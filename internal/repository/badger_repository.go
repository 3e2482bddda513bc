package repository

import (
	"context"
	"encoding/json"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

const badgerSequenceKey = "meta:feed_seq"

// BadgerFeedRepository is a BadgerDB implementation of FeedRepository
type BadgerFeedRepository struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *logrus.Logger
}

// NewBadgerFeedRepository opens (or creates) a BadgerDB feed store in dbPath
func NewBadgerFeedRepository(dbPath string, logger *logrus.Logger) (*BadgerFeedRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open BadgerDB")
	}

	seq, err := db.GetSequence([]byte(badgerSequenceKey), 100)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to open feed sequence")
	}

	return &BadgerFeedRepository{
		db:     db,
		seq:    seq,
		logger: logger,
	}, nil
}

// Close releases the sequence lease and closes the database
func (r *BadgerFeedRepository) Close() error {
	if err := r.seq.Release(); err != nil {
		r.logger.WithError(err).Warn("failed to release feed sequence")
	}
	return r.db.Close()
}

// Append stores a delivery under the next sequence number
func (r *BadgerFeedRepository) Append(ctx context.Context, owner string, d events.Delivery) error {
	if err := validateAppend(owner, d); err != nil {
		return err
	}

	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "failed to marshal delivery")
	}

	n, err := r.seq.Next()
	if err != nil {
		return errors.Wrap(err, "failed to allocate feed sequence")
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(feedKey(owner, n), data)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store delivery for %s", owner)
	}

	r.logger.WithFields(logrus.Fields{
		"owner":  owner,
		"poster": d.Poster,
		"seq":    n,
	}).Debug("feed item stored")

	return nil
}

// List walks owner's keys in reverse
func (r *BadgerFeedRepository) List(ctx context.Context, owner string, limit int) ([]events.Delivery, error) {
	prefix := feedPrefix(owner)
	var out []events.Delivery

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(feedKey(owner, math.MaxUint64)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var d events.Delivery
			if err := json.Unmarshal(raw, &d); err != nil {
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

// Count iterates owner's keys without fetching values
func (r *BadgerFeedRepository) Count(ctx context.Context, owner string) (int, error) {
	prefix := feedPrefix(owner)
	count := 0

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count feed for %s", owner)
	}

	return count, nil
}

// badgerLogger adapts logrus logger to badger's logger interface
type badgerLogger struct {
	logger *logrus.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
