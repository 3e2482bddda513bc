package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/DaDevFox/task-systems/social-core/internal/events"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feed_items (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	owner       TEXT    NOT NULL,
	delivery_id TEXT    NOT NULL,
	poster      TEXT    NOT NULL,
	text        TEXT    NOT NULL,
	posted_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feed_items_owner ON feed_items (owner, seq);
`

// SQLiteFeedRepository implements FeedRepository on a single SQLite table
type SQLiteFeedRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewSQLiteFeedRepository opens the database at dbPath with WAL enabled and
// creates the schema if needed. ":memory:" is accepted.
func NewSQLiteFeedRepository(dbPath string, logger *logrus.Logger) (*SQLiteFeedRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create parent directory for sqlite db")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	return &SQLiteFeedRepository{db: db, logger: logger}, nil
}

// Close closes the database
func (r *SQLiteFeedRepository) Close() error {
	return r.db.Close()
}

// Append inserts one row
func (r *SQLiteFeedRepository) Append(ctx context.Context, owner string, d events.Delivery) error {
	if err := validateAppend(owner, d); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO feed_items (owner, delivery_id, poster, text, posted_at) VALUES (?, ?, ?, ?, ?)",
		owner, d.ID, d.Poster, d.Text, d.PostedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to store delivery for %s", owner)
	}

	r.logger.WithFields(logrus.Fields{
		"owner":  owner,
		"poster": d.Poster,
	}).Debug("feed item stored")

	return nil
}

// List selects owner's rows by descending sequence
func (r *SQLiteFeedRepository) List(ctx context.Context, owner string, limit int) ([]events.Delivery, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT delivery_id, poster, text, posted_at FROM feed_items WHERE owner = ? ORDER BY seq DESC LIMIT ?",
		owner, limit,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list feed for %s", owner)
	}
	defer rows.Close()

	var out []events.Delivery
	for rows.Next() {
		var (
			d     events.Delivery
			nanos int64
		)
		if err := rows.Scan(&d.ID, &d.Poster, &d.Text, &nanos); err != nil {
			return nil, errors.Wrap(err, "failed to scan feed item")
		}
		d.PostedAt = time.Unix(0, nanos).UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to list feed for %s", owner)
	}

	return out, nil
}

// Count counts owner's rows
func (r *SQLiteFeedRepository) Count(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feed_items WHERE owner = ?", owner).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count feed for %s", owner)
	}
	return count, nil
}
