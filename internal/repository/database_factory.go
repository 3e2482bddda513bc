package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DatabaseType represents different feed store options
type DatabaseType string

const (
	DatabaseTypeMemory DatabaseType = "memory"
	DatabaseTypeBadger DatabaseType = "badger"
	DatabaseTypeBolt   DatabaseType = "bolt"
	DatabaseTypePebble DatabaseType = "pebble"
	DatabaseTypeSQLite DatabaseType = "sqlite"
)

// NewFeedRepository creates a feed repository of the given type under dataDir
//
// Database Types:
// - memory: nothing survives the process, dataDir is ignored
// - badger: LSM-tree directory at dataDir/feeds.badger
// - bolt: single B+ tree file at dataDir/feeds.bolt
// - pebble: LSM-tree directory at dataDir/feeds.pebble
// - sqlite: single file at dataDir/feeds.db
func NewFeedRepository(dbType DatabaseType, dataDir string, logger *logrus.Logger) (FeedRepository, error) {
	if dbType != DatabaseTypeMemory {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	switch dbType {
	case DatabaseTypeMemory:
		return NewInMemoryFeedRepository(), nil
	case DatabaseTypeBadger:
		return NewBadgerFeedRepository(filepath.Join(dataDir, "feeds.badger"), logger)
	case DatabaseTypeBolt:
		return NewBoltFeedRepository(filepath.Join(dataDir, "feeds.bolt"), logger)
	case DatabaseTypePebble:
		return NewPebbleFeedRepository(filepath.Join(dataDir, "feeds.pebble"), logger)
	case DatabaseTypeSQLite:
		return NewSQLiteFeedRepository(filepath.Join(dataDir, "feeds.db"), logger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
