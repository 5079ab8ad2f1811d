package roblox

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// Bucket names.
var bucketUserIDs = []byte("user_ids") // username -> decimal user id

// idCache persists username to user-id mappings across runs. User ids never
// change, so entries are never invalidated, only wiped wholesale.
type idCache struct {
	db     *bolt.DB
	logger logger.Logger
}

// openIDCache opens (creating if needed) the bbolt cache file. An empty path
// returns a nil cache, which every method tolerates.
func openIDCache(path string, log logger.Logger) (*idCache, error) {
	if path == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open id cache: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketUserIDs)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close cache after initialization error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	log.Debug("id cache opened", "path", path)

	return &idCache{db: db, logger: log}, nil
}

// get returns the cached user id for a username, 0 when absent.
func (c *idCache) get(username string) int64 {
	if c == nil {
		return 0
	}

	var id int64
	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketUserIDs).Get([]byte(username))
		if data == nil {
			return nil
		}

		parsed, parseErr := strconv.ParseInt(string(data), 10, 64)
		if parseErr != nil {
			return parseErr
		}
		id = parsed
		return nil
	})
	if err != nil {
		c.logger.Warn("failed to read id cache", "username", username, "error", err)
		return 0
	}

	return id
}

// put stores a username to user-id mapping.
func (c *idCache) put(username string, id int64) {
	if c == nil {
		return
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUserIDs).Put([]byte(username), []byte(strconv.FormatInt(id, 10)))
	})
	if err != nil {
		c.logger.Warn("failed to write id cache", "username", username, "error", err)
		return
	}

	c.logger.Debug("cached user id", "username", username, "user_id", id)
}

// wipe removes every cached mapping.
func (c *idCache) wipe() error {
	if c == nil {
		return nil
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketUserIDs); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketUserIDs)
		return err
	})
}

// close releases the cache file.
func (c *idCache) close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
