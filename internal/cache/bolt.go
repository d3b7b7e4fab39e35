package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/codetrend/internal/models"
)

// BoltStore persists blob metrics across runs in a bbolt file. Entries live
// in a bucket per namespace, so changing the counting rules only requires a
// new namespace.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	logger *logrus.Logger
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path, namespace string, logger *logrus.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database %s: %w", path, err)
	}

	bucket := []byte("blob_metrics/" + namespace)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"path":      path,
		"namespace": namespace,
	}).Debug("Opened persistent blob cache")

	return &BoltStore{db: db, bucket: bucket, logger: logger}, nil
}

// Get returns the stored metrics for key.
func (s *BoltStore) Get(key string) (models.BlobMetrics, bool, error) {
	var (
		m     models.BlobMetrics
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(s.bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &m)
	})
	if err != nil {
		return models.BlobMetrics{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return m, found, nil
}

// Put stores metrics for key. Concurrent writers are coalesced by bbolt's
// batch transactions.
func (s *BoltStore) Put(key string, m models.BlobMetrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.db.Batch(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), data)
	})
}

// Len counts the entries in this namespace.
func (s *BoltStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
