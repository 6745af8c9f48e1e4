// Package cache persists fetched page summaries in a bbolt file so repeated
// scrapes of the same URL within the TTL window skip the network round trip.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	scrapeBucket = "scrape"
	DefaultTTL   = 2 * time.Hour
)

// Record is one cached scrape payload.
type Record struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Payload   []byte    `json:"payload"`
}

// Manager wraps the bbolt handle. Safe for concurrent use.
type Manager struct {
	db     *bbolt.DB
	ttl    time.Duration
	logger *zap.Logger
}

// Open creates or opens the cache file, creating parent directories as
// needed, and ensures the bucket exists.
func Open(path string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(scrapeBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{db: db, ttl: ttl, logger: logger}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Key hashes a URL into a fixed-width cache key.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Put stores the payload under the URL's key with the manager's TTL.
func (m *Manager) Put(url string, payload []byte) error {
	now := time.Now()
	rec := Record{
		URL:       url,
		FetchedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Payload:   payload,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(scrapeBucket)).Put([]byte(Key(url)), data)
	})
}

// Get returns the cached payload for the URL, or ok=false on a miss or an
// expired entry. Expired entries are pruned in place.
func (m *Manager) Get(url string) ([]byte, bool) {
	key := []byte(Key(url))
	var rec Record
	hit := false

	err := m.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(scrapeBucket))
		data := bucket.Get(key)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return bucket.Delete(key)
		}
		if time.Now().After(rec.ExpiresAt) {
			return bucket.Delete(key)
		}
		hit = true
		return nil
	})
	if err != nil {
		m.logger.Warn("cache read failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return rec.Payload, true
}

// Len counts live entries, expired ones included until their next read.
func (m *Manager) Len() int {
	n := 0
	_ = m.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(scrapeBucket)).Stats().KeyN
		return nil
	})
	return n
}
