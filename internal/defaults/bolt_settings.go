package defaults

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/JonMunkholm/devicebulk/internal/schema"
)

var (
	bucketDefaults   = []byte("defaults")
	bucketTemplates  = []byte("child_templates")
	bucketVisibility = []byte("visibility")
)

// BoltSettingsStore keeps settings in a bbolt file: one bucket per document,
// one key per normalized table name, JSON values.
type BoltSettingsStore struct {
	db *bolt.DB
}

// OpenBoltSettingsStore opens (or creates) the database at path.
func OpenBoltSettingsStore(path string) (*BoltSettingsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDefaults, bucketTemplates, bucketVisibility} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSettingsStore{db: db}, nil
}

func (s *BoltSettingsStore) Load(ctx context.Context) (Settings, error) {
	out := Empty()
	if err := ctx.Err(); err != nil {
		return out, err
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketDefaults).ForEach(func(k, v []byte) error {
			var cols map[string]string
			if err := json.Unmarshal(v, &cols); err != nil {
				return fmt.Errorf("defaults for %s: %w", k, err)
			}
			out.Defaults[string(k)] = cols
			return nil
		}); err != nil {
			return err
		}

		if err := tx.Bucket(bucketTemplates).ForEach(func(k, v []byte) error {
			var rows []TemplateRow
			if err := json.Unmarshal(v, &rows); err != nil {
				return fmt.Errorf("child templates for %s: %w", k, err)
			}
			out.Templates[string(k)] = rows
			return nil
		}); err != nil {
			return err
		}

		return tx.Bucket(bucketVisibility).ForEach(func(k, v []byte) error {
			var tv TableVisibility
			if err := json.Unmarshal(v, &tv); err != nil {
				return fmt.Errorf("visibility for %s: %w", k, err)
			}
			out.Visibility[string(k)] = tv
			return nil
		})
	})
	return out, err
}

// replaceBucket swaps the bucket's contents for entries, in one transaction.
func replaceBucket[V any](db *bolt.DB, bucket []byte, entries map[string]V) error {
	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return fmt.Errorf("clear bucket %s: %w", bucket, err)
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		for name, v := range entries {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", name, err)
			}
			if err := b.Put([]byte(schema.NormalizeTableName(name)), data); err != nil {
				return fmt.Errorf("put %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *BoltSettingsStore) SaveDefaults(ctx context.Context, d Set) error {
	return replaceBucket(s.db, bucketDefaults, d)
}

func (s *BoltSettingsStore) SaveTemplates(ctx context.Context, t Templates) error {
	return replaceBucket(s.db, bucketTemplates, t)
}

func (s *BoltSettingsStore) SaveVisibility(ctx context.Context, v Visibility) error {
	return replaceBucket(s.db, bucketVisibility, v)
}

// Close releases the database file lock.
func (s *BoltSettingsStore) Close() error {
	return s.db.Close()
}
