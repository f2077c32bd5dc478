package persistence

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/lwm2m-go/sdm/pkg/objects"
	bolt "go.etcd.io/bbolt"
)

var bucketSecurity = []byte("security_instances")

// BoltSnapshotStore persists objects.Security instance data across
// restarts. It holds no other Object's state: everything else the
// engine manages is re-derived from the running device at boot.
type BoltSnapshotStore struct {
	db *bolt.DB
}

// NewBoltSnapshotStore opens (creating if absent) a BoltDB file under
// dataDir and ensures the security bucket exists.
func NewBoltSnapshotStore(dataDir string) (*BoltSnapshotStore, error) {
	dbPath := filepath.Join(dataDir, "sdm.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSecurity)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSecurity, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSnapshotStore{db: db}, nil
}

// SaveSecurity replaces the stored snapshot with snap, one JSON entry
// per instance keyed by its iid. Instances no longer present in snap
// are removed from the bucket.
func (s *BoltSnapshotStore) SaveSecurity(snap map[uint16]objects.SecurityInstanceData) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecurity)
		c := b.Cursor()
		var stale [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("failed to delete stale instance %s: %w", k, err)
			}
		}
		for iid, data := range snap {
			buf, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("failed to marshal instance %d: %w", iid, err)
			}
			key := []byte(strconv.FormatUint(uint64(iid), 10))
			if err := b.Put(key, buf); err != nil {
				return fmt.Errorf("failed to put instance %d: %w", iid, err)
			}
		}
		return nil
	})
}

// LoadSecurity reads every stored instance back into a snapshot map
// suitable for objects.Security.Restore. An empty bucket yields an
// empty, non-nil map rather than an error.
func (s *BoltSnapshotStore) LoadSecurity() (map[uint16]objects.SecurityInstanceData, error) {
	out := make(map[uint16]objects.SecurityInstanceData)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecurity)
		return b.ForEach(func(k, v []byte) error {
			iid, err := strconv.ParseUint(string(k), 10, 16)
			if err != nil {
				return fmt.Errorf("failed to parse instance key %s: %w", k, err)
			}
			var data objects.SecurityInstanceData
			if err := json.Unmarshal(v, &data); err != nil {
				return fmt.Errorf("failed to unmarshal instance %s: %w", k, err)
			}
			out[uint16(iid)] = data
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying BoltDB file.
func (s *BoltSnapshotStore) Close() error {
	return s.db.Close()
}
