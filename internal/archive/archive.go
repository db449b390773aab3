package archive

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")    // Archive version and timestamps
	IndexBucket    = []byte("index")     // Snapshot id -> JSON SnapshotInfo
	SnapshotBucket = []byte("snapshots") // Snapshot id -> raw database bytes
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrAmbiguousID      = errors.New("snapshot id prefix is ambiguous")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// Archive stores point-in-time snapshots of a bootdb file in a BBolt database
type Archive struct {
	db *bolt.DB
}

// Open opens or creates a snapshot archive
func Open(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the archive
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the archive file path
func (a *Archive) Path() string {
	return a.db.Path()
}

// initialize creates the bucket structure if it does not exist yet
func (a *Archive) initialize() error {
	return a.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, IndexBucket, SnapshotBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// GetModified retrieves the last modified timestamp
func (a *Archive) GetModified() (time.Time, error) {
	var modified time.Time
	err := a.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

// Save stores data as a new snapshot. ID, Created, Size and Checksum of info
// are filled in by the archive.
func (a *Archive) Save(info SnapshotInfo, data []byte) (*SnapshotInfo, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	info.ID = id.String()
	info.Created = time.Now()
	info.Size = int64(len(data))
	info.Checksum = checksum(data)

	entry, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}

	err = a.db.Update(func(tx *bolt.Tx) error {
		key := []byte(info.ID)
		if err := tx.Bucket(SnapshotBucket).Put(key, data); err != nil {
			return err
		}
		if err := tx.Bucket(IndexBucket).Put(key, entry); err != nil {
			return err
		}
		modified, _ := info.Created.MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return &info, nil
}

// List returns all snapshots, oldest first
func (a *Archive) List() ([]SnapshotInfo, error) {
	var snapshots []SnapshotInfo
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(IndexBucket).ForEach(func(k, v []byte) error {
			var info SnapshotInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return fmt.Errorf("corrupt index entry %s: %w", k, err)
			}
			snapshots = append(snapshots, info)
			return nil
		})
	})
	return snapshots, err
}

// Latest returns the most recent snapshot, or ErrSnapshotNotFound when the archive is empty
func (a *Archive) Latest() (*SnapshotInfo, error) {
	var info *SnapshotInfo
	err := a.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket(IndexBucket).Cursor().Last()
		if v == nil {
			return ErrSnapshotNotFound
		}
		info = &SnapshotInfo{}
		return json.Unmarshal(v, info)
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Get returns a snapshot by id or unique id prefix and verifies its checksum
func (a *Archive) Get(id string) (*SnapshotInfo, []byte, error) {
	var info SnapshotInfo
	var data []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		key, err := resolve(tx, id)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(tx.Bucket(IndexBucket).Get(key), &info); err != nil {
			return err
		}
		raw := tx.Bucket(SnapshotBucket).Get(key)
		if raw == nil {
			return fmt.Errorf("%w: %s has no data", ErrSnapshotNotFound, key)
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if checksum(data) != info.Checksum {
		return nil, nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, info.ID)
	}
	return &info, data, nil
}

// Delete removes a snapshot by id or unique id prefix
func (a *Archive) Delete(id string) (string, error) {
	var deleted string
	err := a.db.Update(func(tx *bolt.Tx) error {
		key, err := resolve(tx, id)
		if err != nil {
			return err
		}
		deleted = string(key)
		if err := tx.Bucket(SnapshotBucket).Delete(key); err != nil {
			return err
		}
		if err := tx.Bucket(IndexBucket).Delete(key); err != nil {
			return err
		}
		modified, _ := time.Now().MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
	return deleted, err
}

// resolve maps an id or id prefix to the stored key
func resolve(tx *bolt.Tx, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrSnapshotNotFound
	}
	index := tx.Bucket(IndexBucket)
	if index.Get([]byte(id)) != nil {
		return []byte(id), nil
	}

	prefix := []byte(id)
	var match []byte
	c := index.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
		}
		match = append([]byte(nil), k...)
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return match, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Compact creates a compacted copy of the archive, removing unused space.
// This is useful after deleting snapshots to reclaim disk space.
func (a *Archive) Compact() error {
	srcPath := a.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact archive: %w", err)
	}

	err = a.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact archive: %w", err)
	}

	if err := a.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source archive: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	os.Remove(backupPath)

	a.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen archive: %w", err)
	}

	return nil
}
