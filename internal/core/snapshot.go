package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/bootdb/internal/archive"
	"github.com/illarion/bootdb/internal/bootdb"
)

func (s *Store) openArchive() (*archive.Archive, error) {
	return archive.Open(s.archivePath)
}

func (s *Store) archiveExists() bool {
	_, err := os.Stat(s.archivePath)
	return err == nil
}

// image returns the raw bytes of the database file
func (s *Store) image() ([]byte, error) {
	size, err := s.db.Size()
	if err != nil {
		return nil, err
	}
	return s.db.ReadAt(0, int(size))
}

// Snapshot copies the whole database into the archive
func (s *Store) Snapshot(note string) (*archive.SnapshotInfo, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	data, err := s.image()
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	var h bootdb.Header
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	a, err := s.openArchive()
	if err != nil {
		return nil, err
	}
	defer a.Close()

	info, err := a.Save(archive.SnapshotInfo{
		OwnerID: h.OwnerIDHex(),
		Slots:   (len(data) - bootdb.HeaderSize) / bootdb.BlockSize,
		Note:    note,
	}, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot saved", "id", info.ID, "size", info.Size, "slots", info.Slots)
	return info, nil
}

// Snapshots lists archived snapshots, oldest first. A missing archive has none.
func (s *Store) Snapshots() ([]archive.SnapshotInfo, error) {
	if !s.archiveExists() {
		return nil, nil
	}
	a, err := s.openArchive()
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.List()
}

// snapshot loads a snapshot by id prefix, or the latest one when id is empty
func (s *Store) snapshot(id string) (*archive.SnapshotInfo, []byte, error) {
	if !s.archiveExists() {
		return nil, nil, archive.ErrSnapshotNotFound
	}
	a, err := s.openArchive()
	if err != nil {
		return nil, nil, err
	}
	defer a.Close()

	if id == "" {
		latest, err := a.Latest()
		if err != nil {
			return nil, nil, err
		}
		id = latest.ID
	}
	return a.Get(id)
}

// ValidateImage checks that data is a well-formed database file
func ValidateImage(data []byte) error {
	if len(data) < bootdb.HeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidSnapshot, len(data))
	}
	if !bytes.Equal(data[:bootdb.MagicSize], bootdb.Magic[:]) {
		return fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	if (len(data)-bootdb.HeaderSize)%bootdb.BlockSize != 0 {
		return fmt.Errorf("%w: size %d is not block aligned", ErrInvalidSnapshot, len(data))
	}
	return nil
}

// Restore replaces the database contents with a snapshot. The database is
// cleared, then the snapshot header and every slot are written back.
func (s *Store) Restore(ctx context.Context, id string) (*archive.SnapshotInfo, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	info, data, err := s.snapshot(id)
	if err != nil {
		return nil, err
	}
	if err := ValidateImage(data); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.db.Clear(); err != nil {
		return nil, err
	}
	if err := s.db.WriteAt(0, data[:bootdb.HeaderSize]); err != nil {
		return nil, fmt.Errorf("failed to restore header: %w", err)
	}

	slots := (len(data) - bootdb.HeaderSize) / bootdb.BlockSize
	for i := 0; i < slots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := bootdb.RecordType(i)
		off := int(t.Offset())
		if err := s.db.WriteRecord(t, data[off:off+bootdb.BlockSize]); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", t, err)
		}
	}

	s.logger.Info("snapshot restored", "id", info.ID, "slots", slots)
	return info, nil
}

// Forget deletes a snapshot and compacts the archive. Returns the full id.
func (s *Store) Forget(id string) (string, error) {
	if !s.archiveExists() {
		return "", archive.ErrSnapshotNotFound
	}
	a, err := s.openArchive()
	if err != nil {
		return "", err
	}

	deleted, err := a.Delete(id)
	if err != nil {
		a.Close()
		return "", err
	}
	err = errors.Join(a.Compact(), a.Close())
	if err != nil {
		return deleted, fmt.Errorf("snapshot deleted but compaction failed: %w", err)
	}
	s.logger.Info("snapshot deleted", "id", deleted)
	return deleted, nil
}
