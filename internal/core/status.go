package core

import (
	"context"
	"time"

	"github.com/illarion/bootdb/internal/archive"
	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/crypto"
	"github.com/illarion/bootdb/internal/git"
)

// SlotStatus describes one record slot
type SlotStatus struct {
	Type       bootdb.RecordType
	Used       bool // Any non-zero byte
	Sealed     bool
	Length     int // Bytes up to the last non-zero byte
	Iterations int // PBKDF2 iterations of a sealed slot
}

// StatusInfo contains database status information
type StatusInfo struct {
	Path            string
	ArchivePath     string
	Header          bootdb.Header
	Size            int64
	Fresh           bool
	Slots           []SlotStatus
	UsedCount       int
	SealedCount     int
	Snapshots       int
	OwnSnapshots    int // Snapshots taken under the current owner id
	LastSnapshot    time.Time
	ArchiveModified time.Time
	GitStatus       *git.GitStatus
}

// Status reports on the header, every slot, the archive and git exposure
func (s *Store) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	header, err := s.db.Header()
	if err != nil {
		return nil, err
	}
	size, err := s.db.Size()
	if err != nil {
		return nil, err
	}
	fresh, err := s.db.IsFresh()
	if err != nil {
		return nil, err
	}

	status := &StatusInfo{
		Path:        s.path,
		ArchivePath: s.archivePath,
		Header:      header,
		Size:        size,
		Fresh:       fresh,
	}

	slots, err := s.db.Slots()
	if err != nil {
		return nil, err
	}
	for i := 0; i < slots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := bootdb.RecordType(i)
		data, err := s.db.ReadRecord(t)
		if err != nil {
			return nil, err
		}

		slot := SlotStatus{Type: t, Length: usedLength(data)}
		slot.Used = slot.Length > 0
		if crypto.IsSealed(data) {
			slot.Sealed = true
			// Not critical
			slot.Iterations, _ = crypto.SealedIterations(data)
			status.SealedCount++
		}
		if slot.Used {
			status.UsedCount++
		}
		status.Slots = append(status.Slots, slot)
	}

	paths := []string{s.path}
	if s.archiveExists() {
		paths = append(paths, s.archivePath)
		if err := s.archiveStatus(status); err != nil {
			s.logger.Warn("failed to read archive", "path", s.archivePath, "error", err)
		}
	}
	// Not critical
	status.GitStatus, _ = git.CheckFiles(paths...)

	return status, nil
}

// archiveStatus fills in the snapshot counters from an existing archive
func (s *Store) archiveStatus(status *StatusInfo) error {
	a, err := s.openArchive()
	if err != nil {
		return err
	}
	defer a.Close()

	snapshots, err := a.List()
	if err != nil {
		return err
	}
	status.Snapshots = len(snapshots)
	status.OwnSnapshots = len(archive.FindByOwner(snapshots, status.Header.OwnerIDHex()))
	if len(snapshots) > 0 {
		status.LastSnapshot = snapshots[len(snapshots)-1].Created
	}

	status.ArchiveModified, err = a.GetModified()
	if err != nil {
		return err
	}
	s.logger.Debug("archive read", "path", a.Path(), "snapshots", len(snapshots))
	return nil
}

func usedLength(data []byte) int {
	n := len(data)
	for n > 0 && data[n-1] == 0 {
		n--
	}
	return n
}
