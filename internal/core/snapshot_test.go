package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/illarion/bootdb/internal/archive"
	"github.com/illarion/bootdb/internal/bootdb"
)

func readImage(t *testing.T, s *Store) []byte {
	t.Helper()
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("Failed to read database: %v", err)
	}
	return data
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(bootdb.NodeInfo, []byte("rack 4")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Generate(bootdb.SessionKey, 32, []byte("pw")); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	before := readImage(t, s)

	info, err := s.Snapshot("before upgrade")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	owner, _ := s.OwnerID()
	if info.OwnerID != owner || info.Slots != int(bootdb.SessionKey)+1 || info.Note != "before upgrade" {
		t.Errorf("Unexpected snapshot info: %+v", info)
	}
	if info.Size != int64(len(before)) {
		t.Errorf("Snapshot size %d, want %d", info.Size, len(before))
	}

	// Wipe and change everything
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := s.Write(bootdb.R6, []byte("later")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	restored, err := s.Restore(ctx, info.ShortID())
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.ID != info.ID {
		t.Errorf("Restored %s, want %s", restored.ID, info.ID)
	}

	after := readImage(t, s)
	if !bytes.Equal(before, after) {
		t.Error("Restored database differs from snapshot")
	}
	if got, _ := s.OwnerID(); got != owner {
		t.Errorf("Owner id not restored: %s != %s", got, owner)
	}
	if err := s.VerifyPassword(bootdb.SessionKey, []byte("pw")); err != nil {
		t.Errorf("Sealed key not usable after restore: %v", err)
	}
}

func TestRestoreLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Restore(ctx, ""); !errors.Is(err, archive.ErrSnapshotNotFound) {
		t.Errorf("Expected ErrSnapshotNotFound without archive, got %v", err)
	}

	if err := s.Write(bootdb.R1, []byte("one")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := s.Snapshot(""); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if err := s.Write(bootdb.R1, []byte("two")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	latest, err := s.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if err := s.Write(bootdb.R1, []byte("three")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := s.Restore(ctx, "")
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if info.ID != latest.ID {
		t.Errorf("Expected latest snapshot %s, got %s", latest.ID, info.ID)
	}
	data, _ := s.Read(bootdb.R1, 5)
	if string(bytes.TrimRight(data, "\x00")) != "two" {
		t.Errorf("Expected R1 = two, got %q", data)
	}
}

func TestSnapshotsAndForget(t *testing.T) {
	s := newTestStore(t)

	list, err := s.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no snapshots, got %d", len(list))
	}
	if _, err := os.Stat(s.ArchivePath()); !os.IsNotExist(err) {
		t.Error("Listing should not create the archive")
	}

	first, err := s.Snapshot("first")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	second, err := s.Snapshot("second")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	list, err = s.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("Unexpected snapshot list: %+v", list)
	}

	deleted, err := s.Forget(first.ID)
	if err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if deleted != first.ID {
		t.Errorf("Forget returned %s, want %s", deleted, first.ID)
	}
	if _, err := s.Forget(first.ID); !errors.Is(err, archive.ErrSnapshotNotFound) {
		t.Errorf("Expected ErrSnapshotNotFound, got %v", err)
	}

	list, _ = s.Snapshots()
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("Unexpected snapshot list after forget: %+v", list)
	}

	status, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Snapshots != 1 || !status.LastSnapshot.Equal(second.Created) {
		t.Errorf("Unexpected snapshot status: %d %v", status.Snapshots, status.LastSnapshot)
	}
	if status.OwnSnapshots != 1 {
		t.Errorf("Expected 1 snapshot of the current owner, got %d", status.OwnSnapshots)
	}
	if status.ArchiveModified.Before(second.Created.Truncate(time.Second)) {
		t.Errorf("Archive modified %v is older than the last snapshot %v", status.ArchiveModified, second.Created)
	}

	// A cleared database has a new owner id
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	status, err = s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Snapshots != 1 || status.OwnSnapshots != 0 {
		t.Errorf("Expected 1 snapshot, none owned, got %d and %d", status.Snapshots, status.OwnSnapshots)
	}
}

func TestValidateImage(t *testing.T) {
	valid := make([]byte, bootdb.HeaderSize+bootdb.BlockSize)
	copy(valid, bootdb.Magic[:])

	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{"header only", valid[:bootdb.HeaderSize], true},
		{"one slot", valid, true},
		{"short", valid[:bootdb.HeaderSize-1], false},
		{"misaligned", valid[:bootdb.HeaderSize+10], false},
		{"bad magic", make([]byte, bootdb.HeaderSize), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.data)
			if tt.valid && err != nil {
				t.Errorf("Expected valid image, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}
