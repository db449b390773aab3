package archive

import (
	"time"
)

// SnapshotInfo describes one archived copy of a database file
type SnapshotInfo struct {
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	OwnerID  string    `json:"ownerId"` // Hex owner id from the database header
	Size     int64     `json:"size"`
	Slots    int       `json:"slots"`
	Checksum string    `json:"checksum"` // SHA-256 of the snapshot bytes
	Note     string    `json:"note,omitempty"`
}

// ShortID returns the first 8 characters of the id
func (s SnapshotInfo) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}

// FindByOwner returns the snapshots taken from the database with the given owner id
func FindByOwner(snapshots []SnapshotInfo, ownerID string) []SnapshotInfo {
	var found []SnapshotInfo
	for _, s := range snapshots {
		if s.OwnerID == ownerID {
			found = append(found, s)
		}
	}
	return found
}
