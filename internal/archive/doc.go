// Package archive provides the BBolt snapshot archive for bootdb.
//
// Archive structure uses three buckets:
//   - config: archive version and timestamps
//   - index: snapshot id -> JSON metadata (owner id, size, slot count, checksum)
//   - snapshots: snapshot id -> raw bytes of the database file
//
// Snapshot ids are UUIDv7, so BBolt's sorted keys list snapshots oldest
// first. Ids can be abbreviated to any unique prefix.
//
// The archive never serves records directly; restoring a snapshot writes it
// back into the fixed-slot database file.
package archive
