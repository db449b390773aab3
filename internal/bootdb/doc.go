// Package bootdb provides the fixed-slot binary record store used by bootdb.
//
// A database is a single file laid out as:
//   - Header: HeaderSize bytes (magic, version, creation time, owner id,
//     reserved signature slot, reserved padding)
//   - Record slots: one BlockSize block per record type, contiguous,
//     zero-filled when unwritten
//
// Record type t lives at HeaderSize + BlockSize*t. Any non-negative integer
// is a valid record type; the named constants only label the slots the node
// protocol uses today.
//
// A file is valid when it starts with the magic bytes and its size is the
// header plus a whole number of blocks. Init rewrites the header of an
// invalid file and clears the file entirely if that is not enough.
//
// A DB is not safe for concurrent use, and nothing arbitrates two processes
// opening the same file.
package bootdb
