package bootdb

import (
	"errors"
	"fmt"
	"io"
)

// zeroChunk bounds the buffer used when padding the file with zeros.
const zeroChunk = 64 * BlockSize

// Size returns the file length in bytes, header included.
func (db *DB) Size() (int64, error) {
	if !db.IsOpen() {
		return 0, ErrNotOpen
	}
	info, err := db.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat database: %w", err)
	}
	return info.Size(), nil
}

// Position returns the logical cursor.
func (db *DB) Position() int64 {
	return db.pos
}

// SetPosition moves the logical cursor. Positions past the end of the
// file are allowed; reads there come back short.
func (db *DB) SetPosition(pos int64) error {
	if !db.IsOpen() {
		return ErrNotOpen
	}
	if pos < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePosition, pos)
	}
	db.pos = pos
	return nil
}

// WriteAt writes p at pos without moving the logical cursor.
func (db *DB) WriteAt(pos int64, p []byte) error {
	if !db.IsOpen() {
		return ErrNotOpen
	}
	if pos < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePosition, pos)
	}
	n, err := db.f.WriteAt(p, pos)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// ReadAt reads up to n bytes at pos without moving the logical cursor.
// Fewer than n bytes are returned when the file ends first.
func (db *DB) ReadAt(pos int64, n int) ([]byte, error) {
	if !db.IsOpen() {
		return nil, ErrNotOpen
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativePosition, pos)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	buf := make([]byte, n)
	read, err := db.f.ReadAt(buf, pos)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// zeroFill writes zeros over [from, to).
func (db *DB) zeroFill(from, to int64) error {
	if to <= from {
		return nil
	}
	chunk := make([]byte, min(to-from, zeroChunk))
	for pos := from; pos < to; {
		n := min(to-pos, int64(len(chunk)))
		if err := db.WriteAt(pos, chunk[:n]); err != nil {
			return err
		}
		pos += n
	}
	return nil
}
