package bootdb

import (
	"fmt"
	"os"
)

// ReadRecord reads a full block for the record type.
func (db *DB) ReadRecord(t RecordType) ([]byte, error) {
	return db.ReadRecordN(t, BlockSize)
}

// ReadRecordN reads n bytes of the record slot.
//
// A slot that starts at or beyond the end of the file returns nil and no
// error. A slot that is only partly present returns the bytes that exist.
func (db *DB) ReadRecordN(t RecordType, n int) ([]byte, error) {
	if !db.IsOpen() {
		return nil, ErrNotOpen
	}
	if t < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecordType, t)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	size, err := db.Size()
	if err != nil {
		return nil, err
	}
	pos := Offset(t)
	if size <= pos {
		return nil, nil
	}
	data, err := db.ReadAt(pos, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t, err)
	}
	return data, nil
}

// WriteRecord stores data in the record slot, zero-padded to BlockSize.
//
// When the slot lies beyond the end of the file the gap is filled with zero
// blocks first, so every slot below t exists afterwards.
func (db *DB) WriteRecord(t RecordType, data []byte) error {
	if !db.IsOpen() {
		return ErrNotOpen
	}
	if len(data) > BlockSize {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(data))
	}
	if t < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRecordType, t)
	}

	size, err := db.Size()
	if err != nil {
		return err
	}
	pos := Offset(t)
	if pos > size {
		if err := db.zeroFill(size, pos); err != nil {
			return fmt.Errorf("failed to extend database to %s: %w", t, err)
		}
	}

	block := make([]byte, BlockSize)
	copy(block, data)
	if err := db.WriteAt(pos, block); err != nil {
		return fmt.Errorf("failed to write %s: %w", t, err)
	}
	db.logger.Debug("record written", "type", t.String(), "offset", pos, "length", len(data))
	return nil
}

// Slots returns the number of record slots present in the file.
func (db *DB) Slots() (int, error) {
	size, err := db.Size()
	if err != nil {
		return 0, err
	}
	if size <= HeaderSize {
		return 0, nil
	}
	return int((size - HeaderSize) / BlockSize), nil
}

// Clear destroys every record and writes a new header with a new owner id.
func (db *DB) Clear() error {
	if db.path == "" {
		return ErrNoPath
	}
	if err := db.Close(); err != nil {
		return err
	}

	f, err := db.openFile(db.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePerm)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}

	if err := db.Open(); err != nil {
		return err
	}
	if err := db.WriteHeader(); err != nil {
		return err
	}
	db.logger.Info("database cleared", "path", db.path)
	return nil
}
