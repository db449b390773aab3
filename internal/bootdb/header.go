package bootdb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Header is the fixed-size prologue of a database file.
type Header struct {
	Magic     [MagicSize]byte
	Version   uint8
	CreatedAt uint64 // Milliseconds since epoch
	OwnerID   [OwnerIDSize]byte
	Signature [SignatureSize]byte // Reserved, never computed or checked here
	Reserved  [ReservedSize]byte
}

// newHeader builds a header stamped with now and a fresh owner id read from r.
func newHeader(now time.Time, r io.Reader) (Header, error) {
	h := Header{
		Magic:     Magic,
		Version:   Version,
		CreatedAt: uint64(now.UnixMilli()),
	}
	if _, err := io.ReadFull(r, h.OwnerID[:]); err != nil {
		return Header{}, fmt.Errorf("failed to generate owner id: %w", err)
	}
	return h, nil
}

// Created returns the creation timestamp as a time.Time.
func (h Header) Created() time.Time {
	return time.UnixMilli(int64(h.CreatedAt))
}

// OwnerIDHex returns the owner id hex encoded.
func (h Header) OwnerIDHex() string {
	return hex.EncodeToString(h.OwnerID[:])
}

// HasMagic reports whether the header carries the bootdb magic bytes.
func (h Header) HasMagic() bool {
	return h.Magic == Magic
}

func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:], h.Magic[:])
	buf[offVersion] = h.Version
	binary.LittleEndian.PutUint64(buf[offCreated:], h.CreatedAt)
	copy(buf[offOwnerID:], h.OwnerID[:])
	copy(buf[offSignature:], h.Signature[:])
	copy(buf[offReserved:], h.Reserved[:])
	return buf, nil
}

func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	copy(h.Magic[:], data[offMagic:offMagic+MagicSize])
	h.Version = data[offVersion]
	h.CreatedAt = binary.LittleEndian.Uint64(data[offCreated:])
	copy(h.OwnerID[:], data[offOwnerID:offOwnerID+OwnerIDSize])
	copy(h.Signature[:], data[offSignature:offSignature+SignatureSize])
	copy(h.Reserved[:], data[offReserved:offReserved+ReservedSize])
	return nil
}

// WriteHeader writes a new header at offset 0, replacing any existing one.
// The header gets the current time and a fresh random owner id.
func (db *DB) WriteHeader() error {
	if !db.IsOpen() {
		return ErrNotOpen
	}
	h, err := newHeader(db.clock(), db.rand)
	if err != nil {
		return err
	}
	data, _ := h.MarshalBinary()
	if err := db.WriteAt(0, data); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	db.logger.Debug("header written", "path", db.path, "owner_id", h.OwnerIDHex())
	return nil
}

// Header reads and decodes the current header.
func (db *DB) Header() (Header, error) {
	var h Header
	data, err := db.ReadAt(0, HeaderSize)
	if err != nil {
		return h, err
	}
	if err := h.UnmarshalBinary(data); err != nil {
		return h, err
	}
	return h, nil
}

// IsValid checks the magic bytes and that the file holds whole blocks after the header.
func (db *DB) IsValid() (bool, error) {
	size, err := db.Size()
	if err != nil {
		return false, err
	}
	if size < MagicSize {
		return false, nil
	}
	head, err := db.ReadAt(0, MagicSize)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(head, Magic[:]) {
		return false, nil
	}
	// A truncated header would otherwise pass the alignment check below
	// whenever it is short by a multiple of BlockSize.
	if size < HeaderSize {
		return false, nil
	}
	return (size-HeaderSize)%BlockSize == 0, nil
}

// IsFresh reports whether the file holds a header and no records.
func (db *DB) IsFresh() (bool, error) {
	size, err := db.Size()
	if err != nil {
		return false, err
	}
	return size == HeaderSize, nil
}
