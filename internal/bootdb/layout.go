package bootdb

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	BlockSize = 512 // Bytes per record slot

	MagicSize     = 4
	OwnerIDSize   = 32
	SignatureSize = 64
	ReservedSize  = 512

	// Version byte is followed by alignment padding so that the creation
	// timestamp sits on an 8-byte boundary.
	versionSize   = 1
	paddingSize   = 3
	timestampSize = 8

	HeaderSize = MagicSize + versionSize + paddingSize + timestampSize + OwnerIDSize + SignatureSize + ReservedSize

	Version = 0x01
)

// Header field offsets
const (
	offMagic     = 0
	offVersion   = offMagic + MagicSize
	offCreated   = offVersion + versionSize + paddingSize
	offOwnerID   = offCreated + timestampSize
	offSignature = offOwnerID + OwnerIDSize
	offReserved  = offSignature + SignatureSize
)

// Magic identifies a bootdb file.
var Magic = [MagicSize]byte{0x38, 0x53, 0x3f, 0x4f}

// RecordType selects a record slot. Undefined values are still valid slots.
type RecordType int

const (
	MasterPrivateKey RecordType = iota // Block 0
	MasterPublicKey
	IsVerifiedNode
	NodeInfo
	HostInfo
	KeyStore
	SessionKey
	NodeId
	R1 // General purpose registers, one block each
	R2
	R3
	R4
	R5
	R6
)

var recordNames = []string{
	MasterPrivateKey: "MasterPrivateKey",
	MasterPublicKey:  "MasterPublicKey",
	IsVerifiedNode:   "IsVerifiedNode",
	NodeInfo:         "NodeInfo",
	HostInfo:         "HostInfo",
	KeyStore:         "KeyStore",
	SessionKey:       "SessionKey",
	NodeId:           "NodeId",
	R1:               "R1",
	R2:               "R2",
	R3:               "R3",
	R4:               "R4",
	R5:               "R5",
	R6:               "R6",
}

// Offset returns the byte offset of the record slot.
func (t RecordType) Offset() int64 {
	return Offset(t)
}

func (t RecordType) String() string {
	if t >= 0 && int(t) < len(recordNames) {
		return recordNames[t]
	}
	return "Record(" + strconv.Itoa(int(t)) + ")"
}

// Offset returns HeaderSize + BlockSize*t.
func Offset(t RecordType) int64 {
	return HeaderSize + BlockSize*int64(t)
}

// NamedRecordTypes returns the record types that carry a name.
func NamedRecordTypes() []RecordType {
	types := make([]RecordType, len(recordNames))
	for i := range recordNames {
		types[i] = RecordType(i)
	}
	return types
}

// ParseRecordType accepts a record name (case-insensitive) or a non-negative integer.
func ParseRecordType(s string) (RecordType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidRecordType)
	}
	for i, name := range recordNames {
		if strings.EqualFold(name, s) {
			return RecordType(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecordType, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRecordType, n)
	}
	return RecordType(n), nil
}
