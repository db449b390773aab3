package bootdb

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T, opts ...Option) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bootdb")
	db := New(opts...)
	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to init database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func mustSize(t *testing.T, db *DB) int64 {
	t.Helper()
	size, err := db.Size()
	if err != nil {
		t.Fatalf("Failed to get size: %v", err)
	}
	return size
}

func mustHeader(t *testing.T, db *DB) Header {
	t.Helper()
	h, err := db.Header()
	if err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	return h
}

func TestHeaderSize(t *testing.T) {
	if HeaderSize != 624 {
		t.Errorf("HeaderSize = %d, want 624", HeaderSize)
	}
	if Offset(MasterPrivateKey) != HeaderSize {
		t.Errorf("Offset(MasterPrivateKey) = %d, want %d", Offset(MasterPrivateKey), HeaderSize)
	}
	if Offset(R6) != HeaderSize+BlockSize*13 {
		t.Errorf("Offset(R6) = %d, want %d", Offset(R6), HeaderSize+BlockSize*13)
	}
}

func TestInitCreatesFreshDatabase(t *testing.T) {
	db, path := openTestDB(t)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Database file should exist: %v", err)
	}
	if info.Size() != HeaderSize {
		t.Errorf("File size = %d, want %d", info.Size(), HeaderSize)
	}
	if info.Mode().Perm() != FilePerm {
		t.Errorf("File mode = %v, want %v", info.Mode().Perm(), os.FileMode(FilePerm))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !bytes.Equal(raw[:MagicSize], Magic[:]) {
		t.Errorf("Magic = %x, want %x", raw[:MagicSize], Magic)
	}
	if raw[offVersion] != Version {
		t.Errorf("Version = %d, want %d", raw[offVersion], Version)
	}

	fresh, err := db.IsFresh()
	if err != nil {
		t.Fatalf("Failed to check fresh: %v", err)
	}
	if !fresh {
		t.Error("Database should be fresh after init")
	}
	if !db.IsOpen() {
		t.Error("Database should be open after init")
	}
}

func TestHeaderFields(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	owner := bytes.Repeat([]byte{0xab}, OwnerIDSize)
	db, _ := openTestDB(t,
		WithClock(func() time.Time { return now }),
		WithRand(bytes.NewReader(owner)),
	)

	h := mustHeader(t, db)
	if !h.HasMagic() {
		t.Error("Header should carry magic bytes")
	}
	if h.CreatedAt != uint64(now.UnixMilli()) {
		t.Errorf("CreatedAt = %d, want %d", h.CreatedAt, now.UnixMilli())
	}
	if !h.Created().Equal(now) {
		t.Errorf("Created() = %v, want %v", h.Created(), now)
	}
	if !bytes.Equal(h.OwnerID[:], owner) {
		t.Errorf("OwnerID = %x, want %x", h.OwnerID, owner)
	}
	if h.Signature != [SignatureSize]byte{} {
		t.Error("Signature slot should be zero")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, CreatedAt: 42}
	h.OwnerID[0] = 1
	h.Signature[63] = 2
	h.Reserved[511] = 3

	data, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to marshal header: %v", err)
	}
	if len(data) != HeaderSize {
		t.Fatalf("Encoded header is %d bytes, want %d", len(data), HeaderSize)
	}

	var got Header
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to unmarshal header: %v", err)
	}
	if got != h {
		t.Error("Header changed across encode/decode")
	}

	if err := got.UnmarshalBinary(data[:10]); !errors.Is(err, ErrShortHeader) {
		t.Errorf("Expected ErrShortHeader, got %v", err)
	}
}

func TestWriteReadRecord(t *testing.T) {
	db, _ := openTestDB(t)

	payloads := map[RecordType][]byte{
		MasterPrivateKey: bytes.Repeat([]byte{0x11}, 32),
		NodeInfo:         []byte("node-info"),
		R6:               bytes.Repeat([]byte{0x66}, BlockSize),
		RecordType(40):   []byte{},
	}

	for typ, data := range payloads {
		if err := db.WriteRecord(typ, data); err != nil {
			t.Fatalf("Failed to write %s: %v", typ, err)
		}
	}

	for typ, data := range payloads {
		got, err := db.ReadRecord(typ)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", typ, err)
		}
		if len(got) != BlockSize {
			t.Fatalf("%s: read %d bytes, want %d", typ, len(got), BlockSize)
		}
		if !bytes.Equal(got[:len(data)], data) {
			t.Errorf("%s: prefix mismatch", typ)
		}
		if !isZero(got[len(data):]) {
			t.Errorf("%s: padding is not zero", typ)
		}
	}
}

func TestWriteRecordOverwrites(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.WriteRecord(SessionKey, bytes.Repeat([]byte{0xff}, 100)); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if err := db.WriteRecord(SessionKey, []byte("short")); err != nil {
		t.Fatalf("Failed to overwrite record: %v", err)
	}

	got, err := db.ReadRecord(SessionKey)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if string(got[:5]) != "short" || !isZero(got[5:]) {
		t.Error("Old content should be fully replaced")
	}
}

func TestWriteRecordGrowsFile(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.WriteRecord(MasterPublicKey, []byte("pub")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if size := mustSize(t, db); size != HeaderSize+2*BlockSize {
		t.Fatalf("Size = %d, want %d", size, HeaderSize+2*BlockSize)
	}

	target := RecordType(9)
	if err := db.WriteRecord(target, []byte("far")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if size := mustSize(t, db); size != HeaderSize+BlockSize*int64(target+1) {
		t.Errorf("Size = %d, want %d", size, HeaderSize+BlockSize*int64(target+1))
	}

	for typ := RecordType(2); typ < target; typ++ {
		got, err := db.ReadRecord(typ)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", typ, err)
		}
		if len(got) != BlockSize || !isZero(got) {
			t.Errorf("Intermediate slot %s should be a zero block", typ)
		}
	}

	got, err := db.ReadRecord(MasterPublicKey)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if string(got[:3]) != "pub" {
		t.Error("Existing record should survive growth")
	}

	slots, err := db.Slots()
	if err != nil {
		t.Fatalf("Failed to count slots: %v", err)
	}
	if slots != int(target)+1 {
		t.Errorf("Slots = %d, want %d", slots, target+1)
	}
}

func TestWriteRecordGrowsAcrossManyChunks(t *testing.T) {
	db, _ := openTestDB(t)

	target := RecordType(200)
	if err := db.WriteRecord(target, []byte{1}); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if size := mustSize(t, db); size != Offset(target)+BlockSize {
		t.Errorf("Size = %d, want %d", size, Offset(target)+BlockSize)
	}
	got, err := db.ReadRecord(RecordType(150))
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if !isZero(got) {
		t.Error("Gap slot should be zero")
	}
}

func TestWriteRecordTooLarge(t *testing.T) {
	db, path := openTestDB(t)

	if err := db.WriteRecord(NodeId, []byte("keep")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	for _, typ := range []RecordType{NodeId, R6} {
		err := db.WriteRecord(typ, make([]byte, BlockSize+1))
		if !errors.Is(err, ErrRecordTooLarge) {
			t.Errorf("Expected ErrRecordTooLarge, got %v", err)
		}
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Oversize write should leave the file unchanged")
	}
}

func TestNegativeRecordType(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.WriteRecord(RecordType(-1), []byte("x")); !errors.Is(err, ErrInvalidRecordType) {
		t.Errorf("Expected ErrInvalidRecordType on write, got %v", err)
	}
	if _, err := db.ReadRecord(RecordType(-1)); !errors.Is(err, ErrInvalidRecordType) {
		t.Errorf("Expected ErrInvalidRecordType on read, got %v", err)
	}
}

func TestReadAbsentRecord(t *testing.T) {
	db, _ := openTestDB(t)

	// Slot 0 starts exactly at end of file: zero bytes exist there.
	got, err := db.ReadRecord(MasterPrivateKey)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if got != nil {
		t.Errorf("Record at end of file should be nil, got %d bytes", len(got))
	}

	// Slot 5 starts beyond the end of file.
	got, err = db.ReadRecord(KeyStore)
	if err != nil {
		t.Fatalf("Absent record should not be an error: %v", err)
	}
	if got != nil {
		t.Errorf("Absent record should be empty, got %d bytes", len(got))
	}
}

func TestReadRecordN(t *testing.T) {
	db, _ := openTestDB(t)

	key := bytes.Repeat([]byte{0x42}, 32)
	if err := db.WriteRecord(MasterPrivateKey, key); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}

	// In range
	got, err := db.ReadRecordN(MasterPrivateKey, 32)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Errorf("ReadRecordN = %x, want %x", got, key)
	}

	// Past end of file: short read of what exists
	got, err = db.ReadRecordN(MasterPrivateKey, BlockSize+100)
	if err != nil {
		t.Fatalf("Failed to read past end: %v", err)
	}
	if len(got) != BlockSize {
		t.Errorf("Past-end read returned %d bytes, want %d", len(got), BlockSize)
	}

	if _, err := db.ReadRecordN(MasterPrivateKey, -1); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength, got %v", err)
	}
}

func TestPositionPreserved(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.SetPosition(77); err != nil {
		t.Fatalf("Failed to set position: %v", err)
	}

	if err := db.WriteRecord(R3, []byte("r3")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if _, err := db.ReadRecord(R3); err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if _, err := db.Size(); err != nil {
		t.Fatalf("Failed to get size: %v", err)
	}
	if _, err := db.IsValid(); err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if err := db.WriteAt(HeaderSize, []byte("x")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	if db.Position() != 77 {
		t.Errorf("Position = %d, want 77", db.Position())
	}

	if err := db.SetPosition(-1); !errors.Is(err, ErrNegativePosition) {
		t.Errorf("Expected ErrNegativePosition, got %v", err)
	}
	if err := db.SetPosition(1 << 20); err != nil {
		t.Errorf("Positions past end should be allowed: %v", err)
	}
}

func TestClear(t *testing.T) {
	ms := int64(1000)
	clock := func() time.Time {
		ms += 5
		return time.UnixMilli(ms)
	}
	db, _ := openTestDB(t, WithClock(clock))

	if err := db.WriteRecord(R2, []byte("data")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	before := mustHeader(t, db)

	if err := db.Clear(); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}

	if size := mustSize(t, db); size != HeaderSize {
		t.Errorf("Size after clear = %d, want %d", size, HeaderSize)
	}
	fresh, err := db.IsFresh()
	if err != nil {
		t.Fatalf("Failed to check fresh: %v", err)
	}
	if !fresh {
		t.Error("Database should be fresh after clear")
	}

	after := mustHeader(t, db)
	if after.OwnerID == before.OwnerID {
		t.Error("Owner id should change on clear")
	}
	if after.CreatedAt == before.CreatedAt {
		t.Error("Creation time should change on clear")
	}
	if !after.HasMagic() {
		t.Error("Header should be valid after clear")
	}
}

func TestInitIdempotent(t *testing.T) {
	db, path := openTestDB(t)

	if err := db.WriteRecord(HostInfo, []byte("host")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	before := mustHeader(t, db)

	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to re-init: %v", err)
	}

	after := mustHeader(t, db)
	if after != before {
		t.Error("Re-init should not touch a valid header")
	}
	got, err := db.ReadRecord(HostInfo)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if string(got[:4]) != "host" {
		t.Error("Re-init should not touch records")
	}
}

func TestReopenScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	key := bytes.Repeat([]byte{0x5a}, 32)

	db := New()
	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if err := db.WriteRecord(MasterPrivateKey, key); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if db.IsOpen() {
		t.Fatal("Database should be closed")
	}

	db2 := New()
	if err := db2.Init(path); err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer db2.Close()

	got, err := db2.ReadRecord(MasterPrivateKey)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if !bytes.Equal(got[:32], key) || !isZero(got[32:]) || len(got) != BlockSize {
		t.Error("Record not persisted correctly")
	}
	if size := mustSize(t, db2); size != HeaderSize+BlockSize {
		t.Errorf("Size = %d, want %d", size, HeaderSize+BlockSize)
	}
}

func TestInitRewritesCorruptMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	db := New()
	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if err := db.WriteRecord(NodeInfo, []byte("node")); err != nil {
		t.Fatalf("Failed to write record: %v", err)
	}
	if err := db.WriteAt(0, []byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("Failed to corrupt magic: %v", err)
	}
	valid, err := db.IsValid()
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if valid {
		t.Fatal("Database with bad magic should be invalid")
	}
	sizeBefore := mustSize(t, db)
	db.Close()

	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to re-init: %v", err)
	}
	defer db.Close()

	valid, err = db.IsValid()
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if !valid {
		t.Error("Header rewrite should make the database valid")
	}
	if size := mustSize(t, db); size != sizeBefore {
		t.Errorf("Size = %d, want %d (aligned file keeps its records)", size, sizeBefore)
	}
	got, err := db.ReadRecord(NodeInfo)
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if string(got[:4]) != "node" {
		t.Error("Records should survive a header rewrite")
	}
}

func TestInitClearsMisalignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")

	garbage := bytes.Repeat([]byte{0x99}, HeaderSize+BlockSize+17)
	if err := os.WriteFile(path, garbage, 0600); err != nil {
		t.Fatalf("Failed to write garbage: %v", err)
	}

	db := New()
	if err := db.Init(path); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	defer db.Close()

	if size := mustSize(t, db); size != HeaderSize {
		t.Errorf("Size = %d, want %d after clear fallback", size, HeaderSize)
	}
	valid, err := db.IsValid()
	if err != nil {
		t.Fatalf("Failed to validate: %v", err)
	}
	if !valid {
		t.Error("Database should be valid after clear fallback")
	}
}

func TestIsValid(t *testing.T) {
	db, _ := openTestDB(t)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"shorter than magic", Magic[:2], false},
		{"magic only", Magic[:], false},
		{"header short by a block", append(Magic[:], make([]byte, HeaderSize-BlockSize-MagicSize)...), false},
		{"header only", append(Magic[:], make([]byte, HeaderSize-MagicSize)...), true},
		{"header and block", append(Magic[:], make([]byte, HeaderSize+BlockSize-MagicSize)...), true},
		{"misaligned", append(Magic[:], make([]byte, HeaderSize+10-MagicSize)...), false},
		{"foreign file", make([]byte, HeaderSize), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(db.Path(), tt.data, 0600); err != nil {
				t.Fatalf("Failed to write file: %v", err)
			}
			if err := db.Open(); err != nil {
				t.Fatalf("Failed to open: %v", err)
			}
			got, err := db.IsValid()
			if err != nil {
				t.Fatalf("Failed to validate: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClosedDatabase(t *testing.T) {
	db := New()

	if _, err := db.Size(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Size: expected ErrNotOpen, got %v", err)
	}
	if err := db.WriteRecord(R1, []byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("WriteRecord: expected ErrNotOpen, got %v", err)
	}
	if _, err := db.ReadRecord(R1); !errors.Is(err, ErrNotOpen) {
		t.Errorf("ReadRecord: expected ErrNotOpen, got %v", err)
	}
	if err := db.WriteHeader(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("WriteHeader: expected ErrNotOpen, got %v", err)
	}
	if _, err := db.IsFresh(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("IsFresh: expected ErrNotOpen, got %v", err)
	}
	if err := db.Open(); !errors.Is(err, ErrNoPath) {
		t.Errorf("Open: expected ErrNoPath, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close on closed database should be a no-op: %v", err)
	}
}

func TestInitOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "db")

	db := New()
	if err := db.Init(path); err == nil {
		t.Fatal("Expected error opening database in missing directory")
	}
	if db.IsOpen() {
		t.Error("Database should not be open after failed init")
	}
}

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		in      string
		want    RecordType
		wantErr bool
	}{
		{"MasterPrivateKey", MasterPrivateKey, false},
		{"masterpublickey", MasterPublicKey, false},
		{"r6", R6, false},
		{"NodeId", NodeId, false},
		{"3", NodeInfo, false},
		{"99", RecordType(99), false},
		{"-1", 0, true},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRecordType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRecordType) {
				t.Errorf("ParseRecordType(%q): expected ErrInvalidRecordType, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRecordType(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRecordType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if RecordType(99).String() != "Record(99)" {
		t.Errorf("String() = %q", RecordType(99).String())
	}
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
