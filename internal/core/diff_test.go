package core

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/illarion/bootdb/internal/bootdb"
)

func TestHexDump(t *testing.T) {
	out := HexDump([]byte("ABCDEFGHIJKLMNOPqr\x00"), 0x270)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d:\n%s", len(lines), out)
	}
	want := "00000270  41 42 43 44 45 46 47 48  49 4a 4b 4c 4d 4e 4f 50  |ABCDEFGHIJKLMNOP|"
	if lines[0] != want {
		t.Errorf("Line 0:\n got %q\nwant %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "00000280  71 72 00 ") || !strings.HasSuffix(lines[1], "|qr.|") {
		t.Errorf("Unexpected second line %q", lines[1])
	}
	if HexDump(nil, 0) != "" || HexDump(nil, 0x270) != "" {
		t.Error("Empty data should produce no output")
	}
	if HexDump([]byte("AB"), 0) != hex.Dump([]byte("AB")) {
		t.Error("Base 0 should match hex.Dump")
	}
}

func TestGenerateHexDiff(t *testing.T) {
	old := make([]byte, 64)
	current := make([]byte, 64)
	current[20] = 0xab

	out := GenerateHexDiff("R1", 0, old, current)
	if !strings.HasPrefix(out, "--- a/R1\n+++ b/R1\n") {
		t.Errorf("Missing headers:\n%s", out)
	}
	if strings.Count(out, "\n-") != 1 || strings.Count(out, "\n+0") != 1 {
		t.Errorf("Expected one removed and one added line:\n%s", out)
	}
	if !strings.Contains(out, "+00000010  00 00 00 00 ab") {
		t.Errorf("Changed line not shown:\n%s", out)
	}
}

func TestDiffImages(t *testing.T) {
	ctx := context.Background()
	old := make([]byte, bootdb.HeaderSize+2*bootdb.BlockSize)
	copy(old, bootdb.Magic[:])

	out, err := DiffImages(ctx, old, old)
	if err != nil {
		t.Fatalf("DiffImages failed: %v", err)
	}
	if out != "" {
		t.Errorf("Identical images should have no diff:\n%s", out)
	}

	current := append([]byte(nil), old...)
	current[bootdb.MasterPublicKey.Offset()] = 1
	current = append(current, make([]byte, bootdb.BlockSize)...)
	current[len(current)-1] = 2

	out, err = DiffImages(ctx, old, current)
	if err != nil {
		t.Fatalf("DiffImages failed: %v", err)
	}
	if strings.Contains(out, "a/header") || strings.Contains(out, "a/MasterPrivateKey") {
		t.Errorf("Unchanged regions should be omitted:\n%s", out)
	}
	if !strings.Contains(out, "--- a/MasterPublicKey") || !strings.Contains(out, "--- a/IsVerifiedNode") {
		t.Errorf("Changed slots missing:\n%s", out)
	}
}

func TestStoreDiff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(bootdb.R1, []byte("before")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	info, err := s.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	out, got, err := s.Diff(ctx, "")
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if out != "" || got.ID != info.ID {
		t.Errorf("Expected empty diff against %s, got %s:\n%s", info.ID, got.ID, out)
	}

	if err := s.Write(bootdb.R1, []byte("after")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out, _, err = s.Diff(ctx, info.ShortID())
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(out, "--- a/R1") || !strings.Contains(out, "|before") || !strings.Contains(out, "|after") {
		t.Errorf("Unexpected diff:\n%s", out)
	}
}
