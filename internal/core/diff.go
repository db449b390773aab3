package core

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/bootdb/internal/archive"
	"github.com/illarion/bootdb/internal/bootdb"
)

const hexOffsetWidth = 8 // Offset column of hex.Dump

// Diff compares a snapshot (the latest when id is empty) with the live
// database. Returns an empty string when they are identical.
func (s *Store) Diff(ctx context.Context, id string) (string, *archive.SnapshotInfo, error) {
	if err := s.requireOpen(); err != nil {
		return "", nil, err
	}
	info, old, err := s.snapshot(id)
	if err != nil {
		return "", nil, err
	}
	current, err := s.image()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read database: %w", err)
	}

	out, err := DiffImages(ctx, old, current)
	if err != nil {
		return "", nil, err
	}
	return out, info, nil
}

// DiffImages renders the changed regions of two database images as hex dump
// diffs. The header and each slot are compared separately.
func DiffImages(ctx context.Context, old, current []byte) (string, error) {
	if bytes.Equal(old, current) {
		return "", nil
	}

	var result strings.Builder
	writeRegion := func(name string, start, end int) {
		a, b := region(old, start, end), region(current, start, end)
		if bytes.Equal(a, b) {
			return
		}
		result.WriteString(GenerateHexDiff(name, int64(start), a, b))
	}

	writeRegion("header", 0, bootdb.HeaderSize)

	slots := max(slotCount(old), slotCount(current))
	for i := 0; i < slots; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t := bootdb.RecordType(i)
		start := int(t.Offset())
		writeRegion(t.String(), start, start+bootdb.BlockSize)
	}

	return result.String(), nil
}

func slotCount(data []byte) int {
	if len(data) <= bootdb.HeaderSize {
		return 0
	}
	return (len(data) - bootdb.HeaderSize + bootdb.BlockSize - 1) / bootdb.BlockSize
}

// region returns data[start:end] clipped to the data length
func region(data []byte, start, end int) []byte {
	if start >= len(data) {
		return nil
	}
	return data[start:min(end, len(data))]
}

// GenerateHexDiff produces a line diff of two hex dumps. Unchanged lines are
// omitted since every line carries its own offset.
func GenerateHexDiff(name string, base int64, old, current []byte) string {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(HexDump(old, base), HexDump(current, base))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s\n", name))
	result.WriteString(fmt.Sprintf("+++ b/%s\n", name))
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
		}
	}
	return result.String()
}

// HexDump formats data like hex.Dump, with offsets starting at base
func HexDump(data []byte, base int64) string {
	dump := hex.Dump(data)
	if base == 0 {
		return dump
	}

	var result strings.Builder
	for _, line := range strings.SplitAfter(dump, "\n") {
		if len(line) < hexOffsetWidth {
			result.WriteString(line)
			continue
		}
		off, err := strconv.ParseInt(line[:hexOffsetWidth], 16, 64)
		if err != nil {
			result.WriteString(line)
			continue
		}
		fmt.Fprintf(&result, "%08x%s", base+off, line[hexOffsetWidth:])
	}
	return result.String()
}
