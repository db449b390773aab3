package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/core"
)

var errNotPresent = errors.New("is not present")

// Read prints a record slot. length <= 0 prints the whole block.
func Read(opts Options, typeName string, length int, format string) {
	t := ParseRecordType(typeName)

	store := OpenStore(opts)
	defer store.Close()

	data, err := readRecord(store, t, length)
	if errors.Is(err, errNotPresent) {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	if err != nil {
		HandleError(err)
	}
	PrintBytes(data, format)
}

// readRecord reads a slot and fails when no bytes of it exist in the file
func readRecord(store *core.Store, t bootdb.RecordType, length int) ([]byte, error) {
	data, err := store.Read(t, length)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s %w", t, errNotPresent)
	}
	return data, nil
}
