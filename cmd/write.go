package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Write stores a value in a record slot. The value comes from the argument,
// or from file when set ("-" reads stdin).
func Write(opts Options, typeName, value, file string, isHex bool) {
	t := ParseRecordType(typeName)

	data, err := readValue(value, file, isHex)
	if err != nil {
		HandleError(err)
	}

	store := OpenStore(opts)
	defer store.Close()

	if err := store.Write(t, data); err != nil {
		HandleError(err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), t)
}

func readValue(value, file string, isHex bool) ([]byte, error) {
	var data []byte
	switch {
	case file == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		data = b
	default:
		data = []byte(value)
	}

	if !isHex {
		return data, nil
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid hex value: %w", err)
	}
	return decoded, nil
}
