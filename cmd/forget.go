package cmd

import (
	"fmt"
	"os"
)

// Forget deletes a snapshot from the archive
func Forget(opts Options, id string) {
	if id == "" {
		fmt.Fprintf(os.Stderr, "Error: forget requires a snapshot id\n")
		fmt.Fprintf(os.Stderr, "Usage: bootdb forget <id>\n")
		os.Exit(1)
	}

	store := NewStore(opts)

	deleted, err := store.Forget(id)
	if err != nil {
		if deleted == "" {
			HandleError(err)
		}
		fmt.Fprintf(os.Stderr, "warning: %s\n", err)
	}
	fmt.Printf("Snapshot %s deleted\n", deleted)
}
