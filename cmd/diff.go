package cmd

import (
	"context"
	"fmt"
)

// Diff compares a snapshot (latest when id is empty) with the database
func Diff(ctx context.Context, opts Options, id string) {
	store := OpenStore(opts)
	defer store.Close()

	out, info, err := store.Diff(ctx, id)
	if err != nil {
		HandleError(err)
	}
	if out == "" {
		fmt.Printf("No changes since snapshot %s\n", info.ShortID())
		return
	}
	fmt.Print(out)
}
