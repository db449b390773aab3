package cmd

import (
	"context"
	"fmt"
)

// Restore replaces the database with a snapshot (latest when id is empty)
func Restore(ctx context.Context, opts Options, id string, force bool) {
	store := NewStore(opts)
	if _, err := store.Init(); err != nil {
		HandleError(err)
	}
	defer store.Close()

	if !force && !Confirm(fmt.Sprintf("Overwrite %s with snapshot? [y/N]: ", store.Path()), false) {
		fmt.Println("Cancelled")
		return
	}

	info, err := store.Restore(ctx, id)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Restored snapshot %s (%d slots)\n", info.ShortID(), info.Slots)
}
