package cmd

import (
	"fmt"
	"time"

	"github.com/illarion/bootdb/internal/archive"
)

// Snapshot copies the database into the archive
func Snapshot(opts Options, note string) {
	store := OpenStore(opts)
	defer store.Close()

	info, err := store.Snapshot(note)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Snapshot %s saved (%d slots, %d bytes)\n", info.ShortID(), info.Slots, info.Size)
}

// Snapshots lists archived snapshots, oldest first
func Snapshots(opts Options) {
	store := NewStore(opts)

	list, err := store.Snapshots()
	if err != nil {
		HandleError(err)
	}
	if len(list) == 0 {
		fmt.Println("No snapshots")
		return
	}

	// Snapshots of the current database are marked with *
	mine := make(map[string]bool)
	if store.Exists() {
		if err := store.Open(); err == nil {
			defer store.Close()
			if owner, err := store.OwnerID(); err == nil {
				for _, s := range archive.FindByOwner(list, owner) {
					mine[s.ID] = true
				}
			}
		}
	}

	for _, s := range list {
		owner := s.OwnerID
		if len(owner) > 8 {
			owner = owner[:8]
		}
		mark := " "
		if mine[s.ID] {
			mark = "*"
		}
		fmt.Printf("%s %s  %s  owner %s  %2d slots", mark, s.ShortID(), s.Created.Format(time.RFC3339), owner, s.Slots)
		if s.Note != "" {
			fmt.Printf("  %s", s.Note)
		}
		fmt.Println()
	}
}
