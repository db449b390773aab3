package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/bootdb/internal/git"
)

// Status shows the header, record slots, archive and git exposure
func Status(ctx context.Context, opts Options) {
	store := NewStore(opts)
	if !store.Exists() {
		fmt.Printf("No database found at %s\n", store.Path())
		fmt.Println("Run 'bootdb init' to create one")
		return
	}
	if err := store.Open(); err != nil {
		HandleError(err)
	}
	defer store.Close()

	status, err := store.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Database: %s (%d bytes)\n", status.Path, status.Size)
	fmt.Printf("Version:  %d\n", status.Header.Version)
	fmt.Printf("Created:  %s\n", status.Header.Created().Format(time.RFC3339))
	fmt.Printf("Owner:    %s\n", status.Header.OwnerIDHex())

	fmt.Printf("\nRecords (%d used, %d sealed):\n", status.UsedCount, status.SealedCount)
	if status.Fresh {
		fmt.Println("  (none)")
	}
	for _, slot := range status.Slots {
		switch {
		case slot.Sealed:
			fmt.Printf("  * %-18s sealed (%d iterations)\n", slot.Type, slot.Iterations)
		case slot.Used:
			fmt.Printf("  . %-18s %d bytes\n", slot.Type, slot.Length)
		default:
			fmt.Printf("    %-18s empty\n", slot.Type)
		}
	}

	fmt.Printf("\nArchive: %s\n", status.ArchivePath)
	if status.Snapshots == 0 {
		fmt.Println("  no snapshots")
	} else {
		fmt.Printf("  %d snapshots (%d of this database), last %s\n",
			status.Snapshots, status.OwnSnapshots, status.LastSnapshot.Format(time.RFC3339))
	}
	if !status.ArchiveModified.IsZero() {
		fmt.Printf("  modified %s\n", status.ArchiveModified.Format(time.RFC3339))
	}

	fmt.Print(git.FormatGitStatus(status.GitStatus))
}
