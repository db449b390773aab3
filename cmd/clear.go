package cmd

import (
	"fmt"

	"github.com/illarion/bootdb/internal/keyring"
)

// Clear destroys every record and issues a new owner id
func Clear(opts Options, force bool) {
	store := OpenStore(opts)
	defer store.Close()

	oldOwner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}

	if !force && !Confirm(fmt.Sprintf("Destroy all records in %s? [y/N]: ", store.Path()), false) {
		fmt.Println("Cancelled")
		return
	}

	if err := store.Clear(); err != nil {
		HandleError(err)
	}

	// The keyring entry belongs to the old owner id
	if keyring.HasPassword(oldOwner) {
		_ = keyring.DeletePassword(oldOwner)
	}

	owner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("Cleared %s\n", store.Path())
	fmt.Printf("New owner: %s\n", owner)
}
