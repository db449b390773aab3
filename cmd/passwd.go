package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/bootdb/internal/crypto"
	"github.com/illarion/bootdb/internal/keyring"
)

// Passwd re-seals a record slot under a new password
func Passwd(opts Options, typeName string) {
	t := ParseRecordType(typeName)

	store := OpenStore(opts)
	defer store.Close()

	currentPassword, _ := sealedPassword(store, t, "Enter current password: ")
	defer crypto.ClearBytes(currentPassword)

	newPassword, err := GetNewPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(newPassword)

	if err := store.ChangePassword(t, currentPassword, newPassword); err != nil {
		HandleError(err)
	}

	fmt.Printf("Password changed for %s\n", t)

	// The keyring entry follows only once every sealed record uses the new password
	owner, _ := store.OwnerID()
	if owner == "" || !keyring.HasPassword(owner) {
		return
	}
	others, err := store.SlotsNotOpenedBy(newPassword)
	if err != nil {
		HandleError(err)
	}
	if len(others) > 0 {
		fmt.Fprintf(os.Stderr, "warning: keyring unchanged, %s still sealed under another password\n", joinTypes(others))
		return
	}
	if err := keyring.SavePassword(owner, string(newPassword)); err == nil {
		fmt.Println("Keyring updated with new password")
	}
}
