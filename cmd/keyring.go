package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/core"
	"github.com/illarion/bootdb/internal/crypto"
	"github.com/illarion/bootdb/internal/keyring"
)

// KeyringSave saves the password to the OS keyring.
// The keyring holds one password per database, so it must open every sealed record.
func KeyringSave(opts Options) {
	store := OpenStore(opts)
	defer store.Close()

	sealed, err := store.SealedSlots()
	if err != nil {
		HandleError(err)
	}
	if len(sealed) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no sealed records to verify a password against\n")
		os.Exit(1)
	}

	password, err := core.ReadPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	others, err := store.SlotsNotOpenedBy(password)
	if err != nil {
		HandleError(err)
	}
	if len(others) == len(sealed) {
		HandleError(core.ErrWrongPassword)
	}
	if len(others) > 0 {
		fmt.Fprintf(os.Stderr, "Error: password does not open %s\n", joinTypes(others))
		fmt.Fprintf(os.Stderr, "Use 'bootdb passwd' to seal every record under one password\n")
		os.Exit(1)
	}

	owner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}
	if err := keyring.SavePassword(owner, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(opts Options) {
	store := OpenStore(opts)
	defer store.Close()

	owner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.DeletePassword(owner); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(opts Options) {
	store := OpenStore(opts)
	defer store.Close()

	owner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}

	if keyring.HasPassword(owner) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}

func joinTypes(types []bootdb.RecordType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
