package cmd

import (
	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/core"
	"github.com/illarion/bootdb/internal/crypto"
)

// Unseal prints the plaintext of a sealed record slot
func Unseal(opts Options, typeName, format string) {
	t := ParseRecordType(typeName)

	store := OpenStore(opts)
	defer store.Close()

	password, source := sealedPassword(store, t, "Enter password: ")
	defer crypto.ClearBytes(password)

	plaintext, err := store.Unseal(t, password)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(plaintext)

	PrintBytes(plaintext, format)

	if source == SourcePrompt {
		owner, _ := store.OwnerID()
		OfferToSavePassword(owner, password)
	}
}

// sealedPassword obtains a password that opens slot t or exits
func sealedPassword(store *core.Store, t bootdb.RecordType, prompt string) ([]byte, PasswordSource) {
	sealed, err := store.IsSealed(t)
	if err != nil {
		HandleError(err)
	}
	if !sealed {
		HandleError(core.ErrNotSealed)
	}

	owner, _ := store.OwnerID()
	password, source, err := GetPasswordWithRetry(prompt, owner, func(p []byte) error {
		return store.VerifyPassword(t, p)
	})
	if err != nil {
		HandleError(err)
	}
	return password, source
}
