package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/bootdb/internal/crypto"
)

// Keygen fills a record slot with random key material, sealed when seal is set
func Keygen(opts Options, typeName string, size int, seal bool) {
	t := ParseRecordType(typeName)

	store := OpenStore(opts)
	defer store.Close()

	var password []byte
	if seal {
		var err error
		password, err = GetNewPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)
	}

	if err := store.Generate(t, size, password); err != nil {
		HandleError(err)
	}

	if seal {
		fmt.Printf("Generated sealed %d-byte key in %s\n", size, t)
		owner, _ := store.OwnerID()
		OfferToSavePassword(owner, password)
	} else {
		fmt.Printf("Generated %d-byte key in %s\n", size, t)
	}
}
