package cmd

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/crypto"
)

// Identity generates the Ed25519 master key pair
func Identity(opts Options, seal, force bool) {
	store := OpenStore(opts)
	defer store.Close()

	exists, err := store.HasIdentity()
	if err != nil {
		HandleError(err)
	}
	if exists && !force {
		if !Confirm("Master key pair exists. Replace it? [y/N]: ", false) {
			fmt.Println("Cancelled")
			return
		}
	}

	var password []byte
	if seal {
		password, err = GetNewPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)
	}

	pub, err := store.GenerateIdentity(password)
	if err != nil {
		HandleError(err)
	}

	fmt.Println("Generated master key pair")
	fmt.Printf("Public key: %s\n", hex.EncodeToString(pub))
	if seal {
		owner, _ := store.OwnerID()
		OfferToSavePassword(owner, password)
	}
}

// ShowIdentity loads the master key pair, checks that both halves match and
// prints the public key
func ShowIdentity(opts Options) {
	store := OpenStore(opts)
	defer store.Close()

	exists, err := store.HasIdentity()
	if err != nil {
		HandleError(err)
	}
	if !exists {
		fmt.Fprintln(os.Stderr, "No master key pair")
		fmt.Fprintln(os.Stderr, "Run 'bootdb identity' to generate one")
		os.Exit(1)
	}

	sealed, err := store.IsSealed(bootdb.MasterPrivateKey)
	if err != nil {
		HandleError(err)
	}
	var password []byte
	source := SourceEnv
	if sealed {
		password, source = sealedPassword(store, bootdb.MasterPrivateKey, "Enter password: ")
		defer crypto.ClearBytes(password)
	}

	priv, err := store.Identity(password)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(priv)

	fmt.Printf("Public key: %s\n", hex.EncodeToString(priv.Public().(ed25519.PublicKey)))
	if sealed {
		fmt.Println("Private key: sealed, matches")
	} else {
		fmt.Println("Private key: matches")
	}

	if source == SourcePrompt {
		owner, _ := store.OwnerID()
		OfferToSavePassword(owner, password)
	}
}
