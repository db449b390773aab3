package cmd

import (
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/bootdb/internal/archive"
	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/config"
	"github.com/illarion/bootdb/internal/core"
	"github.com/illarion/bootdb/internal/crypto"
	"github.com/illarion/bootdb/internal/keyring"
)

// Options carries the global flags shared by every command
type Options struct {
	DB       string
	Config   string
	LogLevel string
}

// PasswordSource tells where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

const maxPasswordAttempts = 3

// NewStore builds a Store from configuration overridden by the global flags
func NewStore(opts Options) *core.Store {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		HandleError(err)
	}
	if opts.DB != "" {
		cfg.Path = opts.DB
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		HandleError(err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		HandleError(err)
	}
	return core.NewFromConfig(cfg, logger)
}

// OpenStore is like NewStore but also opens an existing database
func OpenStore(opts Options) *core.Store {
	store := NewStore(opts)
	if err := store.Open(); err != nil {
		HandleError(err)
	}
	return store
}

// ParseRecordType parses a record type argument or exits
func ParseRecordType(s string) bootdb.RecordType {
	t, err := bootdb.ParseRecordType(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Known types: %s\n", strings.Join(recordTypeNames(), ", "))
		os.Exit(1)
	}
	return t
}

func recordTypeNames() []string {
	var names []string
	for _, t := range bootdb.NamedRecordTypes() {
		names = append(names, t.String())
	}
	return names
}

// GetPassword retrieves password from environment or prompts user
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt string) ([]byte, error) {
	password := core.GetPasswordFromEnv()
	if password != nil {
		return password, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// GetNewPassword retrieves a password for sealing.
// Checks environment variable first, then prompts with confirmation
func GetNewPassword() ([]byte, error) {
	password := core.GetPasswordFromEnv()
	if password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm()
}

// GetPasswordWithRetry tries the environment, then the keyring, then the
// terminal. A keyring entry that fails verify is reported as stale and the
// user is prompted instead.
func GetPasswordWithRetry(prompt, ownerID string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := core.GetPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if ownerID != "" {
		if stored, err := keyring.GetPassword(ownerID); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, core.ErrWrongPassword) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "warning: password in keyring is stale")
		}
	}

	for attempt := 1; ; attempt++ {
		password, err := core.ReadPassword(prompt)
		if err != nil {
			return nil, SourcePrompt, err
		}
		err = verify(password)
		if err == nil {
			return password, SourcePrompt, nil
		}
		crypto.ClearBytes(password)
		if !errors.Is(err, core.ErrWrongPassword) || attempt == maxPasswordAttempts {
			return nil, SourcePrompt, err
		}
		fmt.Fprintln(os.Stderr, "Wrong password, try again")
	}
}

// OfferToSavePassword asks whether to store a prompted password in the keyring
func OfferToSavePassword(ownerID string, password []byte) {
	if ownerID == "" || os.Getenv(config.EnvPassword) != "" || !core.IsTerminal() || keyring.HasPassword(ownerID) {
		return
	}
	if !Confirm("Save password to keyring? [y/N]: ", false) {
		return
	}
	if err := keyring.SavePassword(ownerID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}

// Confirm asks a yes/no question on stdin, returning def on empty input
func Confirm(prompt string, def bool) bool {
	fmt.Print(prompt)
	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	switch response {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	return def
}

// PrintBytes writes data to stdout as hex, base64 or raw bytes
func PrintBytes(data []byte, format string) {
	switch format {
	case "hex", "":
		fmt.Println(hex.EncodeToString(data))
	case "base64":
		fmt.Println(base64.StdEncoding.EncodeToString(data))
	case "raw":
		os.Stdout.Write(data)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (hex, base64, raw)\n", format)
		os.Exit(1)
	}
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: bootdb not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'bootdb init' first\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "Error: wrong password\n")
	case errors.Is(err, core.ErrNotSealed):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'bootdb read' for unsealed records\n")
	case errors.Is(err, bootdb.ErrRecordTooLarge):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Records hold at most %d bytes\n", bootdb.BlockSize)
	case errors.Is(err, archive.ErrSnapshotNotFound):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'bootdb snapshots' to list snapshots\n")
	case errors.Is(err, archive.ErrAmbiguousID):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use a longer snapshot id\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
