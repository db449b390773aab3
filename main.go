package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/bootdb/cmd"
	"github.com/illarion/bootdb/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "clear":
		runClear(ctx, os.Args[2:])
	case "write":
		runWrite(ctx, os.Args[2:])
	case "read":
		runRead(ctx, os.Args[2:])
	case "keygen":
		runKeygen(ctx, os.Args[2:])
	case "identity":
		runIdentity(ctx, os.Args[2:])
	case "unseal":
		runUnseal(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "snapshot":
		runSnapshot(ctx, os.Args[2:])
	case "snapshots":
		runSnapshots(ctx, os.Args[2:])
	case "restore":
		runRestore(ctx, os.Args[2:])
	case "forget":
		runForget(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet creates a flag set carrying the global flags
func newFlagSet(name string) (*flag.FlagSet, *cmd.Options) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	opts := &cmd.Options{}
	fs.StringVar(&opts.DB, "db", "", "Database file (default node.bootdb)")
	fs.StringVar(&opts.Config, "config", "", "YAML config file")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.Usage = func() { printCommandHelp(name) }
	return fs, opts
}

// parseArgs parses flags anywhere on the command line and returns the
// positional arguments in order
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional
		}
		// Everything after "--" is positional
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...)
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// requireArgs exits with usage unless at least n positional arguments are present
func requireArgs(name string, args []string, n int) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "Error: %s requires %d argument(s)\n", name, n)
		printCommandHelp(name)
		os.Exit(1)
	}
}

func runInit(_ context.Context, args []string) {
	fs, opts := newFlagSet("init")
	parseArgs(fs, args)

	cmd.Init(*opts)
}

func runClear(_ context.Context, args []string) {
	fs, opts := newFlagSet("clear")
	force := fs.Bool("force", false, "Clear without confirmation")
	parseArgs(fs, args)

	cmd.Clear(*opts, *force)
}

func runWrite(_ context.Context, args []string) {
	fs, opts := newFlagSet("write")
	isHex := fs.Bool("hex", false, "Value is hex encoded")
	file := fs.String("file", "", "Read value from file (- for stdin)")
	rest := parseArgs(fs, args)

	if *file != "" {
		requireArgs("write", rest, 1)
		cmd.Write(*opts, rest[0], "", *file, *isHex)
		return
	}
	requireArgs("write", rest, 2)
	cmd.Write(*opts, rest[0], rest[1], "", *isHex)
}

func runRead(_ context.Context, args []string) {
	fs, opts := newFlagSet("read")
	length := fs.Int("length", 0, "Bytes to print (default whole block)")
	format := fs.String("format", "hex", "Output format: hex, base64, raw")
	rest := parseArgs(fs, args)
	requireArgs("read", rest, 1)

	cmd.Read(*opts, rest[0], *length, *format)
}

func runKeygen(_ context.Context, args []string) {
	fs, opts := newFlagSet("keygen")
	size := fs.Int("size", core.DefaultKeySize, "Key size in bytes")
	seal := fs.Bool("seal", false, "Seal the key under a password")
	rest := parseArgs(fs, args)
	requireArgs("keygen", rest, 1)

	cmd.Keygen(*opts, rest[0], *size, *seal)
}

func runIdentity(_ context.Context, args []string) {
	fs, opts := newFlagSet("identity")
	seal := fs.Bool("seal", false, "Seal the private key under a password")
	force := fs.Bool("force", false, "Replace an existing key pair without confirmation")
	show := fs.Bool("show", false, "Verify and print the existing key pair")
	parseArgs(fs, args)

	if *show {
		cmd.ShowIdentity(*opts)
		return
	}
	cmd.Identity(*opts, *seal, *force)
}

func runUnseal(_ context.Context, args []string) {
	fs, opts := newFlagSet("unseal")
	format := fs.String("format", "hex", "Output format: hex, base64, raw")
	rest := parseArgs(fs, args)
	requireArgs("unseal", rest, 1)

	cmd.Unseal(*opts, rest[0], *format)
}

func runPasswd(_ context.Context, args []string) {
	fs, opts := newFlagSet("passwd")
	rest := parseArgs(fs, args)
	requireArgs("passwd", rest, 1)

	cmd.Passwd(*opts, rest[0])
}

func runStatus(ctx context.Context, args []string) {
	fs, opts := newFlagSet("status")
	parseArgs(fs, args)

	cmd.Status(ctx, *opts)
}

func runSnapshot(_ context.Context, args []string) {
	fs, opts := newFlagSet("snapshot")
	note := fs.String("m", "", "Note stored with the snapshot")
	parseArgs(fs, args)

	cmd.Snapshot(*opts, *note)
}

func runSnapshots(_ context.Context, args []string) {
	fs, opts := newFlagSet("snapshots")
	parseArgs(fs, args)

	cmd.Snapshots(*opts)
}

func runRestore(ctx context.Context, args []string) {
	fs, opts := newFlagSet("restore")
	force := fs.Bool("force", false, "Restore without confirmation")
	rest := parseArgs(fs, args)

	var id string
	if len(rest) > 0 {
		id = rest[0]
	}
	cmd.Restore(ctx, *opts, id, *force)
}

func runForget(_ context.Context, args []string) {
	fs, opts := newFlagSet("forget")
	rest := parseArgs(fs, args)
	requireArgs("forget", rest, 1)

	cmd.Forget(*opts, rest[0])
}

func runDiff(ctx context.Context, args []string) {
	fs, opts := newFlagSet("diff")
	rest := parseArgs(fs, args)

	var id string
	if len(rest) > 0 {
		id = rest[0]
	}
	cmd.Diff(ctx, *opts, id)
}

func runKeyring(_ context.Context, args []string) {
	fs, opts := newFlagSet("keyring")
	rest := parseArgs(fs, args)
	requireArgs("keyring", rest, 1)

	switch rest[0] {
	case "save":
		cmd.KeyringSave(*opts)
	case "delete":
		cmd.KeyringDelete(*opts)
	case "status":
		cmd.KeyringStatus(*opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", rest[0])
		printCommandHelp("keyring")
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bootdb completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("bootdb - Fixed-slot record store for node boot secrets")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bootdb <command> [flags] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create the database, or repair a damaged one")
	fmt.Println("  clear       Destroy all records and issue a new owner id")
	fmt.Println("  write       Store a value in a record slot")
	fmt.Println("  read        Print a record slot")
	fmt.Println("  keygen      Fill a record slot with random key material")
	fmt.Println("  identity    Generate the Ed25519 master key pair")
	fmt.Println("  unseal      Print the plaintext of a sealed record")
	fmt.Println("  passwd      Change the password of a sealed record")
	fmt.Println("  status      Show header, records and archive")
	fmt.Println("  snapshot    Copy the database into the archive")
	fmt.Println("  snapshots   List archived snapshots")
	fmt.Println("  restore     Replace the database with a snapshot")
	fmt.Println("  forget      Delete a snapshot")
	fmt.Println("  diff        Compare a snapshot with the database")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Global flags:")
	fmt.Println("  --db <file>          Database file (default node.bootdb, env BOOTDB_PATH)")
	fmt.Println("  --config <file>      YAML config file (env BOOTDB_CONFIG)")
	fmt.Println("  --log-level <level>  debug, info, warn, error (env BOOTDB_LOG_LEVEL)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  bootdb init                       # Create node.bootdb")
	fmt.Println("  bootdb write NodeId node-7        # Store a value")
	fmt.Println("  bootdb keygen SessionKey --seal   # Generate a sealed key")
	fmt.Println("  bootdb snapshot -m \"pre-upgrade\"  # Archive the database")
	fmt.Println()
	fmt.Println("Use 'bootdb help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("bootdb init")
		fmt.Println()
		fmt.Println("Creates the database file with a fresh header.")
		fmt.Println("An existing file is validated: a bad header is rewritten,")
		fmt.Println("and a file whose size is not block aligned is cleared.")
	case "clear":
		fmt.Println("bootdb clear [--force]")
		fmt.Println()
		fmt.Println("Destroys every record and writes a new header with a new owner id.")
		fmt.Println("A keyring entry for the old owner id is removed.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force   Clear without confirmation")
	case "write":
		fmt.Println("bootdb write [--hex] <type> <value>")
		fmt.Println("bootdb write [--hex] --file <file|-> <type>")
		fmt.Println()
		fmt.Println("Stores a value of at most 512 bytes in a record slot.")
		fmt.Println("The rest of the slot is zero filled. Type is a record name or number.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --hex          Value is hex encoded")
		fmt.Println("  --file <file>  Read value from file, - for stdin")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  bootdb write NodeId node-7")
		fmt.Println("  bootdb write --hex R1 deadbeef")
		fmt.Println("  bootdb write --file host.json HostInfo")
	case "read":
		fmt.Println("bootdb read [--length n] [--format hex|base64|raw] <type>")
		fmt.Println()
		fmt.Println("Prints a record slot. Sealed records are printed as stored.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --length n   Bytes to print (default whole block)")
		fmt.Println("  --format f   hex (default), base64 or raw")
	case "keygen":
		fmt.Println("bootdb keygen [--size n] [--seal] <type>")
		fmt.Println()
		fmt.Println("Fills a record slot with random bytes.")
		fmt.Println("With --seal the key is encrypted under a password (BOOTDB_PASSWORD or prompt).")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --size n   Key size in bytes (default 32)")
		fmt.Println("  --seal     Seal the key under a password")
	case "identity":
		fmt.Println("bootdb identity [--seal] [--force]")
		fmt.Println("bootdb identity --show")
		fmt.Println()
		fmt.Println("Generates an Ed25519 key pair. The private seed goes to MasterPrivateKey")
		fmt.Println("and the public key to MasterPublicKey.")
		fmt.Println("With --show the existing pair is loaded, checked and its public key printed.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --seal    Seal the private key under a password")
		fmt.Println("  --force   Replace an existing key pair without confirmation")
		fmt.Println("  --show    Verify and print the existing key pair")
	case "unseal":
		fmt.Println("bootdb unseal [--format hex|base64|raw] <type>")
		fmt.Println()
		fmt.Println("Decrypts a sealed record. The password is taken from BOOTDB_PASSWORD,")
		fmt.Println("the OS keyring or a prompt, in that order.")
	case "passwd":
		fmt.Println("bootdb passwd <type>")
		fmt.Println()
		fmt.Println("Re-seals a record under a new password.")
		fmt.Println("The keyring holds one password per database. An existing keyring")
		fmt.Println("entry is updated only when every sealed record opens with the new password.")
	case "status":
		fmt.Println("bootdb status")
		fmt.Println()
		fmt.Println("Shows the header, every record slot, the snapshot archive")
		fmt.Println("and whether the files are exposed to git.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "snapshot":
		fmt.Println("bootdb snapshot [-m note]")
		fmt.Println()
		fmt.Println("Copies the whole database into the archive (default <db>.archive).")
	case "snapshots":
		fmt.Println("bootdb snapshots")
		fmt.Println()
		fmt.Println("Lists archived snapshots, oldest first. Snapshots of the current")
		fmt.Println("database (same owner id) are marked with *.")
	case "restore":
		fmt.Println("bootdb restore [--force] [id]")
		fmt.Println()
		fmt.Println("Replaces the database with a snapshot. Without an id the latest")
		fmt.Println("snapshot is used. Ids may be abbreviated to a unique prefix.")
	case "forget":
		fmt.Println("bootdb forget <id>")
		fmt.Println()
		fmt.Println("Deletes a snapshot and compacts the archive.")
	case "diff":
		fmt.Println("bootdb diff [id]")
		fmt.Println()
		fmt.Println("Shows hex dump differences between a snapshot (latest by default)")
		fmt.Println("and the database, region by region.")
	case "keyring":
		fmt.Println("bootdb keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the sealing password in the OS keyring, one per database, keyed by owner id.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  save     Store a password that opens every sealed record")
		fmt.Println("  delete   Remove the stored password")
		fmt.Println("  status   Show whether a password is stored")
	case "completion":
		fmt.Println("bootdb completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(bootdb completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(bootdb completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  bootdb completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
