package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_bootdb() {
    local cur prev words cword
    _init_completion || return

    local commands="init clear write read keygen identity unseal passwd status snapshot snapshots restore forget diff keyring help completion"
    local types="MasterPrivateKey MasterPublicKey IsVerifiedNode NodeInfo HostInfo KeyStore SessionKey NodeId R1 R2 R3 R4 R5 R6"

    if [[ "$prev" == "--db" || "$prev" == "--config" ]]; then
        _filedir
        return
    fi
    if [[ "$prev" == "--log-level" ]]; then
        COMPREPLY=($(compgen -W "debug info warn error" -- "$cur"))
        return
    fi

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        write)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--hex --file" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$types" -- "$cur"))
            fi
            ;;
        read|unseal)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--length --format" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$types" -- "$cur"))
            fi
            ;;
        keygen)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--size --seal" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "$types" -- "$cur"))
            fi
            ;;
        passwd)
            COMPREPLY=($(compgen -W "$types" -- "$cur"))
            ;;
        identity)
            COMPREPLY=($(compgen -W "--seal --force --show" -- "$cur"))
            ;;
        clear|restore)
            COMPREPLY=($(compgen -W "--force" -- "$cur"))
            ;;
        snapshot)
            COMPREPLY=($(compgen -W "-m" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _bootdb bootdb
`

const zshCompletion = `#compdef bootdb

_bootdb() {
    local -a commands types
    commands=(
        'init:Create or repair the database'
        'clear:Destroy all records and issue a new owner id'
        'write:Store a value in a record slot'
        'read:Print a record slot'
        'keygen:Fill a record slot with random key material'
        'identity:Generate the Ed25519 master key pair'
        'unseal:Print the plaintext of a sealed record'
        'passwd:Change the password of a sealed record'
        'status:Show header, records and archive'
        'snapshot:Copy the database into the archive'
        'snapshots:List archived snapshots'
        'restore:Replace the database with a snapshot'
        'forget:Delete a snapshot'
        'diff:Compare a snapshot with the database'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )
    types=(MasterPrivateKey MasterPublicKey IsVerifiedNode NodeInfo HostInfo KeyStore SessionKey NodeId R1 R2 R3 R4 R5 R6)

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'bootdb commands' commands
            ;;
        args)
            case "${words[2]}" in
                write)
                    _arguments \
                        '--hex[Value is hex encoded]' \
                        '--file[Read value from file]:file:_files' \
                        '1:record type:(${types})'
                    ;;
                read|unseal)
                    _arguments \
                        '--length[Bytes to print]:length' \
                        '--format[Output format]:format:(hex base64 raw)' \
                        '1:record type:(${types})'
                    ;;
                keygen)
                    _arguments \
                        '--size[Key size in bytes]:size' \
                        '--seal[Seal the key under a password]' \
                        '1:record type:(${types})'
                    ;;
                passwd)
                    _arguments '1:record type:(${types})'
                    ;;
                identity)
                    _arguments \
                        '--seal[Seal the private key under a password]' \
                        '--force[Replace without confirmation]' \
                        '--show[Verify and print the existing key pair]'
                    ;;
                clear|restore)
                    _arguments '--force[Do not ask for confirmation]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'bootdb commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_bootdb "$@"
`

const fishCompletion = `# bootdb fish completions

set -l commands init clear write read keygen identity unseal passwd status snapshot snapshots restore forget diff keyring help completion
set -l types MasterPrivateKey MasterPublicKey IsVerifiedNode NodeInfo HostInfo KeyStore SessionKey NodeId R1 R2 R3 R4 R5 R6

complete -c bootdb -f

# Global flags
complete -c bootdb -l db -r -F -d 'Database file'
complete -c bootdb -l config -r -F -d 'Config file'
complete -c bootdb -l log-level -x -a "debug info warn error" -d 'Log level'

# Commands
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create or repair the database'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a clear -d 'Destroy all records'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a write -d 'Store a value in a record'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a read -d 'Print a record'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a keygen -d 'Generate key material'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a identity -d 'Generate master key pair'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a unseal -d 'Print a sealed record'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change sealed record password'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show database status'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a snapshot -d 'Archive the database'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a snapshots -d 'List snapshots'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a restore -d 'Restore a snapshot'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a forget -d 'Delete a snapshot'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare snapshot with database'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c bootdb -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Record types
complete -c bootdb -n "__fish_seen_subcommand_from write read keygen unseal passwd" -a "$types"

# Command flags
complete -c bootdb -n "__fish_seen_subcommand_from write" -l hex -d 'Value is hex encoded'
complete -c bootdb -n "__fish_seen_subcommand_from write" -l file -r -F -d 'Read value from file'
complete -c bootdb -n "__fish_seen_subcommand_from read unseal" -l length -x -d 'Bytes to print'
complete -c bootdb -n "__fish_seen_subcommand_from read unseal" -l format -x -a "hex base64 raw" -d 'Output format'
complete -c bootdb -n "__fish_seen_subcommand_from keygen" -l size -x -d 'Key size in bytes'
complete -c bootdb -n "__fish_seen_subcommand_from keygen identity" -l seal -d 'Seal under a password'
complete -c bootdb -n "__fish_seen_subcommand_from identity clear restore" -l force -d 'Do not ask'
complete -c bootdb -n "__fish_seen_subcommand_from identity" -l show -d 'Verify and print the key pair'
complete -c bootdb -n "__fish_seen_subcommand_from snapshot" -s m -x -d 'Snapshot note'

# keyring subcommands
complete -c bootdb -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c bootdb -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c bootdb -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
