// Command patchctl is a thin, out-of-core CLI collaborator (spec §1): it
// applies patch files from disk against a SQLite database and pretty-prints
// the resulting report. It is not part of the PatchKit library surface.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

const appName = "patchctl"

// ErrUnknownCommand is returned when os.Args[1] does not match a known
// subcommand, mirroring the teacher's cmd/migrator dispatch style.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if err := dispatch(command, args); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func dispatch(command string, args []string) error {
	switch command {
	case "apply":
		return runApply(args)
	case "apply-dir":
		return runApplyDir(args)
	case "verify":
		return runVerify(args)
	case "-h", "--help", "help":
		printUsage()

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s - apply declarative SQL patches against a SQLite database

USAGE:
    %s COMMAND [OPTIONS]

COMMANDS:
    apply      Apply a single patch file against a target database
    apply-dir  Apply every patch file in a directory, in lexical order
    verify     Run the validator chain against a patch file (no database access)

Run '%s COMMAND -h' for command-specific options.
`, appName, appName, appName)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s %s [options]\n", appName, name)
		fs.PrintDefaults()
	}

	return fs
}
