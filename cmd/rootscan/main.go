// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// rootscan inspects detector event containers and decodes their events.
//
// Usage:
//
//	rootscan ls FILE
//	rootscan streamers FILE [--format text|json|cbor]
//	rootscan tree FILE TREE
//	rootscan events FILE... [--tree NAME] [--format jsonl|cbor|arrow]
//
// FILE is a local path or an http(s) URL.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootscan/lib/version"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by the command line rather than the
// input files.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	logLevel := slog.LevelInfo
	if os.Getenv("ROOTSCAN_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := args[0]
	args = args[1:]

	var err error
	switch cmd {
	case "ls":
		err = lsCmd(args, stdout, logger)
	case "streamers":
		err = streamersCmd(args, stdout, logger)
	case "tree":
		err = treeCmd(args, stdout, logger)
	case "events":
		err = eventsCmd(args, stdout, logger)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "rootscan %s\n", version.Info())
		return exitOK
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr)
		return exitUsage
	}

	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `rootscan - Inspect detector event containers and decode their events

USAGE
    rootscan <command> [flags] FILE...

COMMANDS
    ls          List the top-level records of a file
    streamers   Show the streamer catalogue of a file
    tree        Show the branches of a tree
    events      Decode events to JSON lines, CBOR or Arrow
    version     Show version

EXAMPLES
    # List the records of a local file
    rootscan ls AliESDs.root

    # Dump the catalogue as JSON
    rootscan streamers --format json AliESDs.root

    # Decode events of two remote files into an Arrow stream
    rootscan events --format arrow --output events.arrow \
        http://opendata.cern.ch/eos/opendata/alice/2010/LHC10h/000139038/ESD/0001/AliESDs.root \
        http://opendata.cern.ch/eos/opendata/alice/2010/LHC10h/000139038/ESD/0002/AliESDs.root

ENVIRONMENT
    ROOTSCAN_CONFIG   Path to a rootscan.yaml config file
    ROOTSCAN_DEBUG    Enable debug logging
`)
}
