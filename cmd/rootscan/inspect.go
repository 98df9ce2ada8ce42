// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/bureau-foundation/rootscan/lib/codec"
)

func lsCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	var (
		common  commonFlags
		verbose bool
	)
	flagSet := newFlagSet("ls", `rootscan ls - List the top-level records of a file

USAGE
    rootscan ls [flags] FILE
`)
	common.add(flagSet)
	flagSet.BoolVar(&verbose, "verbose", false, "print every record header field")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return usagef("ls takes exactly one FILE")
	}

	ctx := context.Background()
	file, err := openFromFlags(ctx, &common, flagSet.Arg(0), logger)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, item := range file.Items() {
		if verbose {
			fmt.Fprintln(stdout, item.Info())
		} else {
			fmt.Fprintln(stdout, item.Name())
		}
	}
	return nil
}

func streamersCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	var (
		common commonFlags
		format string
	)
	flagSet := newFlagSet("streamers", `rootscan streamers - Show the streamer catalogue of a file

USAGE
    rootscan streamers [flags] FILE
`)
	common.add(flagSet)
	flagSet.StringVar(&format, "format", "text", "output format: text, json or cbor")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return usagef("streamers takes exactly one FILE")
	}
	switch format {
	case "text", "json", "cbor":
	default:
		return usagef("unknown streamers format %q (want text, json or cbor)", format)
	}

	ctx := context.Background()
	file, err := openFromFlags(ctx, &common, flagSet.Arg(0), logger)
	if err != nil {
		return err
	}
	defer file.Close()

	registry, err := file.Registry(ctx)
	if err != nil {
		return err
	}

	output := bufio.NewWriter(stdout)
	switch format {
	case "text":
		for _, info := range registry.Infos() {
			fmt.Fprintln(output, info.String())
		}
	case "json":
		records := make([]codec.StreamerRecord, 0, registry.Len())
		for _, info := range registry.Infos() {
			records = append(records, codec.NewStreamerRecord(info))
		}
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(records); err != nil {
			return fmt.Errorf("encoding catalogue: %w", err)
		}
	case "cbor":
		encoder := codec.NewEncoder(output)
		for _, info := range registry.Infos() {
			if err := encoder.Encode(codec.NewStreamerRecord(info)); err != nil {
				return fmt.Errorf("encoding %s: %w", info.Class, err)
			}
		}
	}
	return output.Flush()
}

func treeCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	var common commonFlags
	flagSet := newFlagSet("tree", `rootscan tree - Show the branches of a tree

USAGE
    rootscan tree [flags] FILE TREE
`)
	common.add(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 2 {
		return usagef("tree takes a FILE and a TREE name")
	}

	ctx := context.Background()
	file, err := openFromFlags(ctx, &common, flagSet.Arg(0), logger)
	if err != nil {
		return err
	}
	defer file.Close()

	t, err := file.Tree(ctx, flagSet.Arg(1))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s (%s): %d rows\n\n", t.Name, t.Title, t.Rows)
	writer := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "BRANCH\tCLASS\tCOUNT\tBASKETS")
	for _, branch := range t.Branches {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\n", branch.Name, branch.Class, branch.Rule, len(branch.Baskets))
	}
	return writer.Flush()
}

// openFromFlags loads the configuration and opens one container.
func openFromFlags(ctx context.Context, common *commonFlags, location string, logger *slog.Logger) (*openedFile, error) {
	cfg, err := common.loadConfig()
	if err != nil {
		return nil, err
	}
	options, err := sourceOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	return openContainer(ctx, location, options, logger)
}
