// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/rootscan/lib/esd"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/trigger"
)

// eventBuffer is the number of decoded events queued per file ahead of
// the writer.
const eventBuffer = 256

// errLimitReached stops the pipeline once --limit events are written.
var errLimitReached = errors.New("event limit reached")

// decodeSettings is what every file decoder shares.
type decodeSettings struct {
	tree    string
	lookup  trigger.Lookup
	require trigger.Mask
	options source.Options
	logger  *slog.Logger
}

// decodeJob is one input file and the queue of its decoded events.
type decodeJob struct {
	location string
	events   chan *esd.Event
}

func eventsCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	var (
		common    commonFlags
		treeName  string
		format    string
		output    string
		triggers  string
		selection []string
		jobs      int
		limit     int64
	)
	flagSet := newFlagSet("events", `rootscan events - Decode events to JSON lines, CBOR or Arrow

USAGE
    rootscan events [flags] FILE...

Events are written in input file order. Files are decoded in parallel.
`)
	common.add(flagSet)
	flagSet.StringVar(&treeName, "tree", "", "event tree name (default from config: esdTree)")
	flagSet.StringVar(&format, "format", "", "output format: jsonl, cbor or arrow (default from config: jsonl)")
	flagSet.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flagSet.StringVar(&triggers, "triggers", "", "YAML trigger table replacing the built-in one")
	flagSet.StringSliceVar(&selection, "select", nil, "keep only events firing these selections (minimum_bias, high_mult)")
	flagSet.IntVarP(&jobs, "jobs", "j", 0, "files decoded in parallel (default from config: 4)")
	flagSet.Int64Var(&limit, "limit", 0, "stop after this many events (0: no limit)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		return usagef("events takes at least one FILE")
	}
	if limit < 0 {
		return usagef("--limit must not be negative")
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if treeName != "" {
		cfg.Events.Tree = treeName
	}
	if format != "" {
		cfg.Events.Format = format
	}
	if triggers != "" {
		cfg.Events.TriggerTable = triggers
	}
	if jobs != 0 {
		cfg.Events.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err}
	}

	var require trigger.Mask
	for _, name := range selection {
		mask, err := trigger.ParseMask(name)
		if err != nil {
			return &usageError{err}
		}
		require |= mask
	}

	table := trigger.DefaultTable()
	if cfg.Events.TriggerTable != "" {
		table, err = trigger.LoadTable(cfg.Events.TriggerTable)
		if err != nil {
			return err
		}
	}

	options, err := sourceOptions(cfg, logger)
	if err != nil {
		return err
	}

	out := stdout
	if output != "" && output != "-" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer file.Close()
		out = file
	}

	sink, err := newEventSink(out, cfg, logger)
	if err != nil {
		return err
	}

	settings := decodeSettings{
		tree:    cfg.Events.Tree,
		lookup:  table,
		require: require,
		options: options,
		logger:  logger,
	}
	written, decodeErr := decodeFiles(context.Background(), flagSet.Args(), cfg.Events.Jobs, limit, settings, sink)
	closeErr := sink.Close()
	if decodeErr != nil {
		return decodeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing output: %w", closeErr)
	}
	logger.Debug("events written", "count", written, "files", flagSet.NArg(), "format", cfg.Events.Format)
	return nil
}

// decodeFiles decodes locations with at most jobs files in flight and
// writes their events to sink in input order. It returns the number of
// events written.
func decodeFiles(ctx context.Context, locations []string, jobs int, limit int64, settings decodeSettings, sink eventSink) (int64, error) {
	queue := make([]decodeJob, len(locations))
	for i, location := range locations {
		queue[i] = decodeJob{location: location, events: make(chan *esd.Event, eventBuffer)}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		workers, workerCtx := errgroup.WithContext(groupCtx)
		workers.SetLimit(jobs)
		for _, job := range queue {
			workers.Go(func() error {
				defer close(job.events)
				return decodeFile(workerCtx, job, settings)
			})
		}
		return workers.Wait()
	})

	var written int64
	group.Go(func() error {
		for _, job := range queue {
			for event := range job.events {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				if err := sink.Write(job.location, event); err != nil {
					return fmt.Errorf("writing event %d of %s: %w", event.Row, job.location, err)
				}
				written++
				if limit > 0 && written == limit {
					return errLimitReached
				}
			}
		}
		return nil
	})

	err := group.Wait()
	if errors.Is(err, errLimitReached) {
		err = nil
	}
	return written, err
}

// decodeFile streams the events of one file into job.events.
func decodeFile(ctx context.Context, job decodeJob, settings decodeSettings) error {
	logger := settings.logger.With("file", job.location)

	file, err := openContainer(ctx, job.location, settings.options, logger)
	if err != nil {
		return fmt.Errorf("opening %s: %w", job.location, err)
	}
	defer file.Close()

	t, err := file.Tree(ctx, settings.tree)
	if err != nil {
		return fmt.Errorf("reading tree %s of %s: %w", settings.tree, job.location, err)
	}
	stream, err := esd.NewEventStream(ctx, t, esd.DefaultLayout(), settings.lookup, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", job.location, err)
	}
	logger.Debug("decoding events", "rows", stream.Rows())

	var kept int64
	for {
		event, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			logger.Debug("file decoded", "rows", stream.Rows(), "kept", kept)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", job.location, err)
		}
		if settings.require != 0 && !event.HasTrigger(settings.require) {
			continue
		}
		select {
		case job.events <- event:
			kept++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
