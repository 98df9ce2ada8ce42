// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/tree"
	"github.com/bureau-foundation/rootscan/lib/trigger"
)

// column pulls the next row of one branch into an event.
type column struct {
	branch string
	next   func(ctx context.Context, event *Event) error
}

func fixedColumn[T any](branch *tree.Branch, parse binparse.Parser[T], assign func(*Event, T)) column {
	sequence := tree.FixedSize(branch, parse)
	return column{branch: branch.Name, next: func(ctx context.Context, event *Event) error {
		value, err := sequence.Next(ctx)
		if err != nil {
			return err
		}
		assign(event, value)
		return nil
	}}
}

func variableColumn[T any](branch *tree.Branch, parse binparse.Parser[T], counters []int32, assign func(*Event, []T)) column {
	sequence := tree.VariableSize(branch, parse, counters)
	return column{branch: branch.Name, next: func(ctx context.Context, event *Event) error {
		values, err := sequence.Next(ctx)
		if err != nil {
			return err
		}
		assign(event, values)
		return nil
	}}
}

// EventStream yields the events of a tree in row order.
type EventStream struct {
	tree     *tree.Tree
	lookup   trigger.Lookup
	logger   *slog.Logger
	counters []int32
	columns  []column
	row      int64
	err      error
}

// NewEventStream prepares a stream over t. It reads the whole Tracks
// counter branch before returning; every other branch is read as the
// stream advances. A nil lookup uses trigger.DefaultTable and a nil
// logger discards.
func NewEventStream(ctx context.Context, t *tree.Tree, layout Layout, lookup trigger.Lookup, logger *slog.Logger) (*EventStream, error) {
	if lookup == nil {
		lookup = trigger.DefaultTable()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &EventStream{
		tree:   t,
		lookup: lookup,
		logger: logger.With("tree", t.Name),
	}

	var errs []error
	branch := func(name string) *tree.Branch {
		found, err := t.Branch(name)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return found
	}

	if layout.Tracks != "" {
		counter := branch(layout.Tracks)
		if counter == nil {
			return nil, errs[0]
		}
		counts, err := tree.Collect(ctx, tree.FixedSize(counter, binparse.Uint32))
		if err != nil {
			return nil, fmt.Errorf("reading track counts: %w", err)
		}
		s.counters = make([]int32, len(counts))
		for i, count := range counts {
			if count > math.MaxInt32 {
				return nil, binparse.Formatf(0, "row %d of %s: track count %d out of range", i, layout.Tracks, count)
			}
			s.counters[i] = int32(count)
		}
	}

	addFixed := func(name string, build func(*tree.Branch) column) {
		if name == "" {
			return
		}
		if found := branch(name); found != nil {
			s.columns = append(s.columns, build(found))
		}
	}
	addTrack := func(name string, build func(*tree.Branch) column) {
		if layout.Tracks == "" {
			return
		}
		addFixed(name, build)
	}

	addFixed(layout.RunNumber, func(b *tree.Branch) column {
		return fixedColumn(b, binparse.Int32, func(e *Event, v int32) { e.RunNumber = v })
	})
	addFixed(layout.TriggerClasses, func(b *tree.Branch) column {
		return fixedColumn(b, binparse.Names, func(e *Event, v []string) { e.TriggerClasses = v })
	})
	addFixed(layout.TriggerWord, func(b *tree.Branch) column {
		return fixedColumn(b, binparse.Uint64, func(e *Event, v uint64) { e.TriggerWord = v })
	})
	addFixed(layout.VertexPosition, func(b *tree.Branch) column {
		return fixedColumn(b, binparse.Float32s(3), func(e *Event, v []float32) { copy(e.vertex[:], v) })
	})
	addFixed(layout.VertexContributors, func(b *tree.Branch) column {
		return fixedColumn(b, binparse.Int32, func(e *Event, v int32) { e.contributors = v })
	})

	counters := s.counters
	chi2 := binparse.TruncatedFloat(layout.Chi2MantissaBits)
	addTrack(layout.TrackX, func(b *tree.Branch) column {
		return variableColumn(b, binparse.Float32, counters, func(e *Event, v []float32) { e.x = v })
	})
	addTrack(layout.TrackParameters, func(b *tree.Branch) column {
		parse := binparse.Map(binparse.Float32s(5), NewTrackParameters)
		return variableColumn(b, parse, counters, func(e *Event, v []TrackParameters) { e.parameters = v })
	})
	addTrack(layout.TrackAlpha, func(b *tree.Branch) column {
		return variableColumn(b, binparse.Float32, counters, func(e *Event, v []float32) { e.alpha = v })
	})
	addTrack(layout.TrackFlags, func(b *tree.Branch) column {
		parse := binparse.Map(binparse.Uint64, func(v uint64) Flags { return Flags(v) })
		return variableColumn(b, parse, counters, func(e *Event, v []Flags) { e.flags = v })
	})
	addTrack(layout.TrackITSChi2, func(b *tree.Branch) column {
		return variableColumn(b, chi2, counters, func(e *Event, v []float32) { e.itsChi2 = v })
	})
	addTrack(layout.TrackITSClusters, func(b *tree.Branch) column {
		return variableColumn(b, binparse.Int8, counters, func(e *Event, v []int8) { e.itsNcls = v })
	})
	addTrack(layout.TrackITSClusterMap, func(b *tree.Branch) column {
		parse := binparse.Map(binparse.Uint8, func(v uint8) ITSClusters { return ITSClusters(v) })
		return variableColumn(b, parse, counters, func(e *Event, v []ITSClusters) { e.itsMap = v })
	})
	addTrack(layout.TrackTPCClusters, func(b *tree.Branch) column {
		return variableColumn(b, binparse.Uint16, counters, func(e *Event, v []uint16) { e.tpcNcls = v })
	})
	addTrack(layout.TrackTPCChi2, func(b *tree.Branch) column {
		return variableColumn(b, chi2, counters, func(e *Event, v []float32) { e.tpcChi2 = v })
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("resolving event branches: %w", errors.Join(errs...))
	}
	s.logger.Debug("prepared event stream",
		"rows", t.Rows,
		"columns", len(s.columns),
		"tracks", sum(s.counters),
	)
	return s, nil
}

func sum(values []int32) int64 {
	var total int64
	for _, v := range values {
		total += int64(v)
	}
	return total
}

// Rows returns the number of events the stream yields.
func (s *EventStream) Rows() int64 { return s.tree.Rows }

// Next returns the next event, or io.EOF after the last one. Any other
// error ends the stream; events already returned stay valid.
func (s *EventStream) Next(ctx context.Context) (*Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.row == s.tree.Rows {
		if err := s.finish(ctx); err != nil {
			return nil, s.fail(err)
		}
		s.err = io.EOF
		return nil, io.EOF
	}

	event := &Event{Row: s.row}
	if s.counters != nil {
		event.trackCount = int(s.counters[s.row])
	}
	for _, c := range s.columns {
		if err := c.next(ctx, event); err != nil {
			if errors.Is(err, io.EOF) {
				err = binparse.Formatf(0, "branch %s ended after %d of %d rows", c.branch, s.row, s.tree.Rows)
			}
			return nil, s.fail(fmt.Errorf("event %d: %w", s.row, err))
		}
	}
	event.mask = DecodeTriggerMask(event.TriggerWord, event.TriggerClasses, event.RunNumber, s.lookup)
	s.row++
	return event, nil
}

// finish checks that no branch holds data past the last row.
func (s *EventStream) finish(ctx context.Context) error {
	var scratch Event
	for _, c := range s.columns {
		err := c.next(ctx, &scratch)
		if err == nil {
			return binparse.Formatf(0, "branch %s holds more than %d rows", c.branch, s.tree.Rows)
		}
		if !errors.Is(err, io.EOF) {
			return err
		}
	}
	s.logger.Debug("event stream finished", "rows", s.row)
	return nil
}

func (s *EventStream) fail(err error) error {
	s.err = err
	return err
}

// Collect drains s.
func Collect(ctx context.Context, s *EventStream) ([]*Event, error) {
	var events []*Event
	for {
		event, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}
