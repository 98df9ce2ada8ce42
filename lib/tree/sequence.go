// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/rootscan/lib/binparse"
)

// Sequence is a lazily produced series of values. Next returns io.EOF
// after the last value.
type Sequence[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Collect drains s.
func Collect[T any](ctx context.Context, s Sequence[T]) ([]T, error) {
	var out []T
	for {
		value, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, value)
	}
}

// FixedSize returns a sequence that parses one value per row of
// branch. parse must consume one whole entry.
func FixedSize[T any](branch *Branch, parse binparse.Parser[T]) Sequence[T] {
	return &fixedSequence[T]{branch: branch, parse: parse}
}

type fixedSequence[T any] struct {
	branch  *Branch
	parse   binparse.Parser[T]
	next    int
	current basket
	row     int64
	err     error
}

func (s *fixedSequence[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.err != nil {
		return zero, s.err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	for s.current.entries == 0 {
		if s.current.cursor != nil && s.current.cursor.Remaining() != 0 {
			return zero, s.fail(binparse.Formatf(s.current.cursor.Pos(),
				"branch %s basket %d: %d bytes left after its last entry",
				s.branch.Name, s.next-1, s.current.cursor.Remaining()))
		}
		if s.next == len(s.branch.Baskets) {
			if s.row != s.branch.Rows {
				return zero, s.fail(binparse.Formatf(0,
					"branch %s holds %d rows, tree declares %d", s.branch.Name, s.row, s.branch.Rows))
			}
			s.err = io.EOF
			return zero, io.EOF
		}
		loaded, err := s.branch.loadBasket(ctx, s.next)
		if err != nil {
			return zero, s.fail(err)
		}
		s.current = loaded
		s.next++
	}

	if s.row >= s.branch.Rows {
		return zero, s.fail(binparse.Formatf(s.current.cursor.Pos(),
			"branch %s holds more than the %d rows the tree declares", s.branch.Name, s.branch.Rows))
	}
	value, err := s.parse(s.current.cursor)
	if err != nil {
		return zero, s.fail(fmt.Errorf("branch %s row %d: %w", s.branch.Name, s.row, err))
	}
	s.current.entries--
	s.row++
	return value, nil
}

func (s *fixedSequence[T]) fail(err error) error {
	s.err = err
	return err
}

// VariableSize returns a sequence that parses counters[row] values for
// each row of branch. Values are read element by element, continuing
// into the next basket when one is used up.
func VariableSize[T any](branch *Branch, parse binparse.Parser[T], counters []int32) Sequence[[]T] {
	return &variableSequence[T]{branch: branch, parse: parse, counters: counters}
}

type variableSequence[T any] struct {
	branch   *Branch
	parse    binparse.Parser[T]
	counters []int32
	next     int
	cursor   *binparse.Cursor
	row      int
	err      error
}

func (s *variableSequence[T]) Next(ctx context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.row == 0 && int64(len(s.counters)) != s.branch.Rows {
		return nil, s.fail(binparse.Formatf(0, "branch %s: %d counters for %d rows",
			s.branch.Name, len(s.counters), s.branch.Rows))
	}

	if s.row == len(s.counters) {
		if s.cursor != nil && s.cursor.Remaining() != 0 {
			return nil, s.fail(binparse.Formatf(s.cursor.Pos(),
				"branch %s: %d bytes left after the last row", s.branch.Name, s.cursor.Remaining()))
		}
		for ; s.next < len(s.branch.Baskets); s.next++ {
			loaded, err := s.branch.loadBasket(ctx, s.next)
			if err != nil {
				return nil, s.fail(err)
			}
			if loaded.entries != 0 || loaded.cursor.Remaining() != 0 {
				return nil, s.fail(binparse.Formatf(0,
					"branch %s: basket %d holds %d entries and %d bytes after the last row",
					s.branch.Name, s.next, loaded.entries, loaded.cursor.Remaining()))
			}
		}
		s.err = io.EOF
		return nil, io.EOF
	}

	count := s.counters[s.row]
	if count < 0 {
		return nil, s.fail(binparse.Formatf(0, "branch %s row %d: negative count %d", s.branch.Name, s.row, count))
	}
	values := make([]T, 0, count)
	for len(values) < int(count) {
		for s.cursor == nil || s.cursor.Remaining() == 0 {
			if s.next == len(s.branch.Baskets) {
				return nil, s.fail(binparse.Formatf(0,
					"branch %s row %d: data exhausted after %d of %d values",
					s.branch.Name, s.row, len(values), count))
			}
			loaded, err := s.branch.loadBasket(ctx, s.next)
			if err != nil {
				return nil, s.fail(err)
			}
			s.cursor = loaded.cursor
			s.next++
		}
		value, err := s.parse(s.cursor)
		if err != nil {
			return nil, s.fail(fmt.Errorf("branch %s row %d: %w", s.branch.Name, s.row, err))
		}
		values = append(values, value)
	}
	s.row++
	return values, nil
}

func (s *variableSequence[T]) fail(err error) error {
	s.err = err
	return err
}
