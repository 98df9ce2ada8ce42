// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source provides random-access byte providers for container
// files.
//
// A [Source] serves arbitrary byte ranges of one logical file. The
// container reader never streams a file front to back: it reads the
// fixed header, jumps to the key index, and then fetches individual
// records and baskets on demand. Implementations:
//
//   - [Memory] -- an in-memory byte slice (tests, small files)
//   - [File] -- a local file, memory-mapped where the platform allows
//   - [HTTP] -- a remote file read with HTTP range requests, with
//     bounded retries on an injectable clock
//   - [Tracking] -- wraps any Source and counts fetches and bytes
//   - [Cached] -- wraps any Source with an on-disk range cache keyed by
//     BLAKE3 digests
//
// [Open] picks an implementation from a location string.
//
// Every implementation is safe for concurrent use. Fetch returns a
// slice the caller owns.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Source is a random-access provider of bytes.
type Source interface {
	// Name identifies the source in errors and logs (path or URL).
	Name() string

	// Size returns the total length of the underlying file.
	Size(ctx context.Context) (int64, error)

	// Fetch returns exactly length bytes starting at offset. A range
	// that extends past the end of the file is an error.
	Fetch(ctx context.Context, offset, length int64) ([]byte, error)

	// Close releases resources held by the source.
	Close() error
}

// Error reports a failed read from a Source.
type Error struct {
	Op     string
	Name   string
	Offset int64
	Length int64
	Err    error
}

func (e *Error) Error() string {
	if e.Op == "size" {
		return fmt.Sprintf("source %s: size: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("source %s: %s [%d, %d): %v",
		e.Name, e.Op, e.Offset, e.Offset+e.Length, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsSourceError reports whether err (or any error in its chain) is a
// source read failure.
func IsSourceError(err error) bool {
	var sourceError *Error
	return errors.As(err, &sourceError)
}

// checkRange validates a fetch request against a known file size.
func checkRange(name string, size, offset, length int64) error {
	if offset < 0 || length < 0 {
		return &Error{Op: "fetch", Name: name, Offset: offset, Length: length,
			Err: fmt.Errorf("negative offset or length")}
	}
	if offset+length > size {
		return &Error{Op: "fetch", Name: name, Offset: offset, Length: length,
			Err: fmt.Errorf("range exceeds file size %d: %w", size, io.ErrUnexpectedEOF)}
	}
	return nil
}
