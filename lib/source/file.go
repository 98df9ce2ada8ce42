// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"os"
)

// File serves bytes from a local file. When opened with mapping
// enabled on a supported platform, reads copy out of a read-only
// shared memory map; otherwise they use pread.
type File struct {
	path   string
	file   *os.File
	size   int64
	mapped []byte
}

// OpenFile opens path for reading. If mmap is true and the platform
// supports it, the file is memory-mapped; a mapping failure falls back
// to ordinary reads.
func OpenFile(path string, mmap bool) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Name: path, Err: err}
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, &Error{Op: "open", Name: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, &Error{Op: "open", Name: path, Err: fmt.Errorf("not a regular file")}
	}

	f := &File{path: path, file: file, size: info.Size()}
	if mmap && f.size > 0 {
		if mapped, err := mapFile(file, f.size); err == nil {
			f.mapped = mapped
		}
	}
	return f, nil
}

func (f *File) Name() string { return f.path }

func (f *File) Size(context.Context) (int64, error) { return f.size, nil }

// Mapped reports whether reads are served from a memory map.
func (f *File) Mapped() bool { return f.mapped != nil }

func (f *File) Fetch(ctx context.Context, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "fetch", Name: f.path, Offset: offset, Length: length, Err: err}
	}
	if err := checkRange(f.path, f.size, offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	if f.mapped != nil {
		if err := copyMapped(out, f.mapped, offset); err != nil {
			return nil, &Error{Op: "fetch", Name: f.path, Offset: offset, Length: length, Err: err}
		}
		return out, nil
	}
	if _, err := f.file.ReadAt(out, offset); err != nil {
		return nil, &Error{Op: "fetch", Name: f.path, Offset: offset, Length: length, Err: err}
	}
	return out, nil
}

func (f *File) Close() error {
	var mapErr error
	if f.mapped != nil {
		mapErr = unmapFile(f.mapped)
		f.mapped = nil
	}
	if err := f.file.Close(); err != nil {
		return err
	}
	return mapErr
}
