// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// rangeDomainKey separates cache keys from any other BLAKE3 use.
var rangeDomainKey = [32]byte{
	'r', 'o', 'o', 't', 's', 'c', 'a', 'n', '.', 's', 'o', 'u', 'r', 'c', 'e', '.',
	'r', 'a', 'n', 'g', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Cached wraps a Source with a directory of previously fetched ranges.
// Each range is stored in its own file named by the keyed BLAKE3
// digest of (source name, source size, offset, length); a remote file
// that changes length no longer matches its old entries. Entries are written to a
// temporary file and renamed into place, so concurrent processes
// sharing a directory never observe partial entries.
type Cached struct {
	inner  Source
	dir    string
	logger *slog.Logger
}

// NewCached returns a caching wrapper around inner that stores entries
// under dir, creating it if needed.
func NewCached(inner Source, dir string, logger *slog.Logger) (*Cached, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cached{inner: inner, dir: dir, logger: logger}, nil
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Size(ctx context.Context) (int64, error) { return c.inner.Size(ctx) }

func (c *Cached) Fetch(ctx context.Context, offset, length int64) ([]byte, error) {
	size, err := c.inner.Size(ctx)
	if err != nil {
		return nil, err
	}
	path := c.entryPath(size, offset, length)

	if data, err := os.ReadFile(path); err == nil {
		if int64(len(data)) == length {
			return data, nil
		}
		c.logger.Warn("discarding cache entry with wrong length",
			"path", path,
			"want", length,
			"got", len(data),
		)
	}

	data, err := c.inner.Fetch(ctx, offset, length)
	if err != nil {
		return nil, err
	}
	if err := c.store(path, data); err != nil {
		// The fetch succeeded; a cache write failure only costs a
		// refetch next time.
		c.logger.Warn("writing cache entry failed", "path", path, "error", err)
	}
	return data, nil
}

func (c *Cached) store(path string, data []byte) error {
	temp, err := os.CreateTemp(c.dir, ".partial-*")
	if err != nil {
		return err
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return err
	}
	return os.Rename(temp.Name(), path)
}

func (c *Cached) entryPath(size, offset, length int64) string {
	hasher, err := blake3.NewKeyed(rangeDomainKey[:])
	if err != nil {
		panic("source: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(c.inner.Name()))
	var position [24]byte
	binary.BigEndian.PutUint64(position[:8], uint64(size))
	binary.BigEndian.PutUint64(position[8:16], uint64(offset))
	binary.BigEndian.PutUint64(position[16:], uint64(length))
	hasher.Write(position[:])
	return filepath.Join(c.dir, hex.EncodeToString(hasher.Sum(nil)))
}

func (c *Cached) Close() error { return c.inner.Close() }
