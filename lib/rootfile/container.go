// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootfile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/streamer"
	"github.com/bureau-foundation/rootscan/lib/tree"
)

// Options configures Open.
type Options struct {
	// Logger receives debug records about the header, directory and
	// key index. Nil discards them.
	Logger *slog.Logger
}

// Container is an opened container file.
type Container struct {
	src       source.Source
	header    Header
	directory Directory
	items     []*FileItem
	logger    *slog.Logger

	mu       sync.Mutex
	infos    []*streamer.Info
	registry *streamer.Registry
}

// Open reads the header, top directory and key index of the file
// served by src.
func Open(ctx context.Context, src source.Source, options Options) (*Container, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("file", src.Name())

	size, err := src.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src.Name(), err)
	}

	raw, err := src.Fetch(ctx, 0, min(size, headerFetchSize))
	if err != nil {
		return nil, fmt.Errorf("reading file header of %s: %w", src.Name(), err)
	}
	header, err := readHeader(binparse.NewContext(src, raw, 0).Cursor(), size)
	if err != nil {
		return nil, fmt.Errorf("reading file header of %s: %w", src.Name(), err)
	}
	logger.Debug("read file header",
		"version", header.Version,
		"begin", header.Begin,
		"end", header.End,
		"seek_info", header.SeekInfo,
		"nbytes_info", header.NbytesInfo,
		"compress", header.Compress,
	)

	directoryStart := header.Begin + int64(header.NbytesName)
	if directoryStart >= header.End {
		return nil, fmt.Errorf("reading directory of %s: %w", src.Name(),
			binparse.Formatf(0, "directory at %d beyond file end %d", directoryStart, header.End))
	}
	raw, err = src.Fetch(ctx, directoryStart, min(header.End-directoryStart, directoryFetchSize))
	if err != nil {
		return nil, fmt.Errorf("reading directory of %s: %w", src.Name(), err)
	}
	directory, err := readDirectory(binparse.NewContext(src, raw, 0).Cursor(), header.End)
	if err != nil {
		return nil, fmt.Errorf("reading directory of %s: %w", src.Name(), err)
	}
	logger.Debug("read top directory",
		"version", directory.Version,
		"seek_keys", directory.SeekKeys,
		"nbytes_keys", directory.NbytesKeys,
	)

	raw, err = src.Fetch(ctx, directory.SeekKeys, int64(directory.NbytesKeys))
	if err != nil {
		return nil, fmt.Errorf("reading key index of %s: %w", src.Name(), err)
	}
	headers, err := readKeyIndex(binparse.NewContext(src, raw, 0).Cursor(), header.End)
	if err != nil {
		return nil, fmt.Errorf("reading key index of %s: %w", src.Name(), err)
	}

	container := &Container{
		src:       src,
		header:    header,
		directory: directory,
		items:     make([]*FileItem, len(headers)),
		logger:    logger,
	}
	for i, key := range headers {
		container.items[i] = &FileItem{header: key, src: src}
		logger.Debug("indexed record",
			"name", key.Name,
			"class", key.ClassName,
			"cycle", key.Cycle,
			"seek", key.SeekKey,
			"bytes", key.TotalSize,
			"uncompressed", key.UncompLen,
		)
	}
	return container, nil
}

func readKeyIndex(c *binparse.Cursor, end int64) ([]RecordHeader, error) {
	list, err := c.ReadKeyHeader()
	if err != nil {
		return nil, fmt.Errorf("reading index key: %w", err)
	}
	if err := c.Seek(int(list.KeyLen)); err != nil {
		return nil, err
	}
	n, err := c.Count(1)
	if err != nil {
		return nil, err
	}
	headers := make([]RecordHeader, 0, n)
	for i := 0; i < n; i++ {
		start := c.Pos()
		key, err := c.ReadKeyHeader()
		if err != nil {
			return nil, fmt.Errorf("reading key %d: %w", i, err)
		}
		if key.SeekKey <= 0 || key.SeekKey+int64(key.TotalSize) > end {
			return nil, binparse.Formatf(start, "key %q at [%d, +%d) outside file end %d",
				key.Name, key.SeekKey, key.TotalSize, end)
		}
		headers = append(headers, key)
	}
	return headers, nil
}

// Header returns the file header.
func (c *Container) Header() Header { return c.header }

// Directory returns the top directory record.
func (c *Container) Directory() Directory { return c.directory }

// Source returns the source the container reads from.
func (c *Container) Source() source.Source { return c.src }

// Items returns every top-level record in key index order.
func (c *Container) Items() []*FileItem { return c.items }

// Item returns the record named name with the highest cycle.
func (c *Container) Item(name string) (*FileItem, error) {
	var best *FileItem
	for _, item := range c.items {
		if item.header.Name != name {
			continue
		}
		if best == nil || item.header.Cycle > best.header.Cycle {
			best = item
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%s has no record named %q", c.src.Name(), name)
	}
	return best, nil
}

// Streamers parses the streamer catalogue and returns its
// TStreamerInfo entries. The result is cached with the registry.
func (c *Container) Streamers(ctx context.Context) ([]*streamer.Info, error) {
	if _, err := c.Registry(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infos, nil
}

// Registry returns the registry built from the streamer catalogue. It
// is built on first call; a failed build is retried by the next call.
func (c *Container) Registry(ctx context.Context) (*streamer.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry != nil {
		return c.registry, nil
	}

	infos, err := c.readCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	c.infos = infos
	c.registry = streamer.NewRegistry(infos)
	c.logger.Debug("built streamer registry", "infos", len(infos), "classes", len(c.registry.Classes()))
	return c.registry, nil
}

func (c *Container) readCatalogue(ctx context.Context) ([]*streamer.Info, error) {
	raw, err := c.src.Fetch(ctx, c.header.SeekInfo, int64(c.header.NbytesInfo))
	if err != nil {
		return nil, fmt.Errorf("reading streamer catalogue of %s: %w", c.src.Name(), err)
	}
	key, err := binparse.NewContext(c.src, raw, 0).Cursor().ReadKeyHeader()
	if err != nil {
		return nil, fmt.Errorf("reading streamer catalogue key of %s: %w", c.src.Name(), err)
	}
	key.SeekKey = c.header.SeekInfo
	item := &FileItem{header: key, src: c.src}
	infos, err := Parse(ctx, item, streamer.ParseCatalogue)
	if err != nil {
		return nil, fmt.Errorf("parsing streamer catalogue of %s: %w", c.src.Name(), err)
	}
	return infos, nil
}

// Tree decodes the tree record named name.
func (c *Container) Tree(ctx context.Context, name string) (*tree.Tree, error) {
	item, err := c.Item(name)
	if err != nil {
		return nil, err
	}
	registry, err := c.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return item.AsTree(ctx, registry)
}
