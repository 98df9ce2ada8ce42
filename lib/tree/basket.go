// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/rootzip"
)

// BasketHeader is the fixed part of an on-disk basket that follows its
// key header.
type BasketHeader struct {
	Key        binparse.KeyHeader
	Version    int16
	BufferSize int32
	NevBufSize int32
	NevBuf     int32
	Last       int32
	Flag       int8
}

// ReadBasketHeader reads a key header and the basket fields after it.
func ReadBasketHeader(c *binparse.Cursor) (BasketHeader, error) {
	var header BasketHeader
	var err error
	if header.Key, err = c.ReadKeyHeader(); err != nil {
		return header, err
	}
	if header.Version, err = c.I16(); err != nil {
		return header, err
	}
	if header.BufferSize, err = c.I32(); err != nil {
		return header, err
	}
	if header.NevBufSize, err = c.I32(); err != nil {
		return header, err
	}
	if header.NevBufSize < 0 {
		header.NevBufSize = -header.NevBufSize
		if _, err = c.U8(); err != nil {
			return header, err
		}
	}
	if header.NevBuf, err = c.I32(); err != nil {
		return header, err
	}
	if header.Last, err = c.I32(); err != nil {
		return header, err
	}
	if header.Flag, err = c.I8(); err != nil {
		return header, err
	}
	if c.Pos() > int(header.Key.KeyLen) {
		return header, binparse.Formatf(c.Pos(), "basket header runs past key length %d", header.Key.KeyLen)
	}
	if header.NevBuf < 0 {
		return header, binparse.Formatf(c.Pos(), "negative basket entry count %d", header.NevBuf)
	}
	return header, nil
}

// basket is one loaded basket: a cursor over its entry bytes and the
// number of entries they hold.
type basket struct {
	cursor  *binparse.Cursor
	entries int
}

// loadBasket fetches (or unpacks) basket i and positions a cursor on
// its first entry.
func (b *Branch) loadBasket(ctx context.Context, i int) (basket, error) {
	ref := b.Baskets[i]
	if ref.Memory != nil {
		data, err := ref.Memory.Data()
		if err != nil {
			return basket{}, fmt.Errorf("branch %s basket %d: %w", b.Name, i, err)
		}
		parse := binparse.NewContext(b.source, data, int(ref.Memory.Key.KeyLen))
		return basket{cursor: parse.Cursor(), entries: int(ref.Memory.NevBuf)}, nil
	}

	if ref.Bytes <= 0 {
		return basket{}, fmt.Errorf("branch %s basket %d: invalid size %d", b.Name, i, ref.Bytes)
	}
	raw, err := b.source.Fetch(ctx, ref.Seek, int64(ref.Bytes))
	if err != nil {
		return basket{}, fmt.Errorf("fetching branch %s basket %d: %w", b.Name, i, err)
	}

	header, err := ReadBasketHeader(binparse.NewContext(b.source, raw, 0).Cursor())
	if err != nil {
		return basket{}, fmt.Errorf("branch %s basket %d: %w", b.Name, i, err)
	}
	keyLen := int(header.Key.KeyLen)
	if int(header.Key.TotalSize) > len(raw) {
		return basket{}, fmt.Errorf("branch %s basket %d: %w", b.Name, i,
			binparse.Formatf(0, "key declares %d bytes, basket slot holds %d", header.Key.TotalSize, len(raw)))
	}

	payload := raw[keyLen:header.Key.TotalSize]
	data := payload
	if header.Key.Compressed() {
		if data, err = rootzip.Decompress(payload, int(header.Key.UncompLen)); err != nil {
			return basket{}, fmt.Errorf("branch %s basket %d: %w", b.Name, i, err)
		}
	}

	useful := int(header.Last) - keyLen
	if useful < 0 || useful > len(data) {
		return basket{}, fmt.Errorf("branch %s basket %d: %w", b.Name, i,
			binparse.Formatf(0, "basket last %d outside payload of %d bytes after key length %d", header.Last, len(data), keyLen))
	}
	parse := binparse.NewContext(b.source, data[:useful], keyLen)
	return basket{cursor: parse.Cursor(), entries: int(header.NevBuf)}, nil
}
