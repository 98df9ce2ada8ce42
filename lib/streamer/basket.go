// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"

	"github.com/bureau-foundation/rootscan/lib/binparse"
)

// Basket is a TBasket embedded in a branch record. Such baskets were
// still in memory when the tree was written, so their data lives in
// the record rather than at a seek position of their own.
type Basket struct {
	Key        binparse.KeyHeader
	Version    int16
	BufferSize int32
	NevBufSize int32
	NevBuf     int32
	Last       int32
	Flag       int8
	IOBits     uint8

	Offsets       []int32
	Displacements []int32

	// Buffer holds the first Last bytes of the basket buffer, key
	// header region included. It is nil when the basket carried no
	// data.
	Buffer []byte
}

// Data returns the entry bytes: Buffer without the key header region.
func (b *Basket) Data() ([]byte, error) {
	keyLen := int(b.Key.KeyLen)
	if b.Buffer == nil {
		return nil, fmt.Errorf("basket %s has no in-memory buffer", b.Key.Name)
	}
	if keyLen < 0 || keyLen > len(b.Buffer) {
		return nil, fmt.Errorf("basket %s: key length %d outside buffer of %d bytes", b.Key.Name, keyLen, len(b.Buffer))
	}
	return b.Buffer[keyLen:], nil
}

func decodeBasket(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
	key, err := readKeyStreamer(c)
	if err != nil {
		return nil, fmt.Errorf("reading %s key: %w", class, err)
	}
	basket := &Basket{Key: key}

	header, err := c.ReadVersion()
	if err != nil {
		return nil, err
	}
	basket.Version = header.Version
	if basket.BufferSize, err = c.I32(); err != nil {
		return nil, err
	}
	if basket.NevBufSize, err = c.I32(); err != nil {
		return nil, err
	}
	if basket.NevBufSize < 0 {
		basket.NevBufSize = -basket.NevBufSize
		if basket.IOBits, err = c.U8(); err != nil {
			return nil, err
		}
	}
	if basket.NevBuf, err = c.I32(); err != nil {
		return nil, err
	}
	if basket.Last, err = c.I32(); err != nil {
		return nil, err
	}
	if basket.Flag, err = c.I8(); err != nil {
		return nil, err
	}
	if basket.Flag == 0 {
		return basket, nil
	}

	if basket.Flag%10 != 2 {
		if basket.NevBuf > 0 {
			if basket.Offsets, err = readInt32Array(c); err != nil {
				return nil, fmt.Errorf("reading basket entry offsets: %w", err)
			}
		}
		if basket.Flag > 40 {
			if basket.Displacements, err = readInt32Array(c); err != nil {
				return nil, fmt.Errorf("reading basket displacements: %w", err)
			}
		}
	}
	if basket.Flag == 1 || basket.Flag > 10 {
		if basket.Last < int32(key.KeyLen) {
			return nil, binparse.Formatf(c.Pos(), "basket last %d before key length %d", basket.Last, key.KeyLen)
		}
		if basket.Buffer, err = c.Bytes(int(basket.Last)); err != nil {
			return nil, fmt.Errorf("reading basket buffer: %w", err)
		}
	}
	return basket, nil
}

func readInt32Array(c *binparse.Cursor) ([]int32, error) {
	n, err := c.Count(4)
	if err != nil {
		return nil, err
	}
	return readSlice(n, c.I32)
}

// readKeyStreamer reads a key as streamed inside another object, which
// puts the version before the total size.
func readKeyStreamer(c *binparse.Cursor) (binparse.KeyHeader, error) {
	var key binparse.KeyHeader
	var err error
	if key.Version, err = c.I16(); err != nil {
		return key, err
	}
	if key.TotalSize, err = c.I32(); err != nil {
		return key, err
	}
	if key.UncompLen, err = c.I32(); err != nil {
		return key, err
	}
	if key.Datime, err = c.U32(); err != nil {
		return key, err
	}
	if key.KeyLen, err = c.I16(); err != nil {
		return key, err
	}
	if key.Cycle, err = c.I16(); err != nil {
		return key, err
	}
	if key.Version > 1000 {
		if key.SeekKey, err = c.I64(); err != nil {
			return key, err
		}
		if key.SeekPdir, err = c.I64(); err != nil {
			return key, err
		}
	} else {
		var seekKey, seekPdir int32
		if seekKey, err = c.I32(); err != nil {
			return key, err
		}
		if seekPdir, err = c.I32(); err != nil {
			return key, err
		}
		key.SeekKey, key.SeekPdir = int64(seekKey), int64(seekPdir)
	}
	if key.ClassName, err = c.TString(); err != nil {
		return key, err
	}
	if key.Name, err = c.TString(); err != nil {
		return key, err
	}
	if key.Title, err = c.TString(); err != nil {
		return key, err
	}
	return key, nil
}
