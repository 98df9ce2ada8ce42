// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import "fmt"

// largeKeyVersion is the key version above which seek pointers are
// 64-bit.
const largeKeyVersion = 1000

// KeyHeader is the header stored in front of every record and basket.
type KeyHeader struct {
	// TotalSize is the on-disk size including the header itself.
	TotalSize int32
	Version   int16
	// UncompLen is the uncompressed payload size.
	UncompLen int32
	Datime    uint32
	KeyLen    int16
	Cycle     int16
	SeekKey   int64
	SeekPdir  int64
	ClassName string
	Name      string
	Title     string
}

// Compressed reports whether the payload is stored compressed: its
// uncompressed size exceeds the bytes stored after the header.
func (h KeyHeader) Compressed() bool {
	return int64(h.UncompLen) > int64(h.TotalSize)-int64(h.KeyLen)
}

// PayloadOffset is the file position of the first payload byte.
func (h KeyHeader) PayloadOffset() int64 { return h.SeekKey + int64(h.KeyLen) }

// PayloadSize is the number of payload bytes on disk.
func (h KeyHeader) PayloadSize() int64 { return int64(h.TotalSize) - int64(h.KeyLen) }

// Time decodes Datime into its calendar fields.
func (h KeyHeader) Time() (year, month, day, hour, minute, second int) {
	d := h.Datime
	return int(d>>26) + 1995, int(d>>22) & 0xf, int(d>>17) & 0x1f,
		int(d>>12) & 0x1f, int(d>>6) & 0x3f, int(d) & 0x3f
}

func (h KeyHeader) String() string {
	return fmt.Sprintf("%s;%d (%s) at %d: %d bytes on disk, %d uncompressed",
		h.Name, h.Cycle, h.ClassName, h.SeekKey, h.TotalSize, h.UncompLen)
}

// ReadKeyHeader reads a key header and checks its sizes.
func (c *Cursor) ReadKeyHeader() (KeyHeader, error) {
	start := c.pos
	var h KeyHeader
	var err error
	if h.TotalSize, err = c.I32(); err != nil {
		return KeyHeader{}, err
	}
	if h.Version, err = c.I16(); err != nil {
		return KeyHeader{}, err
	}
	if h.UncompLen, err = c.I32(); err != nil {
		return KeyHeader{}, err
	}
	if h.Datime, err = c.U32(); err != nil {
		return KeyHeader{}, err
	}
	if h.KeyLen, err = c.I16(); err != nil {
		return KeyHeader{}, err
	}
	if h.Cycle, err = c.I16(); err != nil {
		return KeyHeader{}, err
	}
	if h.Version > largeKeyVersion {
		if h.SeekKey, err = c.I64(); err != nil {
			return KeyHeader{}, err
		}
		if h.SeekPdir, err = c.I64(); err != nil {
			return KeyHeader{}, err
		}
	} else {
		var seekKey, seekPdir int32
		if seekKey, err = c.I32(); err != nil {
			return KeyHeader{}, err
		}
		if seekPdir, err = c.I32(); err != nil {
			return KeyHeader{}, err
		}
		h.SeekKey, h.SeekPdir = int64(seekKey), int64(seekPdir)
	}
	if h.ClassName, err = c.TString(); err != nil {
		return KeyHeader{}, err
	}
	if h.Name, err = c.TString(); err != nil {
		return KeyHeader{}, err
	}
	if h.Title, err = c.TString(); err != nil {
		return KeyHeader{}, err
	}

	if h.KeyLen <= 0 || h.TotalSize < int32(h.KeyLen) {
		return KeyHeader{}, Formatf(start, "key %q: total size %d smaller than key length %d", h.Name, h.TotalSize, h.KeyLen)
	}
	if h.UncompLen < 0 {
		return KeyHeader{}, Formatf(start, "key %q: negative uncompressed size %d", h.Name, h.UncompLen)
	}
	return h, nil
}
