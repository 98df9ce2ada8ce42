// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootfile

import (
	"github.com/bureau-foundation/rootscan/lib/binparse"
)

// Magic is the first four bytes of every container file.
const Magic = "root"

// largeFileVersion is the format version above which file-header seek
// pointers are 64-bit.
const largeFileVersion = 1000000

// largeDirectoryVersion is the directory version above which directory
// seek pointers are 64-bit.
const largeDirectoryVersion = 1000

// headerFetchSize covers the largest fixed header.
const headerFetchSize = 100

// directoryFetchSize covers the largest directory record, UUID
// included.
const directoryFetchSize = 80

// Header is the fixed header at the start of a container file.
type Header struct {
	Version    int32
	Begin      int64
	End        int64
	SeekFree   int64
	NbytesFree int32
	NFree      int32
	NbytesName int32
	Units      uint8
	Compress   int32
	SeekInfo   int64
	NbytesInfo int32
}

// Large reports whether the file uses 64-bit seek pointers.
func (h Header) Large() bool { return h.Version > largeFileVersion }

// Directory is the top directory record.
type Directory struct {
	Version    int16
	CTime      uint32
	MTime      uint32
	NbytesKeys int32
	NbytesName int32
	SeekDir    int64
	SeekParent int64
	SeekKeys   int64
}

func readHeader(c *binparse.Cursor, size int64) (Header, error) {
	magic, err := c.Bytes(4)
	if err != nil {
		return Header{}, err
	}
	if string(magic) != Magic {
		return Header{}, binparse.Formatf(0, "bad magic %q, want %q", magic, Magic)
	}

	var h Header
	if h.Version, err = c.I32(); err != nil {
		return Header{}, err
	}
	begin, err := c.I32()
	if err != nil {
		return Header{}, err
	}
	h.Begin = int64(begin)

	seek := func() (int64, error) {
		if h.Large() {
			return c.I64()
		}
		value, err := c.I32()
		return int64(value), err
	}

	if h.End, err = seek(); err != nil {
		return Header{}, err
	}
	if h.SeekFree, err = seek(); err != nil {
		return Header{}, err
	}
	if h.NbytesFree, err = c.I32(); err != nil {
		return Header{}, err
	}
	if h.NFree, err = c.I32(); err != nil {
		return Header{}, err
	}
	if h.NbytesName, err = c.I32(); err != nil {
		return Header{}, err
	}
	if h.Units, err = c.U8(); err != nil {
		return Header{}, err
	}
	if h.Compress, err = c.I32(); err != nil {
		return Header{}, err
	}
	if h.SeekInfo, err = seek(); err != nil {
		return Header{}, err
	}
	if h.NbytesInfo, err = c.I32(); err != nil {
		return Header{}, err
	}

	switch {
	case h.Begin < int64(c.Pos()):
		return Header{}, binparse.Formatf(8, "first record at %d overlaps the %d-byte file header", h.Begin, c.Pos())
	case h.End < h.Begin:
		return Header{}, binparse.Formatf(8, "file end %d before first record %d", h.End, h.Begin)
	case h.End > size:
		return Header{}, binparse.Formatf(8, "file end %d beyond source size %d", h.End, size)
	case h.NbytesName <= 0:
		return Header{}, binparse.Formatf(8, "invalid name record size %d", h.NbytesName)
	case h.SeekInfo < h.Begin || h.NbytesInfo <= 0 || h.SeekInfo+int64(h.NbytesInfo) > h.End:
		return Header{}, binparse.Formatf(8, "streamer catalogue [%d, +%d) outside [%d, %d)",
			h.SeekInfo, h.NbytesInfo, h.Begin, h.End)
	}
	return h, nil
}

func readDirectory(c *binparse.Cursor, end int64) (Directory, error) {
	var d Directory
	var err error
	if d.Version, err = c.I16(); err != nil {
		return Directory{}, err
	}
	if d.CTime, err = c.U32(); err != nil {
		return Directory{}, err
	}
	if d.MTime, err = c.U32(); err != nil {
		return Directory{}, err
	}
	if d.NbytesKeys, err = c.I32(); err != nil {
		return Directory{}, err
	}
	if d.NbytesName, err = c.I32(); err != nil {
		return Directory{}, err
	}

	seek := func() (int64, error) {
		if d.Version > largeDirectoryVersion {
			return c.I64()
		}
		value, err := c.I32()
		return int64(value), err
	}
	if d.SeekDir, err = seek(); err != nil {
		return Directory{}, err
	}
	if d.SeekParent, err = seek(); err != nil {
		return Directory{}, err
	}
	if d.SeekKeys, err = seek(); err != nil {
		return Directory{}, err
	}

	if d.NbytesKeys <= 0 || d.SeekKeys <= 0 || d.SeekKeys+int64(d.NbytesKeys) > end {
		return Directory{}, binparse.Formatf(0, "key index [%d, +%d) outside file end %d",
			d.SeekKeys, d.NbytesKeys, end)
	}
	return d, nil
}
