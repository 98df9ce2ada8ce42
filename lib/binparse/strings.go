// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import "bytes"

// TString reads a length-prefixed string: one length byte, or the
// escape byte 255 followed by a 4-byte length.
func (c *Cursor) TString() (string, error) {
	short, err := c.U8()
	if err != nil {
		return "", err
	}
	length := int(short)
	if short == 255 {
		start := c.pos
		long, err := c.I32()
		if err != nil {
			return "", err
		}
		if long < 0 {
			return "", Formatf(start, "negative string length %d", long)
		}
		length = int(long)
	}
	data, err := c.Bytes(length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CString reads a NUL-terminated string and consumes the terminator.
func (c *Cursor) CString() (string, error) {
	start := c.pos
	end := bytes.IndexByte(c.ctx.Buf[c.pos:c.limit], 0)
	if end < 0 {
		return "", Formatf(start, "unterminated string")
	}
	value := string(c.ctx.Buf[c.pos : c.pos+end])
	c.pos += end + 1
	return value, nil
}

// CharStar reads a char* member: an int32 length followed by that many
// bytes. A zero length is the empty string.
func (c *Cursor) CharStar() (string, error) {
	n, err := c.Count(1)
	if err != nil {
		return "", err
	}
	data, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
