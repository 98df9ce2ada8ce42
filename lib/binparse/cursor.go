// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import (
	"encoding/binary"
	"io"
	"math"
)

// Cursor reads big-endian values from a Context buffer between an
// absolute position and a limit.
type Cursor struct {
	ctx   *Context
	pos   int
	limit int
}

// Context returns the context the cursor reads from.
func (c *Cursor) Context() *Context { return c.ctx }

// Pos returns the absolute position of the next byte.
func (c *Cursor) Pos() int { return c.pos }

// Limit returns the position at which reads stop.
func (c *Cursor) Limit() int { return c.limit }

// Remaining returns the number of bytes before the limit.
func (c *Cursor) Remaining() int { return c.limit - c.pos }

// Sub returns a cursor starting at the current position and limited to
// end. The parent is not advanced.
func (c *Cursor) Sub(end int) (*Cursor, error) {
	if end < c.pos || end > c.limit {
		return nil, Formatf(c.pos, "frame ending at %d outside [%d, %d]: %w", end, c.pos, c.limit, io.ErrUnexpectedEOF)
	}
	return &Cursor{ctx: c.ctx, pos: c.pos, limit: end}, nil
}

// Seek moves the cursor to the absolute position pos.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > c.limit {
		return Formatf(c.pos, "seek to %d outside [0, %d]", pos, c.limit)
	}
	c.pos = pos
	return nil
}

// Skip advances n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

func (c *Cursor) need(n int) error {
	if n < 0 {
		return Formatf(c.pos, "negative length %d", n)
	}
	if c.limit-c.pos < n {
		return Formatf(c.pos, "need %d bytes, %d remain: %w", n, c.limit-c.pos, io.ErrUnexpectedEOF)
	}
	return nil
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := c.ctx.Buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *Cursor) U8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	value := c.ctx.Buf[c.pos]
	c.pos++
	return value, nil
}

func (c *Cursor) I8() (int8, error) {
	value, err := c.U8()
	return int8(value), err
}

func (c *Cursor) Bool() (bool, error) {
	value, err := c.U8()
	return value != 0, err
}

func (c *Cursor) U16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	value := binary.BigEndian.Uint16(c.ctx.Buf[c.pos:])
	c.pos += 2
	return value, nil
}

func (c *Cursor) I16() (int16, error) {
	value, err := c.U16()
	return int16(value), err
}

func (c *Cursor) U32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	value := binary.BigEndian.Uint32(c.ctx.Buf[c.pos:])
	c.pos += 4
	return value, nil
}

func (c *Cursor) I32() (int32, error) {
	value, err := c.U32()
	return int32(value), err
}

func (c *Cursor) U64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	value := binary.BigEndian.Uint64(c.ctx.Buf[c.pos:])
	c.pos += 8
	return value, nil
}

func (c *Cursor) I64() (int64, error) {
	value, err := c.U64()
	return int64(value), err
}

func (c *Cursor) F32() (float32, error) {
	value, err := c.U32()
	return math.Float32frombits(value), err
}

func (c *Cursor) F64() (float64, error) {
	value, err := c.U64()
	return math.Float64frombits(value), err
}

// Count reads an int32 element count and rejects negative values and
// counts that could not fit in the remaining bytes at elementSize
// bytes each.
func (c *Cursor) Count(elementSize int) (int, error) {
	start := c.pos
	n, err := c.I32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, Formatf(start, "negative element count %d", n)
	}
	if elementSize > 0 && int64(n)*int64(elementSize) > int64(c.Remaining()) {
		return 0, Formatf(start, "count %d of %d-byte elements exceeds %d remaining bytes: %w",
			n, elementSize, c.Remaining(), io.ErrUnexpectedEOF)
	}
	return int(n), nil
}
