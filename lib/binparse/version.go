// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

// ByteCountMask flags a 4-byte word as a byte count.
const ByteCountMask = 0x40000000

// Header is a decoded object preamble.
type Header struct {
	// Start is the position of the preamble.
	Start int

	// ByteCount is the number of bytes following the count word, or
	// -1 when the preamble carried no byte count.
	ByteCount int

	Version int16
}

// HasByteCount reports whether the frame length is known.
func (h Header) HasByteCount() bool { return h.ByteCount >= 0 }

// End returns the position just past the frame, or -1 without a byte
// count.
func (h Header) End() int {
	if h.ByteCount < 0 {
		return -1
	}
	return h.Start + 4 + h.ByteCount
}

// ReadVersion reads an optional byte count followed by a 2-byte class
// version. When the first word does not carry ByteCountMask the cursor
// rewinds and reads the version alone.
func (c *Cursor) ReadVersion() (Header, error) {
	start := c.pos
	word, err := c.U32()
	if err != nil {
		return Header{}, err
	}
	header := Header{Start: start, ByteCount: -1}
	if word&ByteCountMask != 0 {
		header.ByteCount = int(word &^ ByteCountMask)
		if header.End() > c.limit {
			return Header{}, Formatf(start, "byte count %d runs past limit %d", header.ByteCount, c.limit)
		}
	} else {
		c.pos = start
	}
	header.Version, err = c.I16()
	if err != nil {
		return Header{}, err
	}
	return header, nil
}

// CheckByteCount verifies the cursor against the frame of header. A
// cursor short of the frame end is moved to it; a cursor past the end
// is a FormatError. Headers without a byte count always pass.
func (c *Cursor) CheckByteCount(header Header, class string) error {
	if !header.HasByteCount() {
		return nil
	}
	end := header.End()
	if c.pos > end {
		return Formatf(header.Start, "%s overran its byte count by %d bytes", class, c.pos-end)
	}
	c.pos = end
	return nil
}

// Framed reads an object preamble and runs inner on the framed bytes.
// With a byte count, inner sees a cursor limited to the frame and the
// parent moves to the frame end afterwards; without one, inner reads
// from the parent directly.
func Framed[T any](c *Cursor, inner func(c *Cursor, version int16) (T, error)) (T, error) {
	var zero T
	header, err := c.ReadVersion()
	if err != nil {
		return zero, err
	}
	if !header.HasByteCount() {
		return inner(c, header.Version)
	}
	sub, err := c.Sub(header.End())
	if err != nil {
		return zero, err
	}
	value, err := inner(sub, header.Version)
	if err != nil {
		return zero, err
	}
	c.pos = header.End()
	return value, nil
}

// Frame returns a parser that runs p over exactly the next n bytes and
// then advances past them.
func Frame[T any](n int, p Parser[T]) Parser[T] {
	return func(c *Cursor) (T, error) {
		var zero T
		sub, err := c.Sub(c.pos + n)
		if err != nil {
			return zero, err
		}
		value, err := p(sub)
		if err != nil {
			return zero, err
		}
		c.pos += n
		return value, nil
	}
}
