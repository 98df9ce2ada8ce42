// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import "math"

// MaxTruncatedBits is the largest mantissa width that leaves room for
// the sign bit in the 16-bit mantissa word.
const MaxTruncatedBits = 14

// DecodeTruncatedFloat rebuilds a float from its truncated encoding:
// exponent is the IEEE-754 biased exponent, mantissa holds the top
// nbits mantissa bits in its low bits and the sign at bit nbits+1.
func DecodeTruncatedFloat(exponent uint8, mantissa uint16, nbits int) float32 {
	bits := uint32(exponent) << 23
	bits |= (uint32(mantissa) & (1<<(nbits+1) - 1)) << (23 - nbits)
	value := math.Float32frombits(bits)
	if uint32(mantissa)&(1<<(nbits+1)) != 0 {
		value = -value
	}
	return value
}

// TruncatedFloat reads a 1-byte exponent and a 2-byte mantissa word and
// decodes them with nbits mantissa bits.
func (c *Cursor) TruncatedFloat(nbits int) (float32, error) {
	if nbits < 1 || nbits > MaxTruncatedBits {
		return 0, Formatf(c.pos, "truncated float width %d outside [1, %d]", nbits, MaxTruncatedBits)
	}
	exponent, err := c.U8()
	if err != nil {
		return 0, err
	}
	mantissa, err := c.U16()
	if err != nil {
		return 0, err
	}
	return DecodeTruncatedFloat(exponent, mantissa, nbits), nil
}

// TruncatedFloat returns a parser for truncated floats of width nbits.
func TruncatedFloat(nbits int) Parser[float32] {
	return func(c *Cursor) (float32, error) { return c.TruncatedFloat(nbits) }
}
