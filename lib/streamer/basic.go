// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import "github.com/bureau-foundation/rootscan/lib/binparse"

// encodedSize is the number of bytes one value of tag occupies.
func encodedSize(tag TypeTag, r Range) int {
	switch tag {
	case TypeChar, TypeUChar, TypeBool, TypeLegacyChar:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeUInt, TypeFloat, TypeCounter, TypeBits:
		return 4
	case TypeDouble32:
		if r.Factor == 0 && r.Bits != 0 {
			return 3
		}
		return 4
	case TypeFloat16:
		if r.Factor != 0 {
			return 4
		}
		return 3
	default:
		return 8
	}
}

func readBasic(c *binparse.Cursor, tag TypeTag, r Range) (any, error) {
	switch tag {
	case TypeChar, TypeLegacyChar:
		return c.I8()
	case TypeShort:
		return c.I16()
	case TypeInt, TypeCounter:
		return c.I32()
	case TypeLong, TypeLong64:
		return c.I64()
	case TypeFloat:
		return c.F32()
	case TypeDouble:
		return c.F64()
	case TypeUChar:
		return c.U8()
	case TypeUShort:
		return c.U16()
	case TypeUInt, TypeBits:
		return c.U32()
	case TypeULong, TypeULong64:
		return c.U64()
	case TypeBool:
		return c.Bool()
	case TypeDouble32:
		return readDouble32(c, r)
	case TypeFloat16:
		return readFloat16(c, r)
	default:
		return nil, binparse.Formatf(c.Pos(), "%s is not a basic type", tag)
	}
}

func readDouble32(c *binparse.Cursor, r Range) (float64, error) {
	switch {
	case r.Factor != 0:
		packed, err := c.U32()
		return r.Min + float64(packed)/r.Factor, err
	case r.Bits != 0:
		value, err := c.TruncatedFloat(r.Bits)
		return float64(value), err
	default:
		value, err := c.F32()
		return float64(value), err
	}
}

func readFloat16(c *binparse.Cursor, r Range) (float32, error) {
	if r.Factor != 0 {
		packed, err := c.U32()
		return float32(r.Min + float64(packed)/r.Factor), err
	}
	bits := r.Bits
	if bits == 0 {
		bits = defaultFloat16Bits
	}
	return c.TruncatedFloat(bits)
}

func readSlice[T any](n int, read func() (T, error)) ([]T, error) {
	out := make([]T, n)
	for i := range out {
		value, err := read()
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

func readBasicArray(c *binparse.Cursor, tag TypeTag, r Range, n int) (any, error) {
	if n < 0 || n*encodedSize(tag, r) > c.Remaining() {
		return nil, binparse.Formatf(c.Pos(), "array of %d %s exceeds %d remaining bytes", n, tag, c.Remaining())
	}
	switch tag {
	case TypeChar, TypeLegacyChar:
		return readSlice(n, c.I8)
	case TypeShort:
		return readSlice(n, c.I16)
	case TypeInt, TypeCounter:
		return readSlice(n, c.I32)
	case TypeLong, TypeLong64:
		return readSlice(n, c.I64)
	case TypeFloat:
		return readSlice(n, c.F32)
	case TypeDouble:
		return readSlice(n, c.F64)
	case TypeUChar:
		return readSlice(n, c.U8)
	case TypeUShort:
		return readSlice(n, c.U16)
	case TypeUInt, TypeBits:
		return readSlice(n, c.U32)
	case TypeULong, TypeULong64:
		return readSlice(n, c.U64)
	case TypeBool:
		return readSlice(n, c.Bool)
	case TypeDouble32:
		return readSlice(n, func() (float64, error) { return readDouble32(c, r) })
	case TypeFloat16:
		return readSlice(n, func() (float32, error) { return readFloat16(c, r) })
	default:
		return nil, binparse.Formatf(c.Pos(), "%s is not a basic type", tag)
	}
}
