// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

// Parser decodes one value from a cursor.
type Parser[T any] func(c *Cursor) (T, error)

// Primitive parsers.
var (
	Uint8   Parser[uint8]    = (*Cursor).U8
	Int8    Parser[int8]     = (*Cursor).I8
	Uint16  Parser[uint16]   = (*Cursor).U16
	Int16   Parser[int16]    = (*Cursor).I16
	Uint32  Parser[uint32]   = (*Cursor).U32
	Int32   Parser[int32]    = (*Cursor).I32
	Uint64  Parser[uint64]   = (*Cursor).U64
	Int64   Parser[int64]    = (*Cursor).I64
	Float32 Parser[float32]  = (*Cursor).F32
	Float64 Parser[float64]  = (*Cursor).F64
	Boolean Parser[bool]     = (*Cursor).Bool
	String  Parser[string]   = (*Cursor).TString
	Names   Parser[[]string] = NameList
)

// Array returns a parser for n consecutive values.
func Array[T any](n int, p Parser[T]) Parser[[]T] {
	return func(c *Cursor) ([]T, error) {
		out := make([]T, n)
		for i := range out {
			value, err := p(c)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	}
}

// Float32s returns a parser for n consecutive float32 values.
func Float32s(n int) Parser[[]float32] { return Array(n, Float32) }

// Float64s returns a parser for n consecutive float64 values.
func Float64s(n int) Parser[[]float64] { return Array(n, Float64) }

// Map returns a parser that applies convert to the result of p.
func Map[T, U any](p Parser[T], convert func(T) U) Parser[U] {
	return func(c *Cursor) (U, error) {
		value, err := p(c)
		if err != nil {
			var zero U
			return zero, err
		}
		return convert(value), nil
	}
}

// Parse runs p over the whole of buf and fails if bytes remain.
func Parse[T any](ctx *Context, p Parser[T]) (T, error) {
	c := ctx.Cursor()
	value, err := p(c)
	if err != nil {
		var zero T
		return zero, err
	}
	if c.Remaining() != 0 {
		var zero T
		return zero, Formatf(c.Pos(), "%d unparsed bytes", c.Remaining())
	}
	return value, nil
}
