// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binparse decodes the primitive building blocks of the
// container's object serialization.
//
// Everything is big-endian. A [Context] holds one uncompressed buffer
// together with the offset basis of that buffer (the key length plus
// [MapOffset]) and the per-call object map used to resolve back
// references. A [Cursor] walks a Context between an absolute position
// and a limit; every read fails with a [*FormatError] wrapping
// io.ErrUnexpectedEOF rather than reading past the limit.
//
// # Framing
//
// Most serialized objects start with a 4-byte byte count (flagged with
// [ByteCountMask]) and a 2-byte class version. [Cursor.ReadVersion]
// decodes that header, [Framed] runs a parser restricted to exactly
// the counted bytes and then moves the parent cursor to the end of the
// frame regardless of how much the parser consumed. Underrun is
// tolerated (unknown trailing members are skipped); overrun cannot
// happen because the inner cursor is limited.
//
// # Object pointers
//
// [ReadObjectAny] implements the pointer encoding: a null tag, a new
// class tag followed by the class name, a reference to a previously
// named class, or a reference to a previously decoded object. Tags are
// buffer positions shifted by the Context basis.
//
// # Truncated floats
//
// [DecodeTruncatedFloat] decodes the reduced-precision float encoding
// (8-bit exponent, 16-bit mantissa word) used for range-less
// Double32_t and Float16_t members.
package binparse
