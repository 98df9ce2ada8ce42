// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "math"

// EncodeTruncatedFloat packs value into an exponent byte and a
// mantissa word holding the top nbits mantissa bits, rounded, with the
// sign at bit nbits+1.
func EncodeTruncatedFloat(value float32, nbits int) (uint8, uint16) {
	bits := math.Float32bits(value)
	exponent := uint8((bits << 1) >> 24)
	mantissa := uint16((1<<(nbits+1) - 1) & (bits >> (23 - nbits - 1)))
	mantissa++
	mantissa >>= 1
	if mantissa&(1<<nbits) != 0 {
		mantissa = 1<<nbits - 1
	}
	if value < 0 {
		mantissa |= 1 << (nbits + 1)
	}
	return exponent, mantissa
}
