// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import (
	"math"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/testutil"
)

func TestTruncatedFloatRoundTrip(t *testing.T) {
	tests := []struct {
		value float32
		nbits int
	}{
		{1.5, 8},
		{-2.25, 8},
		{0.75, 3},
		{3.1415927, 14},
		{-1234.5, 10},
		{0, 8},
	}
	for _, test := range tests {
		exponent, mantissa := testutil.EncodeTruncatedFloat(test.value, test.nbits)
		got := DecodeTruncatedFloat(exponent, mantissa, test.nbits)

		// The encoding keeps nbits mantissa bits, so the relative error
		// is at most 2^-nbits.
		tolerance := math.Abs(float64(test.value)) * math.Pow(2, -float64(test.nbits))
		if diff := math.Abs(float64(got - test.value)); diff > tolerance {
			t.Errorf("value %v with %d bits decoded to %v (error %g > %g)", test.value, test.nbits, got, diff, tolerance)
		}
		if (got < 0) != (test.value < 0) {
			t.Errorf("value %v decoded to %v: sign lost", test.value, got)
		}
	}
}

func TestTruncatedFloatExact(t *testing.T) {
	// 1.5 = 2^0 * 1.1b: exponent 127, top mantissa bit set.
	got := DecodeTruncatedFloat(127, 1<<7, 8)
	if got != 1.5 {
		t.Errorf("DecodeTruncatedFloat(127, 0x80, 8) = %v, want 1.5", got)
	}
	negative := DecodeTruncatedFloat(127, 1<<7|1<<9, 8)
	if negative != -1.5 {
		t.Errorf("with sign bit = %v, want -1.5", negative)
	}
}

func TestCursorTruncatedFloat(t *testing.T) {
	b := testutil.NewBuffer(0)
	b.TruncatedFloat(12.5, 8)
	b.TruncatedFloat(-0.5, 8)
	values, err := Parse(NewContext(nil, b.Bytes(), 0), Array(2, TruncatedFloat(8)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if values[0] != 12.5 || values[1] != -0.5 {
		t.Errorf("decoded %v, want [12.5 -0.5]", values)
	}

	for _, nbits := range []int{0, MaxTruncatedBits + 1} {
		if _, err := cursorOver(b.Bytes()).TruncatedFloat(nbits); !IsFormatError(err) {
			t.Errorf("TruncatedFloat(%d) error = %v, want FormatError", nbits, err)
		}
	}
}
