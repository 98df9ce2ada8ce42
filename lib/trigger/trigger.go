// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"fmt"
	"math/bits"
	"strings"
)

// Mask is a set of analysis trigger selections.
type Mask uint32

const (
	// MinimumBias selects minimum-bias interaction triggers.
	MinimumBias Mask = 1 << iota
	// HighMult selects high-multiplicity triggers.
	HighMult
)

var maskNames = []struct {
	mask Mask
	name string
}{
	{MinimumBias, "minimum_bias"},
	{HighMult, "high_mult"},
}

// ParseMask returns the selection with the given name, as written in
// trigger tables.
func ParseMask(name string) (Mask, error) {
	for _, entry := range maskNames {
		if entry.name == name {
			return entry.mask, nil
		}
	}
	return 0, fmt.Errorf("unknown trigger selection %q", name)
}

// Has reports whether every selection in other is set in m.
func (m Mask) Has(other Mask) bool { return m&other == other }

// String lists the selection names joined by "|", or "none".
func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	rest := m
	for _, entry := range maskNames {
		if m&entry.mask != 0 {
			names = append(names, entry.name)
			rest &^= entry.mask
		}
	}
	for rest != 0 {
		bit := Mask(1) << bits.TrailingZeros32(uint32(rest))
		names = append(names, fmt.Sprintf("bit%d", bits.TrailingZeros32(uint32(bit))))
		rest &^= bit
	}
	return strings.Join(names, "|")
}

// Lookup maps a trigger class name fired in a run to the selections it
// belongs to. Unknown names map to zero.
type Lookup interface {
	Lookup(class string, run int32) Mask
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(class string, run int32) Mask

// Lookup calls f.
func (f LookupFunc) Lookup(class string, run int32) Mask { return f(class, run) }
