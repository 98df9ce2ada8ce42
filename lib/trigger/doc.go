// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger maps fired trigger class names to analysis trigger
// masks.
//
// A detector event records which trigger classes fired as a bit word
// plus the list of class names the bits refer to. The names are
// period-specific strings such as "CMBAC-B-NOPF-ALL"; analyses care
// about a handful of physics selections ([MinimumBias], [HighMult]).
// A [Lookup] turns one class name seen in one run into the selections
// it satisfies.
//
// [Table] is the data-driven implementation: run ranges with the class
// names that map to each selection, loadable from YAML so new data
// periods need no code change. [DefaultTable] holds the LHC10h
// Pb-Pb period.
package trigger
