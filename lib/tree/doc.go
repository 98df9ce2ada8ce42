// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tree models a columnar TTree and decodes its branches.
//
// [FromObject] builds a [Tree] from the generically decoded TTree
// record: the row count, the branches flattened depth first, each
// branch's baskets (on-disk baskets plus baskets recovered from the
// record itself) and each branch's [CountRule]. A branch either holds
// a fixed number of values per row, or a per-row number of values
// taken from a counter branch.
//
// Branch data is read through lazy sequences. [FixedSize] yields one
// value per row; [VariableSize] yields counters[row] values per row.
// Both fetch baskets from the [source.Source] only when the previous
// basket is used up, and both fail with a [*binparse.FormatError] when
// the data does not line up with the declared counts: a basket with
// bytes left over, a branch with fewer or more rows than the tree, or
// a variable-size branch that runs out of data. A sequence that fails
// keeps returning the same error; a sequence that is done returns
// io.EOF. Sequences are not safe for concurrent use.
package tree
