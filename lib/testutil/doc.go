// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil writes small synthetic container files for tests.
//
// The container format is only ever read by rootscan, so tests need a
// way to produce inputs with known contents. [Buffer] is a big-endian
// writer that knows the object framing rules: byte counts, class tags,
// object references and the TObject/TNamed/TObjArray/TList layouts.
// [FileBuilder] lays records out the way a real file does: fixed
// header, name record, top directory, payload records, streamer
// catalogue and key index, with payloads optionally compressed by
// [Compress]. [FileBuilder.AddTree] writes a tree record together with
// its on-disk baskets, and [TreeStreamers] describes the tree, branch
// and leaf classes the tree record is written with.
//
// [EncodeTruncatedFloat] is the writing half of the truncated-mantissa
// float codec.
//
// [RequireReceive] is the timeout safety valve for tests that wait on
// a channel.
//
// Builders panic on misuse (a counter branch that is written after its
// dependents, an in-memory basket ahead of an on-disk one); those are
// bugs in the test, not conditions to handle.
package testutil
