// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package columnar exports decoded events as Apache Arrow record
// batches.
//
// Each event becomes one row. Per-track values are a list of structs
// in the "tracks" column, so a batch keeps the event/track nesting of
// the source tree. [Writer] streams batches in the Arrow IPC stream
// format, optionally with LZ4 or zstd buffer compression.
package columnar
