// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rootzip decompresses the block-framed payloads stored in
// container records and baskets.
//
// A compressed payload is a sequence of blocks. Each block starts with
// a 9-byte header:
//
//	offset  size  field
//	0       2     algorithm tag ("ZL", "ZS", "L4", "XZ")
//	2       1     method byte (algorithm specific, ignored)
//	3       3     compressed size, little-endian
//	6       3     uncompressed size, little-endian
//
// followed by the compressed bytes. Large objects are split into
// several blocks because the size fields are 24 bits wide.
// [Decompress] walks the blocks until the caller's declared
// uncompressed total is produced and fails with an [*Error] on any
// mismatch: an unknown tag, a block that inflates to a size other than
// its header claims, a truncated header, bytes left over after the
// total is reached, or blocks that overshoot it.
//
// Supported algorithms:
//
//   - [AlgorithmZlib] -- zlib streams (the legacy default)
//   - [AlgorithmZstd] -- zstd frames
//   - [AlgorithmLZ4] -- an 8-byte big-endian XXH64 checksum of the
//     compressed bytes followed by a raw LZ4 block
//   - [AlgorithmXZ] -- xz streams
package rootzip
