// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rootfile opens a container file and indexes its top-level
// records.
//
// [Open] reads the fixed file header (magic "root", format version,
// seek pointers that are 32-bit below version 1000000 and 64-bit
// above), the top directory stored right after the file's own name
// record, and the key index the directory points at. Every position is
// checked against the file end recorded in the header and against the
// source size; any violation is a [*binparse.FormatError]. The result
// is a [Container] listing one [FileItem] per key.
//
// File items are cheap handles: they hold the record header and the
// shared source, and fetch, decompress and parse their payload each
// time they are asked to. The streamer catalogue is parsed on first
// use and the resulting [streamer.Registry] is kept by the container
// and shared read-only.
package rootfile
