// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec defines the records rootscan writes for events and
// streamer catalogues, and the CBOR configuration they are encoded
// with.
//
// Records carry `json` tags only. They are written as JSON lines or as
// a CBOR sequence; fxamacker/cbor v2 reads `json` tags when `cbor`
// tags are absent, so one tag controls field naming and omitempty for
// both formats.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Decoding the same file twice therefore produces identical bytes,
// which lets dumps be compared with cmp or hashed.
//
//	encoder := codec.NewEncoder(out)
//	err := encoder.Encode(codec.NewEventRecord(file, event))
package codec
