// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package streamer interprets the schema catalogue embedded in every
// container and decodes objects with it.
//
// The catalogue is a TList of TStreamerInfo records, one per
// (class, class version) pair that was written. Each record lists the
// class's members in streaming order as TStreamerElement subclasses
// carrying a numeric [TypeTag]. The catalogue itself is written with
// the same object serialization it describes, so [ParseCatalogue]
// bootstraps with hand-written layouts for the handful of classes
// involved.
//
// A [Registry] indexes the parsed [Info] records by class and version.
// It is built once per container and is read-only afterwards, so it is
// safe to share between goroutines. Lookups of unknown class/version
// pairs fail with [*UnknownClassError]; there is no fallback to a
// different version.
//
// A [Decoder] turns serialized bytes into generic [*Object] values by
// walking an Info's fields and dispatching on each field's TypeTag.
// Classes whose on-disk layout is produced by a hand-written streamer
// rather than by their Info (TObject, TNamed, TObjArray, TList, the
// TArray family, TObjString, TBasket) are decoded by built-in code;
// TClonesArray, TRefArray and TBits are skipped over using their byte
// counts.
package streamer
