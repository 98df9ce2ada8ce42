// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package esd assembles detector events from the columns of an event
// summary tree.
//
// An event summary tree stores one branch per field: run-level values
// (run number, trigger class names, trigger word), primary vertex
// values, and one variable-length branch per track field whose per-row
// length comes from the Tracks counter branch. [NewEventStream] reads
// the counter branch first, then pulls every other branch in lockstep
// so that element i of each branch lands in event i.
//
// A [Layout] names the branches to read; [DefaultLayout] matches the
// ALICE ESD tree. Fields whose branch name is empty are left at their
// zero value.
//
// Derived views follow the stored data without reinterpretation:
// [Event.PrimaryVertex] is absent when no tracks contributed,
// [Event.Multiplicity] is the raw track count (no quality selection),
// and [Event.TriggerMask] maps the first 50 bits of the trigger word
// through a [trigger.Lookup].
package esd
