// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd

import (
	"iter"

	"github.com/bureau-foundation/rootscan/lib/trigger"
)

// triggerBits is the number of trigger word bits that carry classes.
const triggerBits = 50

// PrimaryVertex is the reconstructed interaction point.
type PrimaryVertex struct {
	X, Y, Z      float32
	Contributors int32
}

// Event is one assembled event. Track fields are kept as parallel
// columns; Tracks zips them.
type Event struct {
	// Row is the event's row in the tree.
	Row int64

	RunNumber      int32
	TriggerClasses []string
	TriggerWord    uint64

	vertex       [3]float32
	contributors int32
	mask         trigger.Mask

	x          []float32
	parameters []TrackParameters
	alpha      []float32
	flags      []Flags
	itsChi2    []float32
	itsNcls    []int8
	itsMap     []ITSClusters
	tpcChi2    []float32
	tpcNcls    []uint16
	trackCount int
}

// PrimaryVertex returns the vertex, or false when no track contributed
// to it.
func (e *Event) PrimaryVertex() (PrimaryVertex, bool) {
	if e.contributors <= 0 {
		return PrimaryVertex{}, false
	}
	return PrimaryVertex{
		X:            e.vertex[0],
		Y:            e.vertex[1],
		Z:            e.vertex[2],
		Contributors: e.contributors,
	}, true
}

// Multiplicity returns the number of stored tracks. No track quality
// selection is applied.
func (e *Event) Multiplicity() int { return e.trackCount }

// TriggerMask returns the analysis selections the fired trigger
// classes map to.
func (e *Event) TriggerMask() trigger.Mask { return e.mask }

// HasTrigger reports whether every selection in mask fired.
func (e *Event) HasTrigger(mask trigger.Mask) bool { return e.mask.Has(mask) }

// Tracks yields the event's tracks in stored order. Fields whose
// branch was not read are zero.
func (e *Event) Tracks() iter.Seq[Track] {
	return func(yield func(Track) bool) {
		for i := 0; i < e.trackCount; i++ {
			if !yield(e.track(i)) {
				return
			}
		}
	}
}

func (e *Event) track(i int) Track {
	var track Track
	track.X = at(e.x, i)
	track.Parameters = at(e.parameters, i)
	track.Alpha = at(e.alpha, i)
	track.Flags = at(e.flags, i)
	track.ITSChi2 = at(e.itsChi2, i)
	track.ITSClusters = at(e.itsNcls, i)
	track.ITSClusterMap = at(e.itsMap, i)
	track.TPCChi2 = at(e.tpcChi2, i)
	track.TPCClusters = at(e.tpcNcls, i)
	return track
}

func at[T any](values []T, i int) T {
	if i < len(values) {
		return values[i]
	}
	var zero T
	return zero
}

// DecodeTriggerMask maps the fired bits of word to selections. Bit i
// refers to classes[i]; only the first 50 bits are used, and bits
// without a class name contribute nothing.
func DecodeTriggerMask(word uint64, classes []string, run int32, lookup trigger.Lookup) trigger.Mask {
	var mask trigger.Mask
	for i := 0; i < triggerBits && i < len(classes); i++ {
		if word&(1<<i) != 0 {
			mask |= lookup.Lookup(classes[i], run)
		}
	}
	return mask
}
