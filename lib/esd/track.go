// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd

import (
	"math"
	"strings"
)

// Flags is the track status word.
type Flags uint64

// Track status bits.
const (
	ITSIn Flags = 1 << iota
	ITSOut
	ITSRefit
	ITSPID
	TPCIn
	TPCOut
	TPCRefit
	TPCPID
	TRDIn
	TRDOut
	TRDRefit
	TRDPID
	TOFIn
	TOFOut
	TOFRefit
	TOFPID
	HMPIDOut
	HMPIDPID
	EMCALMatch
	TRDBackup
	TOFMismatch
	PHOSMatch
	ITSUpgrade
	SkipFriend
	GlobalMerge
	MultInV0
	MultSec
	Embedded
	ITSPureSA
	TRDStop
	ESDPID
	Time
)

var flagNames = [...]string{
	"ITSin", "ITSout", "ITSrefit", "ITSpid",
	"TPCin", "TPCout", "TPCrefit", "TPCpid",
	"TRDin", "TRDout", "TRDrefit", "TRDpid",
	"TOFin", "TOFout", "TOFrefit", "TOFpid",
	"HMPIDout", "HMPIDpid", "EMCALmatch", "TRDbackup",
	"TOFmismatch", "PHOSmatch", "ITSupg", "SkipFriend",
	"GlobalMerge", "MultInV0", "MultSec", "Embedded",
	"ITSpureSA", "TRDStop", "ESDpid", "TIME",
}

// Has reports whether every bit of other is set.
func (f Flags) Has(other Flags) bool { return f&other == other }

func (f Flags) String() string {
	return bitNames(uint64(f), flagNames[:])
}

// ITSClusters records which of the six ITS layers hold a cluster.
type ITSClusters uint8

// ITS layers, innermost first.
const (
	SPDInner ITSClusters = 1 << iota
	SPDOuter
	SDDInner
	SDDOuter
	SSDInner
	SSDOuter
)

var layerNames = [...]string{"SPD1", "SPD2", "SDD1", "SDD2", "SSD1", "SSD2"}

// Has reports whether every layer in other is set.
func (c ITSClusters) Has(other ITSClusters) bool { return c&other == other }

// Layers returns the number of layers with a cluster.
func (c ITSClusters) Layers() int {
	n := 0
	for v := c & 0x3f; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func (c ITSClusters) String() string {
	return bitNames(uint64(c), layerNames[:])
}

func bitNames(value uint64, names []string) string {
	if value == 0 {
		return "none"
	}
	var parts []string
	for i, name := range names {
		if value&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if value>>len(names) != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// TrackParameters is the five-parameter helix of a track at its
// reference point, in the local frame rotated by the track's alpha.
type TrackParameters struct {
	// Y and Z are the local coordinates in cm.
	Y, Z float32
	// Snp is the sine of the local azimuthal angle.
	Snp float32
	// Tgl is the tangent of the dip angle.
	Tgl float32
	// Signed1Pt is charge over transverse momentum, in 1/(GeV/c).
	Signed1Pt float32
}

// NewTrackParameters builds the parameters from the five stored values
// in order.
func NewTrackParameters(p []float32) TrackParameters {
	return TrackParameters{Y: p[0], Z: p[1], Snp: p[2], Tgl: p[3], Signed1Pt: p[4]}
}

// Theta returns the polar angle.
func (p TrackParameters) Theta() float64 {
	return math.Pi/2 - math.Atan(float64(p.Tgl))
}

// Eta returns the pseudorapidity.
func (p TrackParameters) Eta() float64 {
	return -math.Log(math.Tan(p.Theta() / 2))
}

// Pt returns the transverse momentum in GeV/c. A zero curvature gives
// +Inf.
func (p TrackParameters) Pt() float64 {
	return 1 / math.Abs(float64(p.Signed1Pt))
}

// Charge returns the sign of the curvature: 1, -1, or 0 for a straight
// track.
func (p TrackParameters) Charge() int {
	switch {
	case p.Signed1Pt > 0:
		return 1
	case p.Signed1Pt < 0:
		return -1
	default:
		return 0
	}
}

// Track is one reconstructed track.
type Track struct {
	X             float32
	Parameters    TrackParameters
	Alpha         float32
	Flags         Flags
	ITSChi2       float32
	ITSClusters   int8
	ITSClusterMap ITSClusters
	TPCChi2       float32
	TPCClusters   uint16
}

// Phi returns the global azimuthal angle in [0, 2π).
func (t Track) Phi() float64 {
	phi := math.Asin(float64(t.Parameters.Snp)) + float64(t.Alpha)
	switch {
	case phi < 0:
		phi += 2 * math.Pi
	case phi >= 2*math.Pi:
		phi -= 2 * math.Pi
	}
	return phi
}

// Eta returns the pseudorapidity.
func (t Track) Eta() float64 { return t.Parameters.Eta() }

// Pt returns the transverse momentum in GeV/c.
func (t Track) Pt() float64 { return t.Parameters.Pt() }
