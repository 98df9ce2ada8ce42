// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd

import (
	"math"
	"testing"
)

func TestTrackKinematics(t *testing.T) {
	tests := []struct {
		name   string
		track  Track
		phi    float64
		eta    float64
		pt     float64
		charge int
	}{
		{
			name:   "central positive",
			track:  Track{Parameters: TrackParameters{Signed1Pt: 0.5}},
			phi:    0,
			eta:    0,
			pt:     2,
			charge: 1,
		},
		{
			name:   "forward negative",
			track:  Track{Alpha: 1, Parameters: TrackParameters{Snp: 0.5, Tgl: 1, Signed1Pt: -4}},
			phi:    math.Asin(0.5) + 1,
			eta:    math.Asinh(1),
			pt:     0.25,
			charge: -1,
		},
		{
			name:   "wraps below zero",
			track:  Track{Alpha: -1, Parameters: TrackParameters{Tgl: -1, Signed1Pt: 1}},
			phi:    2*math.Pi - 1,
			eta:    -math.Asinh(1),
			pt:     1,
			charge: 1,
		},
		{
			name:   "wraps above two pi",
			track:  Track{Alpha: 6.5, Parameters: TrackParameters{Signed1Pt: 1}},
			phi:    float64(float32(6.5)) - 2*math.Pi,
			pt:     1,
			charge: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.track.Phi(); !near(got, test.phi) {
				t.Errorf("Phi = %v, want %v", got, test.phi)
			}
			if got := test.track.Eta(); !near(got, test.eta) {
				t.Errorf("Eta = %v, want %v", got, test.eta)
			}
			if got := test.track.Pt(); !near(got, test.pt) {
				t.Errorf("Pt = %v, want %v", got, test.pt)
			}
			if got := test.track.Parameters.Charge(); got != test.charge {
				t.Errorf("Charge = %d, want %d", got, test.charge)
			}
		})
	}

	straight := TrackParameters{}
	if !math.IsInf(straight.Pt(), 1) || straight.Charge() != 0 {
		t.Errorf("straight track pt = %v charge = %d, want +Inf and 0", straight.Pt(), straight.Charge())
	}
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{0, "none"},
		{ITSRefit, "ITSrefit"},
		{ITSRefit | TPCRefit | Time, "ITSrefit|TPCrefit|TIME"},
		{TPCIn | 1<<40, "TPCin|unknown"},
	}
	for _, test := range tests {
		if got := test.flags.String(); got != test.want {
			t.Errorf("Flags(%#x).String() = %q, want %q", uint64(test.flags), got, test.want)
		}
	}
	if !(ITSRefit | TPCRefit).Has(TPCRefit) || ITSRefit.Has(ITSRefit|TPCRefit) {
		t.Error("Flags.Has is not a subset test")
	}
}

func TestITSClusters(t *testing.T) {
	tests := []struct {
		clusters ITSClusters
		layers   int
		want     string
	}{
		{0, 0, "none"},
		{SPDInner | SPDOuter, 2, "SPD1|SPD2"},
		{0x3f, 6, "SPD1|SPD2|SDD1|SDD2|SSD1|SSD2"},
		{SSDOuter | 0x80, 1, "SSD2|unknown"},
	}
	for _, test := range tests {
		if got := test.clusters.Layers(); got != test.layers {
			t.Errorf("ITSClusters(%#x).Layers() = %d, want %d", uint8(test.clusters), got, test.layers)
		}
		if got := test.clusters.String(); got != test.want {
			t.Errorf("ITSClusters(%#x).String() = %q, want %q", uint8(test.clusters), got, test.want)
		}
	}
	if !ITSClusters(0x3f).Has(SPDInner | SSDOuter) {
		t.Error("all layers should include SPD1 and SSD2")
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
