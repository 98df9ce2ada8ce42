// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd

// Layout names the branches an EventStream reads. An empty name skips
// the field.
type Layout struct {
	RunNumber          string
	TriggerClasses     string
	TriggerWord        string
	VertexPosition     string
	VertexContributors string

	// Tracks is the counter branch holding the number of tracks per
	// event. When empty, no track branch is read.
	Tracks             string
	TrackX             string
	TrackParameters    string
	TrackAlpha         string
	TrackFlags         string
	TrackITSChi2       string
	TrackITSClusters   string
	TrackITSClusterMap string
	TrackTPCClusters   string
	TrackTPCChi2       string

	// Chi2MantissaBits is the mantissa width of the truncated χ²
	// branches.
	Chi2MantissaBits int
}

// DefaultLayout returns the ALICE ESD tree layout.
func DefaultLayout() Layout {
	return Layout{
		RunNumber:          "AliESDRun.fRunNumber",
		TriggerClasses:     "AliESDRun.fTriggerClasses",
		TriggerWord:        "AliESDHeader.fTriggerMask",
		VertexPosition:     "PrimaryVertex.AliVertex.fPosition[3]",
		VertexContributors: "PrimaryVertex.AliVertex.fNContributors",

		Tracks:             "Tracks",
		TrackX:             "Tracks.fX",
		TrackParameters:    "Tracks.fP[5]",
		TrackAlpha:         "Tracks.fAlpha",
		TrackFlags:         "Tracks.fFlags",
		TrackITSChi2:       "Tracks.fITSchi2",
		TrackITSClusters:   "Tracks.fITSncls",
		TrackITSClusterMap: "Tracks.fITSClusterMap",
		TrackTPCClusters:   "Tracks.fTPCncls",
		TrackTPCChi2:       "Tracks.fTPCchi2",

		Chi2MantissaBits: 8,
	}
}
