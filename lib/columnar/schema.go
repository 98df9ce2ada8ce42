// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package columnar

import "github.com/apache/arrow-go/v18/arrow"

// Column indexes of the event schema.
const (
	colFile = iota
	colRow
	colRunNumber
	colTriggerWord
	colTriggerMask
	colTriggerClasses
	colVertex
	colMultiplicity
	colTracks
)

// Field indexes of the track struct.
const (
	trackX = iota
	trackY
	trackZ
	trackSnp
	trackTgl
	trackSigned1Pt
	trackAlpha
	trackFlags
	trackITSChi2
	trackITSClusters
	trackITSClusterMap
	trackTPCChi2
	trackTPCClusters
	trackPt
	trackEta
	trackPhi
)

func vertexType() *arrow.StructType {
	return arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "contributors", Type: arrow.PrimitiveTypes.Int32},
	)
}

func trackType() *arrow.StructType {
	return arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "snp", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "tgl", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "signed_1pt", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "alpha", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "flags", Type: arrow.PrimitiveTypes.Uint64},
		arrow.Field{Name: "its_chi2", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "its_clusters", Type: arrow.PrimitiveTypes.Int8},
		arrow.Field{Name: "its_cluster_map", Type: arrow.PrimitiveTypes.Uint8},
		arrow.Field{Name: "tpc_chi2", Type: arrow.PrimitiveTypes.Float32},
		arrow.Field{Name: "tpc_clusters", Type: arrow.PrimitiveTypes.Uint16},
		arrow.Field{Name: "pt", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "eta", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "phi", Type: arrow.PrimitiveTypes.Float64},
	)
}

// Schema returns the event schema. "vertex" is null for events without
// a primary vertex; "trigger_mask" holds the selection bits of
// trigger.Mask.
func Schema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "file", Type: arrow.BinaryTypes.String},
			{Name: "row", Type: arrow.PrimitiveTypes.Int64},
			{Name: "run_number", Type: arrow.PrimitiveTypes.Int32},
			{Name: "trigger_word", Type: arrow.PrimitiveTypes.Uint64},
			{Name: "trigger_mask", Type: arrow.PrimitiveTypes.Uint32},
			{Name: "trigger_classes", Type: arrow.ListOf(arrow.BinaryTypes.String)},
			{Name: "vertex", Type: vertexType(), Nullable: true},
			{Name: "multiplicity", Type: arrow.PrimitiveTypes.Int32},
			{Name: "tracks", Type: arrow.ListOf(trackType())},
		},
		nil,
	)
}
