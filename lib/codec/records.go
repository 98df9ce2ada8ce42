// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"math"

	"github.com/bureau-foundation/rootscan/lib/esd"
	"github.com/bureau-foundation/rootscan/lib/streamer"
)

// EventRecord is the serialized form of one event.
type EventRecord struct {
	File           string        `json:"file"`
	Row            int64         `json:"row"`
	RunNumber      int32         `json:"run_number"`
	TriggerWord    uint64        `json:"trigger_word"`
	TriggerMask    string        `json:"trigger_mask"`
	TriggerClasses []string      `json:"trigger_classes,omitempty"`
	Vertex         *VertexRecord `json:"vertex,omitempty"`
	Multiplicity   int           `json:"multiplicity"`
	Tracks         []TrackRecord `json:"tracks,omitempty"`
}

// VertexRecord is a primary vertex.
type VertexRecord struct {
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Z            float32 `json:"z"`
	Contributors int32   `json:"contributors"`
}

// TrackRecord is one track with its derived kinematics. Pt is omitted
// for straight tracks, whose transverse momentum is infinite.
type TrackRecord struct {
	X             float32    `json:"x"`
	Parameters    [5]float32 `json:"parameters"`
	Alpha         float32    `json:"alpha"`
	Flags         string     `json:"flags"`
	ITSChi2       float32    `json:"its_chi2"`
	ITSClusters   int8       `json:"its_clusters"`
	ITSClusterMap string     `json:"its_cluster_map"`
	TPCChi2       float32    `json:"tpc_chi2"`
	TPCClusters   uint16     `json:"tpc_clusters"`
	Pt            *float64   `json:"pt,omitempty"`
	Eta           float64    `json:"eta"`
	Phi           float64    `json:"phi"`
}

// NewEventRecord converts event, read from file.
func NewEventRecord(file string, event *esd.Event) EventRecord {
	record := EventRecord{
		File:           file,
		Row:            event.Row,
		RunNumber:      event.RunNumber,
		TriggerWord:    event.TriggerWord,
		TriggerMask:    event.TriggerMask().String(),
		TriggerClasses: event.TriggerClasses,
		Multiplicity:   event.Multiplicity(),
	}
	if vertex, ok := event.PrimaryVertex(); ok {
		record.Vertex = &VertexRecord{X: vertex.X, Y: vertex.Y, Z: vertex.Z, Contributors: vertex.Contributors}
	}
	for track := range event.Tracks() {
		record.Tracks = append(record.Tracks, newTrackRecord(track))
	}
	return record
}

func newTrackRecord(track esd.Track) TrackRecord {
	p := track.Parameters
	record := TrackRecord{
		X:             track.X,
		Parameters:    [5]float32{p.Y, p.Z, p.Snp, p.Tgl, p.Signed1Pt},
		Alpha:         track.Alpha,
		Flags:         track.Flags.String(),
		ITSChi2:       track.ITSChi2,
		ITSClusters:   track.ITSClusters,
		ITSClusterMap: track.ITSClusterMap.String(),
		TPCChi2:       track.TPCChi2,
		TPCClusters:   track.TPCClusters,
		Eta:           finite(track.Eta()),
		Phi:           finite(track.Phi()),
	}
	if pt := track.Pt(); !math.IsInf(pt, 0) && !math.IsNaN(pt) {
		record.Pt = &pt
	}
	return record
}

// finite maps NaN and infinities to zero so records stay valid JSON.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// StreamerRecord is the serialized form of one catalogue entry.
type StreamerRecord struct {
	Class    string        `json:"class"`
	Version  int32         `json:"version"`
	Checksum uint32        `json:"checksum"`
	Fields   []FieldRecord `json:"fields"`
}

// FieldRecord is one member of a StreamerRecord.
type FieldRecord struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	TypeName string `json:"type_name"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Count    string `json:"count"`
	Size     int32  `json:"size"`
}

// NewStreamerRecord converts info.
func NewStreamerRecord(info *streamer.Info) StreamerRecord {
	record := StreamerRecord{
		Class:    info.Class,
		Version:  info.Version,
		Checksum: info.Checksum,
		Fields:   make([]FieldRecord, 0, len(info.Fields)),
	}
	for _, field := range info.Fields {
		record.Fields = append(record.Fields, FieldRecord{
			Name:     field.Name,
			Title:    field.Title,
			TypeName: field.TypeName,
			Type:     field.Type.String(),
			Kind:     field.Kind.String(),
			Count:    field.Count.String(),
			Size:     field.Size,
		})
	}
	return record
}
