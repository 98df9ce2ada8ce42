// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bureau-foundation/rootscan/lib/esd"
)

// Builder accumulates events into a record batch. It is not safe for
// concurrent use.
type Builder struct {
	record *array.RecordBuilder
	rows   int

	file         *array.StringBuilder
	row          *array.Int64Builder
	runNumber    *array.Int32Builder
	triggerWord  *array.Uint64Builder
	triggerMask  *array.Uint32Builder
	classes      *array.ListBuilder
	className    *array.StringBuilder
	vertex       *array.StructBuilder
	multiplicity *array.Int32Builder
	tracks       *array.ListBuilder
	track        *array.StructBuilder
}

// NewBuilder returns a builder allocating from mem, or from the
// default allocator when mem is nil.
func NewBuilder(mem memory.Allocator) *Builder {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	record := array.NewRecordBuilder(mem, Schema())
	b := &Builder{
		record:       record,
		file:         record.Field(colFile).(*array.StringBuilder),
		row:          record.Field(colRow).(*array.Int64Builder),
		runNumber:    record.Field(colRunNumber).(*array.Int32Builder),
		triggerWord:  record.Field(colTriggerWord).(*array.Uint64Builder),
		triggerMask:  record.Field(colTriggerMask).(*array.Uint32Builder),
		classes:      record.Field(colTriggerClasses).(*array.ListBuilder),
		vertex:       record.Field(colVertex).(*array.StructBuilder),
		multiplicity: record.Field(colMultiplicity).(*array.Int32Builder),
		tracks:       record.Field(colTracks).(*array.ListBuilder),
	}
	b.className = b.classes.ValueBuilder().(*array.StringBuilder)
	b.track = b.tracks.ValueBuilder().(*array.StructBuilder)
	return b
}

// Len returns the number of events appended since the last NewRecord.
func (b *Builder) Len() int { return b.rows }

// Append adds event, read from file, as one row.
func (b *Builder) Append(file string, event *esd.Event) {
	b.file.Append(file)
	b.row.Append(event.Row)
	b.runNumber.Append(event.RunNumber)
	b.triggerWord.Append(event.TriggerWord)
	b.triggerMask.Append(uint32(event.TriggerMask()))

	b.classes.Append(true)
	for _, name := range event.TriggerClasses {
		b.className.Append(name)
	}

	if vertex, ok := event.PrimaryVertex(); ok {
		b.vertex.Append(true)
		b.vertex.FieldBuilder(0).(*array.Float32Builder).Append(vertex.X)
		b.vertex.FieldBuilder(1).(*array.Float32Builder).Append(vertex.Y)
		b.vertex.FieldBuilder(2).(*array.Float32Builder).Append(vertex.Z)
		b.vertex.FieldBuilder(3).(*array.Int32Builder).Append(vertex.Contributors)
	} else {
		b.vertex.AppendNull()
	}

	b.multiplicity.Append(int32(event.Multiplicity()))

	b.tracks.Append(true)
	for track := range event.Tracks() {
		b.appendTrack(track)
	}
	b.rows++
}

func (b *Builder) appendTrack(track esd.Track) {
	f32 := func(i int, v float32) { b.track.FieldBuilder(i).(*array.Float32Builder).Append(v) }
	f64 := func(i int, v float64) { b.track.FieldBuilder(i).(*array.Float64Builder).Append(v) }

	b.track.Append(true)
	f32(trackX, track.X)
	f32(trackY, track.Parameters.Y)
	f32(trackZ, track.Parameters.Z)
	f32(trackSnp, track.Parameters.Snp)
	f32(trackTgl, track.Parameters.Tgl)
	f32(trackSigned1Pt, track.Parameters.Signed1Pt)
	f32(trackAlpha, track.Alpha)
	b.track.FieldBuilder(trackFlags).(*array.Uint64Builder).Append(uint64(track.Flags))
	f32(trackITSChi2, track.ITSChi2)
	b.track.FieldBuilder(trackITSClusters).(*array.Int8Builder).Append(track.ITSClusters)
	b.track.FieldBuilder(trackITSClusterMap).(*array.Uint8Builder).Append(uint8(track.ITSClusterMap))
	f32(trackTPCChi2, track.TPCChi2)
	b.track.FieldBuilder(trackTPCClusters).(*array.Uint16Builder).Append(track.TPCClusters)
	f64(trackPt, track.Pt())
	f64(trackEta, track.Eta())
	f64(trackPhi, track.Phi())
}

// NewRecord returns the appended rows as a record batch and resets the
// builder. The caller releases the record.
func (b *Builder) NewRecord() arrow.Record {
	b.rows = 0
	return b.record.NewRecord()
}

// Release frees the builder's buffers.
func (b *Builder) Release() { b.record.Release() }
