// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package columnar

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bureau-foundation/rootscan/lib/esd"
	"github.com/bureau-foundation/rootscan/lib/rootfile"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/testutil"
	"github.com/bureau-foundation/rootscan/lib/trigger"
)

func sampleEvents(t *testing.T) []*esd.Event {
	t.Helper()
	f := testutil.NewFile(testutil.FileOptions{})
	f.Streamers(testutil.TreeStreamers()...)
	f.AddTree(f.ESDTree("esdTree", testutil.SampleESDEvents()))

	ctx := context.Background()
	container, err := rootfile.Open(ctx, source.NewMemory("esd.root", f.Bytes()), rootfile.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	decoded, err := container.Tree(ctx, "esdTree")
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	lookup := trigger.LookupFunc(func(class string, _ int32) trigger.Mask {
		if class == "A" {
			return trigger.MinimumBias
		}
		return 0
	})
	stream, err := esd.NewEventStream(ctx, decoded, esd.DefaultLayout(), lookup, nil)
	if err != nil {
		t.Fatalf("NewEventStream failed: %v", err)
	}
	events, err := esd.Collect(ctx, stream)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return events
}

// checkSample verifies rows of record against the sample events,
// starting at event first.
func checkSample(t *testing.T, record arrow.Record, first int) {
	t.Helper()
	files := record.Column(colFile).(*array.String)
	rows := record.Column(colRow).(*array.Int64)
	masks := record.Column(colTriggerMask).(*array.Uint32)
	vertex := record.Column(colVertex).(*array.Struct)
	multiplicity := record.Column(colMultiplicity).(*array.Int32)
	tracks := record.Column(colTracks).(*array.List)
	xs := tracks.ListValues().(*array.Struct).Field(trackX).(*array.Float32)

	wantMultiplicity := []int32{0, 2, 1}
	wantX := [][]float32{{}, {1, 2}, {3}}
	for i := 0; i < int(record.NumRows()); i++ {
		event := first + i
		if files.Value(i) != "esd.root" {
			t.Errorf("row %d file = %q", i, files.Value(i))
		}
		if rows.Value(i) != int64(event) {
			t.Errorf("row %d source row = %d, want %d", i, rows.Value(i), event)
		}
		if got := multiplicity.Value(i); got != wantMultiplicity[event] {
			t.Errorf("event %d multiplicity = %d, want %d", event, got, wantMultiplicity[event])
		}
		if vertex.IsNull(i) != (event == 0) {
			t.Errorf("event %d vertex null = %v", event, vertex.IsNull(i))
		}
		wantMask := uint32(0)
		if event == 0 {
			wantMask = uint32(trigger.MinimumBias)
		}
		if masks.Value(i) != wantMask {
			t.Errorf("event %d trigger mask = %d, want %d", event, masks.Value(i), wantMask)
		}

		start, end := tracks.ValueOffsets(i)
		var x []float32
		for j := start; j < end; j++ {
			x = append(x, xs.Value(int(j)))
		}
		if len(x) != len(wantX[event]) || (len(x) > 0 && !slices.Equal(x, wantX[event])) {
			t.Errorf("event %d track x = %v, want %v", event, x, wantX[event])
		}
	}
}

func TestBuilder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	builder := NewBuilder(mem)
	defer builder.Release()
	for _, event := range sampleEvents(t) {
		builder.Append("esd.root", event)
	}
	if builder.Len() != 3 {
		t.Fatalf("builder holds %d rows, want 3", builder.Len())
	}

	record := builder.NewRecord()
	defer record.Release()
	if builder.Len() != 0 {
		t.Errorf("builder holds %d rows after NewRecord, want 0", builder.Len())
	}
	if !record.Schema().Equal(Schema()) {
		t.Errorf("record schema = %s", record.Schema())
	}
	if record.NumRows() != 3 {
		t.Fatalf("record has %d rows, want 3", record.NumRows())
	}
	checkSample(t, record, 0)

	vertex := record.Column(colVertex).(*array.Struct)
	if z := vertex.Field(2).(*array.Float32).Value(1); z != 3.5 {
		t.Errorf("event 1 vertex z = %v, want 3.5", z)
	}
	classes := record.Column(colTriggerClasses).(*array.List)
	start, end := classes.ValueOffsets(2)
	names := classes.ListValues().(*array.String)
	var got []string
	for j := start; j < end; j++ {
		got = append(got, names.Value(int(j)))
	}
	if !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("event 2 trigger classes = %q", got)
	}

	track := record.Column(colTracks).(*array.List).ListValues().(*array.Struct)
	if pt := track.Field(trackPt).(*array.Float64).Value(0); pt != 2 {
		t.Errorf("first track pt = %v, want 2", pt)
	}
	if flags := track.Field(trackFlags).(*array.Uint64).Value(0); flags != uint64(esd.ITSRefit|esd.TPCRefit) {
		t.Errorf("first track flags = %#x", flags)
	}
}

func TestWriter(t *testing.T) {
	events := sampleEvents(t)
	for _, compression := range []string{"", CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run("compression="+compression, func(t *testing.T) {
			var buffer bytes.Buffer
			writer, err := NewWriter(&buffer, Options{BatchSize: 2, Compression: compression})
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}
			for _, event := range events {
				if err := writer.Write("esd.root", event); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if err := writer.Write("esd.root", events[0]); err == nil {
				t.Error("Write after Close succeeded")
			}

			reader, err := ipc.NewReader(&buffer)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			defer reader.Release()
			if !reader.Schema().Equal(Schema()) {
				t.Errorf("stream schema = %s", reader.Schema())
			}

			var sizes []int64
			first := 0
			for reader.Next() {
				record := reader.Record()
				checkSample(t, record, first)
				sizes = append(sizes, record.NumRows())
				first += int(record.NumRows())
			}
			if err := reader.Err(); err != nil {
				t.Fatalf("reading stream failed: %v", err)
			}
			if !slices.Equal(sizes, []int64{2, 1}) {
				t.Errorf("batch sizes = %v, want [2 1]", sizes)
			}
		})
	}
}

func TestWriterEmpty(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, Options{})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	reader, err := ipc.NewReader(&buffer)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Release()
	if reader.Next() {
		t.Error("empty stream yielded a batch")
	}
}

func TestWriterUnknownCompression(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, Options{Compression: "brotli"}); err == nil {
		t.Fatal("NewWriter accepted compression brotli")
	}
}
