// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package esd_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/esd"
	"github.com/bureau-foundation/rootscan/lib/rootfile"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/testutil"
	"github.com/bureau-foundation/rootscan/lib/tree"
	"github.com/bureau-foundation/rootscan/lib/trigger"
)

func encode[T any](values []T, write func(b *testutil.Buffer, v T)) []byte {
	return testutil.Encode(func(b *testutil.Buffer) {
		for _, v := range values {
			write(b, v)
		}
	})
}

func basket(rows int, data []byte) []testutil.Basket {
	return []testutil.Basket{{Entries: rows, Data: data}}
}

func trackBranch(name, leaf string, data []byte) testutil.Branch {
	return testutil.Branch{
		Name:    name,
		Leaf:    leaf,
		Element: true,
		Counter: "Tracks",
		Baskets: basket(3, data),
	}
}

// esdTree holds the sample events: event 0 has no tracks and no
// vertex, event 1 has two tracks and event 2 has one.
func esdTree(f *testutil.FileBuilder) testutil.Tree {
	return f.ESDTree("esdTree", testutil.SampleESDEvents())
}

func openTree(t *testing.T, build func(f *testutil.FileBuilder) testutil.Tree) *tree.Tree {
	t.Helper()
	f := testutil.NewFile(testutil.FileOptions{})
	f.Streamers(testutil.TreeStreamers()...)
	fixture := build(f)
	f.AddTree(fixture)

	ctx := context.Background()
	container, err := rootfile.Open(ctx, source.NewMemory("esd.root", f.Bytes()), rootfile.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	decoded, err := container.Tree(ctx, fixture.Name)
	if err != nil {
		t.Fatalf("Tree(%s) failed: %v", fixture.Name, err)
	}
	return decoded
}

// classLookup maps class A to minimum bias and C to high multiplicity
// for every run.
var classLookup = trigger.LookupFunc(func(class string, _ int32) trigger.Mask {
	switch class {
	case "A":
		return trigger.MinimumBias
	case "C":
		return trigger.HighMult
	}
	return 0
})

func collect(t *testing.T, decoded *tree.Tree, layout esd.Layout) []*esd.Event {
	t.Helper()
	ctx := context.Background()
	stream, err := esd.NewEventStream(ctx, decoded, layout, classLookup, nil)
	if err != nil {
		t.Fatalf("NewEventStream failed: %v", err)
	}
	events, err := esd.Collect(ctx, stream)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return events
}

func TestEventStream(t *testing.T) {
	events := collect(t, openTree(t, esdTree), esd.DefaultLayout())
	if len(events) != 3 {
		t.Fatalf("stream yielded %d events, want 3", len(events))
	}

	for i, event := range events {
		if event.Row != int64(i) {
			t.Errorf("event %d has row %d", i, event.Row)
		}
		if event.RunNumber != 137161 {
			t.Errorf("event %d run = %d, want 137161", i, event.RunNumber)
		}
		if !slices.Equal(event.TriggerClasses, []string{"A", "B", "C"}) {
			t.Errorf("event %d classes = %q, want [A B C]", i, event.TriggerClasses)
		}
	}

	wantMultiplicity := []int{0, 2, 1}
	wantMask := []trigger.Mask{trigger.MinimumBias | trigger.HighMult, 0, 0}
	for i, event := range events {
		if got := event.Multiplicity(); got != wantMultiplicity[i] {
			t.Errorf("event %d multiplicity = %d, want %d", i, got, wantMultiplicity[i])
		}
		if got := event.TriggerMask(); got != wantMask[i] {
			t.Errorf("event %d trigger mask = %s, want %s", i, got, wantMask[i])
		}
	}
	if !events[0].HasTrigger(trigger.MinimumBias) || !events[0].HasTrigger(trigger.HighMult) {
		t.Error("event 0 should carry both selections")
	}
	if events[1].HasTrigger(trigger.MinimumBias) {
		t.Error("event 1 fired only class B and should carry no selection")
	}

	if _, ok := events[0].PrimaryVertex(); ok {
		t.Error("event 0 has no contributors and should have no vertex")
	}
	vertex, ok := events[1].PrimaryVertex()
	if !ok {
		t.Fatal("event 1 should have a vertex")
	}
	if vertex != (esd.PrimaryVertex{X: 0.1, Y: -0.2, Z: 3.5, Contributors: 12}) {
		t.Errorf("event 1 vertex = %+v", vertex)
	}

	var x []float32
	for _, event := range events {
		for track := range event.Tracks() {
			x = append(x, track.X)
		}
	}
	if !slices.Equal(x, []float32{1, 2, 3}) {
		t.Errorf("track x = %v, want [1 2 3]", x)
	}

	tracks := slices.Collect(events[1].Tracks())
	want := esd.Track{
		X:             1,
		Parameters:    esd.TrackParameters{Y: 0.1, Z: 0.2, Signed1Pt: 0.5},
		Alpha:         0,
		Flags:         esd.ITSRefit | esd.TPCRefit,
		ITSChi2:       1.5,
		ITSClusters:   6,
		ITSClusterMap: 0x3f,
		TPCChi2:       4,
		TPCClusters:   120,
	}
	if tracks[0] != want {
		t.Errorf("first track = %+v, want %+v", tracks[0], want)
	}
	if tracks[1].Parameters.Signed1Pt != -2 || tracks[1].Flags != esd.TPCIn || tracks[1].ITSClusterMap != esd.SPDInner|esd.SPDOuter {
		t.Errorf("second track = %+v", tracks[1])
	}
	if got := tracks[0].Pt(); got != 2 {
		t.Errorf("first track pt = %v, want 2", got)
	}
	if got := tracks[1].Pt(); got != 0.5 {
		t.Errorf("second track pt = %v, want 0.5", got)
	}
}

func TestEventStreamPartialLayout(t *testing.T) {
	layout := esd.Layout{
		RunNumber: "AliESDRun.fRunNumber",
		Tracks:    "Tracks",
		TrackX:    "Tracks.fX",
	}
	events := collect(t, openTree(t, esdTree), layout)
	if len(events) != 3 {
		t.Fatalf("stream yielded %d events, want 3", len(events))
	}
	tracks := slices.Collect(events[2].Tracks())
	if len(tracks) != 1 || tracks[0].X != 3 || tracks[0].Flags != 0 || tracks[0].TPCClusters != 0 {
		t.Errorf("event 2 tracks = %+v, want one track with x 3 and zero other fields", tracks)
	}
	if events[2].TriggerMask() != 0 || events[2].TriggerClasses != nil {
		t.Errorf("event 2 trigger data should be empty when not read")
	}
}

func TestEventStreamWithoutTracks(t *testing.T) {
	layout := esd.Layout{VertexContributors: "PrimaryVertex.AliVertex.fNContributors"}
	events := collect(t, openTree(t, esdTree), layout)
	for i, event := range events {
		if event.Multiplicity() != 0 {
			t.Errorf("event %d multiplicity = %d without a track counter", i, event.Multiplicity())
		}
	}
}

func TestEventStreamMissingBranch(t *testing.T) {
	layout := esd.DefaultLayout()
	layout.TrackAlpha = "Tracks.fBeta"
	layout.RunNumber = "AliESDRun.fRun"
	_, err := esd.NewEventStream(context.Background(), openTree(t, esdTree), layout, nil, nil)
	if !errors.Is(err, tree.ErrBranchNotFound) {
		t.Fatalf("NewEventStream error = %v, want ErrBranchNotFound", err)
	}
}

// shortTree has a run number branch holding two of its three rows.
func shortTree(_ *testutil.FileBuilder) testutil.Tree {
	return testutil.Tree{
		Name: "esdTree",
		Rows: 3,
		Branches: []testutil.Branch{
			{
				Name:    "AliESDRun.fRunNumber",
				Baskets: basket(2, encode([]int32{1, 1}, (*testutil.Buffer).I32)),
			},
			{
				Name:    "Tracks",
				Leaf:    "TLeafElement",
				Element: true,
				Baskets: basket(3, encode([]uint32{0, 2, 1}, (*testutil.Buffer).U32)),
				Branches: []testutil.Branch{
					trackBranch("Tracks.fX", "TLeafElement", encode([]float32{1, 2, 3}, (*testutil.Buffer).F32)),
				},
			},
		},
	}
}

func TestEventStreamShortBranch(t *testing.T) {
	ctx := context.Background()
	layout := esd.Layout{RunNumber: "AliESDRun.fRunNumber", Tracks: "Tracks", TrackX: "Tracks.fX"}
	stream, err := esd.NewEventStream(ctx, openTree(t, shortTree), layout, nil, nil)
	if err != nil {
		t.Fatalf("NewEventStream failed: %v", err)
	}
	for i := range 2 {
		if _, err := stream.Next(ctx); err != nil {
			t.Fatalf("event %d failed: %v", i, err)
		}
	}
	_, err = stream.Next(ctx)
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("third event error = %v, want a format error", err)
	}
	if !binparse.IsFormatError(err) {
		t.Errorf("third event error = %v, want a format error", err)
	}
	if _, again := stream.Next(ctx); again == nil || again.Error() != err.Error() {
		t.Errorf("error after failure = %v, want the same error", again)
	}
}

func TestEventStreamExtraTrackData(t *testing.T) {
	floats := func(values ...float32) []byte { return encode(values, (*testutil.Buffer).F32) }
	tests := []struct {
		name    string
		baskets []testutil.Basket
	}{
		{
			name:    "value left in the last basket",
			baskets: basket(3, floats(1, 2, 3, 4)),
		},
		{
			name: "unread trailing basket",
			baskets: []testutil.Basket{
				{Entries: 3, Data: floats(1, 2, 3)},
				{Entries: 1, Data: floats(4, 5)},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			build := func(f *testutil.FileBuilder) testutil.Tree {
				fixture := shortTree(f)
				fixture.Branches = fixture.Branches[1:]
				fixture.Branches[0].Branches[0].Baskets = test.baskets
				return fixture
			}
			ctx := context.Background()
			stream, err := esd.NewEventStream(ctx, openTree(t, build), esd.Layout{Tracks: "Tracks", TrackX: "Tracks.fX"}, nil, nil)
			if err != nil {
				t.Fatalf("NewEventStream failed: %v", err)
			}
			events, err := esd.Collect(ctx, stream)
			if !binparse.IsFormatError(err) {
				t.Fatalf("Collect error = %v, want a format error for data past the last row", err)
			}
			if len(events) != 3 {
				t.Errorf("Collect returned %d events before failing, want 3", len(events))
			}
		})
	}
}

func TestDecodeTriggerMask(t *testing.T) {
	classes := make([]string, 64)
	for i := range classes {
		classes[i] = "A"
	}
	tests := []struct {
		name    string
		word    uint64
		classes []string
		want    trigger.Mask
	}{
		{"none fired", 0, []string{"A", "B", "C"}, 0},
		{"first and third", 0b101, []string{"A", "B", "C"}, trigger.MinimumBias | trigger.HighMult},
		{"unmapped class", 0b010, []string{"A", "B", "C"}, 0},
		{"bit without class", 0b1000, []string{"A", "B", "C"}, 0},
		{"bit 49 counts", 1 << 49, classes, trigger.MinimumBias},
		{"bit 50 ignored", 1 << 50, classes, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := esd.DecodeTriggerMask(test.word, test.classes, 1, classLookup)
			if got != test.want {
				t.Errorf("DecodeTriggerMask = %s, want %s", got, test.want)
			}
		})
	}
}

func TestDecodeTriggerMaskDefaultTable(t *testing.T) {
	classes := []string{"CMBAC-B-NOPF-ALL", "C0SMH-B-NOPF-ALL"}
	table := trigger.DefaultTable()
	if got := esd.DecodeTriggerMask(0b11, classes, 137161, table); got != trigger.MinimumBias|trigger.HighMult {
		t.Errorf("LHC10h mask = %s, want minimum_bias|high_mult", got)
	}
	if got := esd.DecodeTriggerMask(0b11, classes, 200000, table); got != 0 {
		t.Errorf("mask outside LHC10h = %s, want none", got)
	}
}
