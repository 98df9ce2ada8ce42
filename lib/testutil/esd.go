// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

// ESDEvent is one event of an ESD fixture tree.
type ESDEvent struct {
	Run          int32
	Classes      []string
	TriggerWord  uint64
	Vertex       [3]float32
	Contributors int32
	Tracks       []ESDTrack
}

// ESDTrack is one track of an ESD fixture event.
type ESDTrack struct {
	X             float32
	P             [5]float32
	Alpha         float32
	Flags         uint64
	ITSChi2       float32
	ITSClusters   int8
	ITSClusterMap uint8
	TPCClusters   uint16
	TPCChi2       float32
}

// ESDTree returns a tree named name in the ESD branch layout holding
// events, each branch in a single on-disk basket. The χ² branches are
// written with 8 mantissa bits.
func (f *FileBuilder) ESDTree(name string, events []ESDEvent) Tree {
	rows := len(events)
	single := func(data []byte) []Basket {
		return []Basket{{Entries: rows, Data: data}}
	}
	perEvent := func(write func(b *Buffer, event ESDEvent)) []Basket {
		return single(Encode(func(b *Buffer) {
			for _, event := range events {
				write(b, event)
			}
		}))
	}
	perTrack := func(branch string, write func(b *Buffer, track ESDTrack)) Branch {
		return Branch{
			Name:    branch,
			Leaf:    "TLeafElement",
			Element: true,
			Counter: "Tracks",
			Baskets: perEvent(func(b *Buffer, event ESDEvent) {
				for _, track := range event.Tracks {
					write(b, track)
				}
			}),
		}
	}

	classes := f.BasketBuffer(name, "AliESDRun.fTriggerClasses")
	for _, event := range events {
		classes.NamedList(event.Classes)
	}

	return Tree{
		Name:  name,
		Title: "Tree with ESD objects",
		Rows:  int64(rows),
		Branches: []Branch{
			{
				Name:    "AliESDRun.fRunNumber",
				Baskets: perEvent(func(b *Buffer, event ESDEvent) { b.I32(event.Run) }),
			},
			{
				Name:    "AliESDRun.fTriggerClasses",
				Leaf:    "TLeafElement",
				Element: true,
				Baskets: single(classes.Bytes()),
			},
			{
				Name:    "AliESDHeader.fTriggerMask",
				Leaf:    "TLeafL",
				Baskets: perEvent(func(b *Buffer, event ESDEvent) { b.U64(event.TriggerWord) }),
			},
			{
				Name: "PrimaryVertex.AliVertex.fPosition[3]",
				Leaf: "TLeafF",
				Len:  3,
				Baskets: perEvent(func(b *Buffer, event ESDEvent) {
					for _, v := range event.Vertex {
						b.F32(v)
					}
				}),
			},
			{
				Name:    "PrimaryVertex.AliVertex.fNContributors",
				Baskets: perEvent(func(b *Buffer, event ESDEvent) { b.I32(event.Contributors) }),
			},
			{
				Name:    "Tracks",
				Leaf:    "TLeafElement",
				Element: true,
				Baskets: perEvent(func(b *Buffer, event ESDEvent) { b.U32(uint32(len(event.Tracks))) }),
				Branches: []Branch{
					perTrack("Tracks.fX", func(b *Buffer, track ESDTrack) { b.F32(track.X) }),
					perTrack("Tracks.fP[5]", func(b *Buffer, track ESDTrack) {
						for _, v := range track.P {
							b.F32(v)
						}
					}),
					perTrack("Tracks.fAlpha", func(b *Buffer, track ESDTrack) { b.F32(track.Alpha) }),
					perTrack("Tracks.fFlags", func(b *Buffer, track ESDTrack) { b.U64(track.Flags) }),
					perTrack("Tracks.fITSchi2", func(b *Buffer, track ESDTrack) { b.TruncatedFloat(track.ITSChi2, 8) }),
					perTrack("Tracks.fITSncls", func(b *Buffer, track ESDTrack) { b.I8(track.ITSClusters) }),
					perTrack("Tracks.fITSClusterMap", func(b *Buffer, track ESDTrack) { b.U8(track.ITSClusterMap) }),
					perTrack("Tracks.fTPCncls", func(b *Buffer, track ESDTrack) { b.U16(track.TPCClusters) }),
					perTrack("Tracks.fTPCchi2", func(b *Buffer, track ESDTrack) { b.TruncatedFloat(track.TPCChi2, 8) }),
				},
			},
		},
	}
}

// SampleESDEvents is a three-event sample: no tracks and no vertex,
// then two tracks, then one. Event 0 fires classes A and C of
// [A B C], event 1 fires B.
func SampleESDEvents() []ESDEvent {
	classes := []string{"A", "B", "C"}
	return []ESDEvent{
		{Run: 137161, Classes: classes, TriggerWord: 0b101},
		{
			Run: 137161, Classes: classes, TriggerWord: 0b010,
			Vertex: [3]float32{0.1, -0.2, 3.5}, Contributors: 12,
			Tracks: []ESDTrack{
				{
					X: 1, P: [5]float32{0.1, 0.2, 0, 0, 0.5},
					Flags:   1<<2 | 1<<6,
					ITSChi2: 1.5, ITSClusters: 6, ITSClusterMap: 0x3f,
					TPCClusters: 120, TPCChi2: 4,
				},
				{
					X: 2, P: [5]float32{0, 0, 0.5, 1, -2}, Alpha: -0.5,
					Flags:   1 << 4,
					ITSChi2: 2, ITSClusters: 2, ITSClusterMap: 0x03,
					TPCClusters: 80, TPCChi2: 3,
				},
			},
		},
		{
			Run: 137161, Classes: classes,
			Vertex: [3]float32{0, 0.05, -1}, Contributors: 4,
			Tracks: []ESDTrack{{X: 3, Alpha: 2, ITSChi2: 0.75, TPCChi2: 1}},
		},
	}
}
