// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/rootfile"
	"github.com/bureau-foundation/rootscan/lib/rootzip"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/testutil"
	"github.com/bureau-foundation/rootscan/lib/tree"
)

func int32s(values ...int32) []byte {
	return testutil.Encode(func(b *testutil.Buffer) {
		for _, v := range values {
			b.I32(v)
		}
	})
}

func float32s(values ...float32) []byte {
	return testutil.Encode(func(b *testutil.Buffer) {
		for _, v := range values {
			b.F32(v)
		}
	})
}

func openTree(t *testing.T, options testutil.FileOptions, fixture testutil.Tree) *tree.Tree {
	t.Helper()
	f := testutil.NewFile(options)
	f.Streamers(testutil.TreeStreamers()...)
	f.AddTree(fixture)

	ctx := context.Background()
	container, err := rootfile.Open(ctx, source.NewMemory("test.root", f.Bytes()), rootfile.Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	decoded, err := container.Tree(ctx, fixture.Name)
	if err != nil {
		t.Fatalf("Tree(%s) failed: %v", fixture.Name, err)
	}
	return decoded
}

func branch(t *testing.T, decoded *tree.Tree, name string) *tree.Branch {
	t.Helper()
	found, err := decoded.Branch(name)
	if err != nil {
		t.Fatalf("Branch(%s) failed: %v", name, err)
	}
	return found
}

// eventTree has a counter branch spread over two on-disk baskets and
// one in-memory basket, and a counted float branch whose basket
// boundaries do not line up with the counter's.
func eventTree() testutil.Tree {
	return testutil.Tree{
		Name:  "events",
		Title: "event tree",
		Rows:  5,
		Branches: []testutil.Branch{
			{
				Name: "nTracks",
				Baskets: []testutil.Basket{
					{Entries: 2, Data: int32s(3, 1)},
					{Entries: 2, Data: int32s(0, 2)},
					{Entries: 1, Data: int32s(4), InMemory: true},
				},
			},
			{
				Name:    "fX",
				Leaf:    "TLeafF",
				Counter: "nTracks",
				Baskets: []testutil.Basket{
					{Entries: 3, Data: float32s(1, 2, 3, 4), Offsets: []int32{0, 12, 16}},
					{Entries: 2, Data: float32s(5, 6, 7, 8, 9, 10)},
				},
			},
			{
				Name: "fVertex",
				Leaf: "TLeafD",
				Len:  3,
				Baskets: []testutil.Basket{
					{Entries: 5, Data: testutil.Encode(func(b *testutil.Buffer) {
						for i := 0; i < 15; i++ {
							b.F64(float64(i))
						}
					})},
				},
			},
		},
	}
}

func TestTreeStructure(t *testing.T) {
	decoded := openTree(t, testutil.FileOptions{}, eventTree())
	if decoded.Name != "events" || decoded.Title != "event tree" || decoded.Rows != 5 {
		t.Errorf("tree = %s %q %d rows, want events %q 5 rows", decoded.Name, decoded.Title, decoded.Rows, "event tree")
	}
	if len(decoded.Branches) != 3 {
		t.Fatalf("tree has %d branches, want 3", len(decoded.Branches))
	}

	counter := branch(t, decoded, "nTracks")
	if n, ok := counter.Rule.FixedLength(); !ok || n != 1 {
		t.Errorf("nTracks rule = %s, want fixed(1)", counter.Rule)
	}
	if len(counter.Baskets) != 3 {
		t.Fatalf("nTracks has %d baskets, want 3", len(counter.Baskets))
	}
	if counter.Baskets[0].InMemory() || !counter.Baskets[2].InMemory() {
		t.Errorf("nTracks basket placement = %v/%v/%v, want disk/disk/memory",
			counter.Baskets[0].InMemory(), counter.Baskets[1].InMemory(), counter.Baskets[2].InMemory())
	}
	if counter.Baskets[1].FirstEntry != 2 || counter.Baskets[2].FirstEntry != 4 {
		t.Errorf("nTracks first entries = %d/%d, want 2/4", counter.Baskets[1].FirstEntry, counter.Baskets[2].FirstEntry)
	}

	x := branch(t, decoded, "fX")
	owner, ok := x.Rule.Counter()
	if !ok || owner != counter {
		t.Errorf("fX rule = %s, want variable(nTracks)", x.Rule)
	}
	if x.Class != "TBranch" {
		t.Errorf("fX class = %s, want TBranch", x.Class)
	}

	vertex := branch(t, decoded, "fVertex")
	if n, ok := vertex.Rule.FixedLength(); !ok || n != 3 {
		t.Errorf("fVertex rule = %s, want fixed(3)", vertex.Rule)
	}

	_, err := decoded.Branch("fMissing")
	if !errors.Is(err, tree.ErrBranchNotFound) {
		t.Errorf("Branch(fMissing) error = %v, want ErrBranchNotFound", err)
	}
}

func TestFixedAndVariableSequences(t *testing.T) {
	algorithms := []struct {
		name    string
		options testutil.FileOptions
	}{
		{"uncompressed", testutil.FileOptions{}},
		{"zlib", testutil.FileOptions{Compression: rootzip.AlgorithmZlib}},
		{"lz4", testutil.FileOptions{Compression: rootzip.AlgorithmLZ4, Large: true}},
	}
	for _, algorithm := range algorithms {
		t.Run(algorithm.name, func(t *testing.T) {
			ctx := context.Background()
			decoded := openTree(t, algorithm.options, eventTree())

			counts, err := tree.Collect(ctx, tree.FixedSize(branch(t, decoded, "nTracks"), binparse.Int32))
			if err != nil {
				t.Fatalf("collecting nTracks failed: %v", err)
			}
			want := []int32{3, 1, 0, 2, 4}
			if len(counts) != len(want) {
				t.Fatalf("nTracks = %v, want %v", counts, want)
			}
			for i := range want {
				if counts[i] != want[i] {
					t.Fatalf("nTracks = %v, want %v", counts, want)
				}
			}

			rows, err := tree.Collect(ctx, tree.VariableSize(branch(t, decoded, "fX"), binparse.Float32, counts))
			if err != nil {
				t.Fatalf("collecting fX failed: %v", err)
			}
			wantRows := [][]float32{{1, 2, 3}, {4}, {}, {5, 6}, {7, 8, 9, 10}}
			if len(rows) != len(wantRows) {
				t.Fatalf("fX has %d rows, want %d", len(rows), len(wantRows))
			}
			for i := range wantRows {
				if len(rows[i]) != len(wantRows[i]) {
					t.Fatalf("fX row %d = %v, want %v", i, rows[i], wantRows[i])
				}
				for j := range wantRows[i] {
					if rows[i][j] != wantRows[i][j] {
						t.Errorf("fX row %d = %v, want %v", i, rows[i], wantRows[i])
					}
				}
			}

			vertices, err := tree.Collect(ctx, tree.FixedSize(branch(t, decoded, "fVertex"), binparse.Float64s(3)))
			if err != nil {
				t.Fatalf("collecting fVertex failed: %v", err)
			}
			if len(vertices) != 5 || vertices[4][2] != 14 {
				t.Errorf("fVertex = %v, want 5 rows ending in 14", vertices)
			}
		})
	}
}

func TestBranchElementCounter(t *testing.T) {
	fixture := testutil.Tree{
		Name: "esdTree",
		Rows: 2,
		Branches: []testutil.Branch{{
			Name:    "Tracks",
			Leaf:    "TLeafElement",
			Element: true,
			Baskets: []testutil.Basket{{Entries: 2, Data: int32s(2, 1)}},
			Branches: []testutil.Branch{{
				Name:    "Tracks.fX",
				Leaf:    "TLeafElement",
				Element: true,
				Counter: "Tracks",
				Baskets: []testutil.Basket{{Entries: 2, Data: float32s(0.5, 1.5, 2.5)}},
			}},
		}},
	}
	decoded := openTree(t, testutil.FileOptions{}, fixture)
	if len(decoded.Branches) != 2 {
		t.Fatalf("tree has %d branches, want the parent and its child", len(decoded.Branches))
	}
	parent := branch(t, decoded, "Tracks")
	child := branch(t, decoded, "Tracks.fX")
	if child.Class != "TBranchElement" {
		t.Errorf("child class = %s, want TBranchElement", child.Class)
	}
	owner, ok := child.Rule.Counter()
	if !ok || owner != parent {
		t.Fatalf("child rule = %s, want variable(Tracks)", child.Rule)
	}

	ctx := context.Background()
	counts, err := tree.Collect(ctx, tree.FixedSize(parent, binparse.Int32))
	if err != nil {
		t.Fatalf("collecting Tracks failed: %v", err)
	}
	rows, err := tree.Collect(ctx, tree.VariableSize(child, binparse.Float32, counts))
	if err != nil {
		t.Fatalf("collecting Tracks.fX failed: %v", err)
	}
	if len(rows) != 2 || len(rows[0]) != 2 || rows[1][0] != 2.5 {
		t.Errorf("Tracks.fX = %v, want [[0.5 1.5] [2.5]]", rows)
	}
}

func TestSequenceErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		baskets []testutil.Basket
		want    string
	}{
		{
			name:    "missing rows",
			rows:    3,
			baskets: []testutil.Basket{{Entries: 2, Data: int32s(1, 2)}},
			want:    "holds 2 rows, tree declares 3",
		},
		{
			name:    "extra rows",
			rows:    1,
			baskets: []testutil.Basket{{Entries: 2, Data: int32s(1, 2)}},
			want:    "more than the 1 rows",
		},
		{
			name:    "leftover bytes",
			rows:    1,
			baskets: []testutil.Basket{{Entries: 1, Data: int32s(1, 2)}},
			want:    "4 bytes left after its last entry",
		},
		{
			name:    "short basket",
			rows:    2,
			baskets: []testutil.Basket{{Entries: 2, Data: int32s(1)}},
			want:    "branch n row 1",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			decoded := openTree(t, testutil.FileOptions{}, testutil.Tree{
				Name:     "broken",
				Rows:     test.rows,
				Branches: []testutil.Branch{{Name: "n", Baskets: test.baskets}},
			})
			values, err := tree.Collect(context.Background(), tree.FixedSize(branch(t, decoded, "n"), binparse.Int32))
			if err == nil {
				t.Fatalf("Collect succeeded with %v", values)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %v, want it to mention %q", err, test.want)
			}
		})
	}
}

func TestVariableSequenceErrors(t *testing.T) {
	ctx := context.Background()
	decoded := openTree(t, testutil.FileOptions{}, eventTree())
	x := branch(t, decoded, "fX")

	if _, err := tree.VariableSize(x, binparse.Float32, []int32{1, 2}).Next(ctx); err == nil {
		t.Error("VariableSize accepted a counter list shorter than the tree")
	}
	if _, err := tree.Collect(ctx, tree.VariableSize(x, binparse.Float32, []int32{3, 1, 0, 2, 5})); err == nil {
		t.Error("VariableSize accepted counters beyond the branch data")
	}
	if _, err := tree.Collect(ctx, tree.VariableSize(x, binparse.Float32, []int32{3, 1, 0, 2, 3})); err == nil {
		t.Error("VariableSize accepted trailing values after the last row")
	}
	// The first basket ends exactly at the last row; the second is never read.
	if _, err := tree.Collect(ctx, tree.VariableSize(x, binparse.Float32, []int32{3, 1, 0, 0, 0})); !binparse.IsFormatError(err) {
		t.Errorf("VariableSize with a whole trailing basket = %v, want a format error", err)
	}
	if _, err := tree.VariableSize(x, binparse.Float32, []int32{-1, 1, 0, 2, 4}).Next(ctx); err == nil {
		t.Error("VariableSize accepted a negative count")
	}
}

func TestSequenceStopsAfterEnd(t *testing.T) {
	ctx := context.Background()
	decoded := openTree(t, testutil.FileOptions{}, eventTree())
	sequence := tree.FixedSize(branch(t, decoded, "nTracks"), binparse.Int32)
	if _, err := tree.Collect(ctx, sequence); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if _, err := sequence.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next after the end = %v, want io.EOF", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	fresh := tree.FixedSize(branch(t, decoded, "nTracks"), binparse.Int32)
	if _, err := fresh.Next(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Next with a cancelled context = %v, want context.Canceled", err)
	}
}
