// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootfile

import (
	"context"
	"strings"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/rootzip"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/streamer"
	"github.com/bureau-foundation/rootscan/lib/testutil"
)

func openBytes(t *testing.T, data []byte) *Container {
	t.Helper()
	container, err := Open(context.Background(), source.NewMemory("test.root", data), Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return container
}

func writeNote(text string) func(b *testutil.Buffer) {
	return func(b *testutil.Buffer) {
		b.Framed(1, func(b *testutil.Buffer) {
			b.TObject()
			b.TString(text)
		})
	}
}

func TestOpenLayouts(t *testing.T) {
	tests := []struct {
		name         string
		options      testutil.FileOptions
		wantVersion  int32
		wantLarge    bool
		wantCompress int32
	}{
		{"small", testutil.FileOptions{}, 62206, false, 0},
		{"large", testutil.FileOptions{Large: true}, 1062206, true, 0},
		{"zstd", testutil.FileOptions{Compression: rootzip.AlgorithmZstd}, 62206, false, 505},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := testutil.NewFile(test.options)
			f.Streamers(testutil.TreeStreamers()...)
			f.AddObject("TObjString", "note", "a note", writeNote("hello"))
			f.AddTree(testutil.Tree{Name: "events", Rows: 0})

			container := openBytes(t, f.Bytes())
			header := container.Header()
			if header.Version != test.wantVersion || header.Large() != test.wantLarge {
				t.Errorf("header version = %d large = %v, want %d %v",
					header.Version, header.Large(), test.wantVersion, test.wantLarge)
			}
			if header.Begin != 100 || header.Compress != test.wantCompress {
				t.Errorf("header begin = %d compress = %d, want 100 %d", header.Begin, header.Compress, test.wantCompress)
			}
			if int(header.End) != len(f.Bytes()) {
				t.Errorf("header end = %d, want %d", header.End, len(f.Bytes()))
			}
			if directory := container.Directory(); directory.SeekDir != 100 || directory.SeekKeys <= 0 {
				t.Errorf("directory = %+v, want seekdir 100 and a key index", directory)
			}

			items := container.Items()
			if len(items) != 2 {
				t.Fatalf("indexed %d records, want 2", len(items))
			}
			if items[0].Name() != "`note` of type `TObjString`" {
				t.Errorf("items[0].Name() = %s", items[0].Name())
			}
			if items[1].Header().ClassName != "TTree" || items[1].Header().Name != "events" {
				t.Errorf("items[1] = %s", items[1].Name())
			}
		})
	}
}

func TestItemCycles(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{})
	f.AddObject("TObjString", "note", "", writeNote("first"))
	f.AddObject("TObjString", "note", "", writeNote("second"))
	container := openBytes(t, f.Bytes())

	item, err := container.Item("note")
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	if item.Header().Cycle != 2 {
		t.Errorf("Item(note) cycle = %d, want 2", item.Header().Cycle)
	}
	value, err := item.Decode(context.Background(), streamer.NewRegistry(nil))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	text, _ := value.(*streamer.Object).String("fString")
	if text != "second" {
		t.Errorf("fString = %q, want second", text)
	}

	if _, err := container.Item("missing"); err == nil {
		t.Error("Item(missing) succeeded")
	}
}

func TestPayloadCompression(t *testing.T) {
	text := strings.Repeat("compressible payload ", 400)
	algorithms := []rootzip.Algorithm{
		rootzip.AlgorithmZlib,
		rootzip.AlgorithmZstd,
		rootzip.AlgorithmLZ4,
		rootzip.AlgorithmXZ,
	}
	for _, algorithm := range algorithms {
		t.Run(algorithm.String(), func(t *testing.T) {
			f := testutil.NewFile(testutil.FileOptions{Compression: algorithm, BlockSize: 2048})
			f.AddObject("TObjString", "note", "", writeNote(text))
			container := openBytes(t, f.Bytes())

			item, err := container.Item("note")
			if err != nil {
				t.Fatalf("Item failed: %v", err)
			}
			if !item.Header().Compressed() {
				t.Fatalf("record is stored uncompressed: %s", item.Info())
			}
			payload, err := item.Payload(context.Background())
			if err != nil {
				t.Fatalf("Payload failed: %v", err)
			}
			if len(payload) != int(item.Header().UncompLen) {
				t.Errorf("payload is %d bytes, want %d", len(payload), item.Header().UncompLen)
			}
			value, err := item.Decode(context.Background(), streamer.NewRegistry(nil))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			got, _ := value.(*streamer.Object).String("fString")
			if got != text {
				t.Errorf("fString is %d bytes, want %d", len(got), len(text))
			}
		})
	}
}

func TestPayloadCorruptBlock(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{Compression: rootzip.AlgorithmZlib})
	f.AddObject("TObjString", "note", "", writeNote(strings.Repeat("x", 2000)))
	data := append([]byte(nil), f.Bytes()...)
	container := openBytes(t, data)
	item, err := container.Item("note")
	if err != nil {
		t.Fatalf("Item failed: %v", err)
	}
	data[item.Header().PayloadOffset()] = 'Q'

	if _, err := item.Payload(context.Background()); err == nil {
		t.Fatal("Payload accepted an unknown block tag")
	}
}

func TestInfo(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{})
	f.AddObject("TObjString", "note", "a note", writeNote("hello"))
	container := openBytes(t, f.Bytes())
	info := container.Items()[0].Info()
	for _, want := range []string{
		"RecordHeader {",
		"class_name: \"TObjString\",",
		"obj_name: \"note\",",
		"obj_title: \"a note\",",
		"cycle: 1,",
		"version: 4,",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() lacks %q:\n%s", want, info)
		}
	}
}

func TestStreamers(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{Compression: rootzip.AlgorithmZlib})
	f.Streamers(testutil.TreeStreamers()...)
	container := openBytes(t, f.Bytes())
	ctx := context.Background()

	infos, err := container.Streamers(ctx)
	if err != nil {
		t.Fatalf("Streamers failed: %v", err)
	}
	if len(infos) != len(testutil.TreeStreamers()) {
		t.Errorf("Streamers returned %d infos, want %d", len(infos), len(testutil.TreeStreamers()))
	}
	first, err := container.Registry(ctx)
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	second, _ := container.Registry(ctx)
	if first != second {
		t.Error("Registry rebuilt the registry on the second call")
	}
	if _, err := first.Lookup("TBranchElement", 10); err != nil {
		t.Errorf("Lookup(TBranchElement, 10) failed: %v", err)
	}
	for _, item := range container.Items() {
		if item.Header().Name == "StreamerInfo" {
			t.Error("the streamer catalogue is listed in the key index")
		}
	}
}

func TestTreeNotATree(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{})
	f.AddObject("TObjString", "note", "", writeNote("hello"))
	container := openBytes(t, f.Bytes())
	if _, err := container.Tree(context.Background(), "note"); err == nil {
		t.Error("Tree accepted a TObjString record")
	}
}

func TestParseRequiresByteCount(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{})
	f.AddRecord("TRaw", "raw", "", []byte{0, 0, 0, 1, 2, 3})
	container := openBytes(t, f.Bytes())
	item, _ := container.Item("raw")
	_, err := Parse(context.Background(), item, binparse.Uint16)
	if err == nil || !binparse.IsFormatError(err) {
		t.Errorf("Parse error = %v, want a format error", err)
	}
}

func TestOpenRejectsDamagedFiles(t *testing.T) {
	f := testutil.NewFile(testutil.FileOptions{})
	f.AddObject("TObjString", "note", "", writeNote("hello"))
	pristine := f.Bytes()

	damage := func(change func(data []byte) []byte) []byte {
		return change(append([]byte(nil), pristine...))
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", damage(func(data []byte) []byte { data[0] = 'x'; return data })},
		{"short header", damage(func(data []byte) []byte { return data[:30] })},
		{"truncated tail", damage(func(data []byte) []byte { return data[:len(data)-8] })},
		{"begin inside header", damage(func(data []byte) []byte { testutil.PutI32(data, 8, 20); return data })},
		{"end before begin", damage(func(data []byte) []byte { testutil.PutI32(data, 12, 50); return data })},
		{"empty name record", damage(func(data []byte) []byte { testutil.PutI32(data, 28, 0); return data })},
		{"catalogue outside file", damage(func(data []byte) []byte { testutil.PutI32(data, 37, 1<<30); return data })},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Open(context.Background(), source.NewMemory("damaged.root", test.data), Options{})
			if err == nil {
				t.Fatal("Open accepted a damaged file")
			}
		})
	}
}
