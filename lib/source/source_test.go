// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testData() []byte {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func checkFetches(t *testing.T, src Source, data []byte) {
	t.Helper()
	ctx := context.Background()

	size, err := src.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != int64(len(data)) {
		t.Fatalf("Size = %d, want %d", size, len(data))
	}

	tests := []struct {
		name           string
		offset, length int64
	}{
		{"start", 0, 16},
		{"middle", 1000, 333},
		{"tail", int64(len(data)) - 10, 10},
		{"empty", 100, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := src.Fetch(ctx, test.offset, test.length)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			want := data[test.offset : test.offset+test.length]
			if !bytes.Equal(got, want) {
				t.Errorf("Fetch(%d, %d) returned wrong bytes", test.offset, test.length)
			}
		})
	}

	_, err = src.Fetch(ctx, int64(len(data))-4, 8)
	if !IsSourceError(err) {
		t.Fatalf("out-of-range Fetch error = %v, want source error", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("out-of-range Fetch error = %v, want io.ErrUnexpectedEOF in chain", err)
	}
}

func TestMemory(t *testing.T) {
	data := testData()
	checkFetches(t, NewMemory("memory", data), data)
}

func TestMemoryFetchReturnsCopy(t *testing.T) {
	data := testData()
	src := NewMemory("memory", data)
	got, err := src.Fetch(context.Background(), 0, 4)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	got[0] ^= 0xff
	if data[0] == got[0] {
		t.Error("mutating the fetched slice changed the source")
	}
}

func TestMemoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory("memory", testData()).Fetch(ctx, 0, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch error = %v, want context.Canceled", err)
	}
}

func TestFile(t *testing.T) {
	data := testData()
	path := filepath.Join(t.TempDir(), "data.root")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	for _, mmap := range []bool{false, true} {
		name := "pread"
		if mmap {
			name = "mmap"
		}
		t.Run(name, func(t *testing.T) {
			src, err := OpenFile(path, mmap)
			if err != nil {
				t.Fatalf("OpenFile failed: %v", err)
			}
			defer src.Close()
			checkFetches(t, src, data)
		})
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "absent.root"), false)
	if !IsSourceError(err) {
		t.Fatalf("OpenFile error = %v, want source error", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenFile error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestTracking(t *testing.T) {
	data := testData()
	tracking := NewTracking(NewMemory("memory", data))
	ctx := context.Background()

	if _, err := tracking.Fetch(ctx, 0, 100); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := tracking.Fetch(ctx, 200, 50); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if _, err := tracking.Fetch(ctx, int64(len(data)), 1); err == nil {
		t.Fatal("Fetch past end succeeded")
	}

	stats := tracking.Stats()
	if stats != (Stats{Fetches: 3, Bytes: 150, Errors: 1}) {
		t.Errorf("Stats = %+v, want {Fetches:3 Bytes:150 Errors:1}", stats)
	}
}

func TestCached(t *testing.T) {
	data := testData()
	tracking := NewTracking(NewMemory("memory://cached", data))
	dir := t.TempDir()

	cached, err := NewCached(tracking, dir, nil)
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	checkFetches(t, cached, data)
	first := tracking.Stats().Fetches

	// Every range is now on disk; a second pass must not reach the
	// inner source.
	checkFetches(t, cached, data)
	if second := tracking.Stats().Fetches; second != first+1 {
		// The out-of-range request is never cached, so exactly one more
		// inner fetch is expected.
		t.Errorf("inner fetches after second pass = %d, want %d", second, first+1)
	}

	// A fresh wrapper over the same directory reuses the entries.
	reopened, err := NewCached(NewMemory("memory://cached", make([]byte, len(data))), dir, nil)
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	got, err := reopened.Fetch(context.Background(), 1000, 333)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(got, data[1000:1333]) {
		t.Error("reopened cache did not serve the stored range")
	}
}

func TestCachedKeysOnSourceSize(t *testing.T) {
	dir := t.TempDir()
	old := testData()
	cached, err := NewCached(NewMemory("memory://changing", old), dir, nil)
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	if _, err := cached.Fetch(context.Background(), 0, 64); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// The same name now serves a longer file with different content.
	replaced := make([]byte, len(old)+512)
	for i := range replaced {
		replaced[i] = byte(i * 3)
	}
	tracking := NewTracking(NewMemory("memory://changing", replaced))
	reopened, err := NewCached(tracking, dir, nil)
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	got, err := reopened.Fetch(context.Background(), 0, 64)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(got, replaced[:64]) {
		t.Error("cache served a range stored for the file's previous size")
	}
	if fetches := tracking.Stats().Fetches; fetches != 1 {
		t.Errorf("inner fetches = %d, want 1", fetches)
	}
}

func TestOpenDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.root")
	if err := os.WriteFile(path, []byte("root"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	local, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open(local) failed: %v", err)
	}
	defer local.Close()
	if _, ok := local.(*File); !ok {
		t.Errorf("Open(local) = %T, want *File", local)
	}

	remote, err := Open("https://example.invalid/file.root", Options{})
	if err != nil {
		t.Fatalf("Open(remote) failed: %v", err)
	}
	if _, ok := remote.(*HTTP); !ok {
		t.Errorf("Open(remote) = %T, want *HTTP", remote)
	}

	cached, err := Open("https://example.invalid/file.root", Options{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(cached) failed: %v", err)
	}
	if _, ok := cached.(*Cached); !ok {
		t.Errorf("Open(cached) = %T, want *Cached", cached)
	}
}
