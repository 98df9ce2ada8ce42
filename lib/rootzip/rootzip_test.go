// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootzip_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/rootzip"
	"github.com/bureau-foundation/rootscan/lib/testutil"
)

var algorithms = []rootzip.Algorithm{
	rootzip.AlgorithmZlib,
	rootzip.AlgorithmZstd,
	rootzip.AlgorithmLZ4,
	rootzip.AlgorithmXZ,
}

// sample is compressible enough for every algorithm.
func sample(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 17)
	}
	return data
}

func compress(t *testing.T, algorithm rootzip.Algorithm, data []byte, blockSize int) []byte {
	t.Helper()
	compressed, err := testutil.Compress(algorithm, data, blockSize)
	if err != nil {
		t.Fatalf("Compress(%s) failed: %v", algorithm, err)
	}
	return compressed
}

func TestDecompressRoundTrip(t *testing.T) {
	data := sample(5000)
	for _, algorithm := range algorithms {
		for _, blockSize := range []int{0, 1024} {
			t.Run(algorithm.String(), func(t *testing.T) {
				compressed := compress(t, algorithm, data, blockSize)
				got, err := rootzip.Decompress(compressed, len(data))
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("Decompress returned %d bytes that differ from the input", len(got))
				}
			})
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := sample(2048)
	compressed := compress(t, rootzip.AlgorithmZstd, data, 1024)

	tests := []struct {
		name string
		buf  []byte
		size int
		eof  bool
	}{
		{name: "declared too small", buf: compressed, size: 1500},
		{name: "declared too large", buf: compressed, size: 4096, eof: true},
		{name: "trailing bytes", buf: append(append([]byte(nil), compressed...), 0, 0), size: 2048},
		{name: "truncated header", buf: compressed[:4], size: 2048, eof: true},
		{name: "truncated block", buf: compressed[:20], size: 2048, eof: true},
		{name: "negative size", buf: compressed, size: -1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := rootzip.Decompress(test.buf, test.size)
			if err == nil {
				t.Fatal("Decompress succeeded, want an error")
			}
			if !rootzip.IsCompressionError(err) {
				t.Errorf("error %v is not a compression error", err)
			}
			if test.eof && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("error %v does not wrap io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestDecompressStopsAtDeclaredSize(t *testing.T) {
	for _, algorithm := range []rootzip.Algorithm{rootzip.AlgorithmZlib, rootzip.AlgorithmZstd, rootzip.AlgorithmXZ} {
		t.Run(algorithm.String(), func(t *testing.T) {
			compressed := compress(t, algorithm, sample(1<<20), 0)
			header, err := rootzip.ParseBlockHeader(compressed)
			if err != nil {
				t.Fatalf("ParseBlockHeader failed: %v", err)
			}
			header.UncompressedSize = 100
			header.Put(compressed)

			_, err = rootzip.Decompress(compressed, 100)
			if !rootzip.IsCompressionError(err) {
				t.Fatalf("Decompress error = %v, want a compression error", err)
			}
			if !strings.Contains(err.Error(), "inflates past 100 bytes") {
				t.Errorf("Decompress error = %v, want the stream cut off at the declared size", err)
			}
		})
	}
}

func TestDecompressZeroSize(t *testing.T) {
	got, err := rootzip.Decompress(nil, 0)
	if err != nil {
		t.Fatalf("Decompress(nil, 0) failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decompress(nil, 0) returned %d bytes", len(got))
	}
}

func TestDecompressUnknownTag(t *testing.T) {
	compressed := compress(t, rootzip.AlgorithmZlib, sample(512), 0)
	compressed[0], compressed[1] = 'C', 'S'

	_, err := rootzip.Decompress(compressed, 512)
	var compressionError *rootzip.Error
	if !errors.As(err, &compressionError) {
		t.Fatalf("Decompress error = %v, want *rootzip.Error", err)
	}
	if compressionError.Op != "inflating" {
		t.Errorf("Op = %q, want %q", compressionError.Op, "inflating")
	}
}

func TestDecompressLZ4Checksum(t *testing.T) {
	compressed := compress(t, rootzip.AlgorithmLZ4, sample(4096), 0)
	compressed[rootzip.HeaderSize] ^= 0xff

	_, err := rootzip.Decompress(compressed, 4096)
	if !rootzip.IsCompressionError(err) {
		t.Fatalf("Decompress error = %v, want a checksum failure", err)
	}
}

func TestDecompressCorruptStream(t *testing.T) {
	for _, algorithm := range []rootzip.Algorithm{rootzip.AlgorithmZlib, rootzip.AlgorithmXZ} {
		t.Run(algorithm.String(), func(t *testing.T) {
			compressed := compress(t, algorithm, sample(4096), 0)
			for i := rootzip.HeaderSize + 2; i < len(compressed); i++ {
				compressed[i] ^= 0x5a
			}
			if _, err := rootzip.Decompress(compressed, 4096); !rootzip.IsCompressionError(err) {
				t.Fatalf("Decompress error = %v, want a compression error", err)
			}
		})
	}
}

func TestPayload(t *testing.T) {
	raw := sample(64)
	got, err := rootzip.Payload(raw, len(raw))
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if &got[0] != &raw[0] {
		t.Error("Payload copied an uncompressed payload")
	}

	data := sample(3000)
	got, err = rootzip.Payload(compress(t, rootzip.AlgorithmZlib, data, 0), len(data))
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Payload did not inflate a compressed payload")
	}
}

func TestBlockHeader(t *testing.T) {
	header := rootzip.BlockHeader{
		Algorithm:        rootzip.AlgorithmZstd,
		Method:           1,
		CompressedSize:   0x012345,
		UncompressedSize: 0xabcdef,
	}
	buf := make([]byte, rootzip.HeaderSize)
	header.Put(buf)
	if string(buf[:2]) != "ZS" {
		t.Errorf("tag bytes = %q, want %q", buf[:2], "ZS")
	}
	if buf[3] != 0x45 || buf[5] != 0x01 {
		t.Errorf("compressed size is not little-endian: % x", buf[3:6])
	}
	parsed, err := rootzip.ParseBlockHeader(buf)
	if err != nil {
		t.Fatalf("ParseBlockHeader failed: %v", err)
	}
	if parsed != header {
		t.Errorf("ParseBlockHeader = %+v, want %+v", parsed, header)
	}
	if _, err := rootzip.ParseBlockHeader(buf[:8]); !rootzip.IsCompressionError(err) {
		t.Errorf("short header error = %v, want a compression error", err)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, algorithm := range algorithms {
		parsed, err := rootzip.ParseAlgorithm(algorithm.String())
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q) failed: %v", algorithm.String(), err)
		}
		if parsed != algorithm {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", algorithm.String(), parsed, algorithm)
		}
	}
	if _, err := rootzip.ParseAlgorithm("brotli"); err == nil {
		t.Error("ParseAlgorithm(brotli) succeeded, want an error")
	}
	if got := rootzip.Algorithm('C'<<8 | 'S').String(); got != `unknown("CS")` {
		t.Errorf("String of unknown tag = %s", got)
	}
}
