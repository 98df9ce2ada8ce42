// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/bureau-foundation/rootscan/lib/rootzip"
)

// MaxBlockSize is the largest uncompressed size one block carries.
const MaxBlockSize = 1<<24 - 1

// Compress frames data as compressed blocks of at most blockSize
// uncompressed bytes each (MaxBlockSize when blockSize is zero). It
// returns an error when a block cannot be encoded, which for LZ4 includes
// input that does not compress.
func Compress(algorithm rootzip.Algorithm, data []byte, blockSize int) ([]byte, error) {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		blockSize = MaxBlockSize
	}
	var out []byte
	for start := 0; start < len(data); start += blockSize {
		chunk := data[start:min(start+blockSize, len(data))]
		compressed, err := compressBlock(algorithm, chunk)
		if err != nil {
			return nil, fmt.Errorf("compressing block at %d with %s: %w", start, algorithm, err)
		}
		if len(compressed) > MaxBlockSize {
			return nil, fmt.Errorf("compressed block of %d bytes does not fit a header", len(compressed))
		}
		header := make([]byte, rootzip.HeaderSize)
		rootzip.BlockHeader{
			Algorithm:        algorithm,
			Method:           method(algorithm),
			CompressedSize:   len(compressed),
			UncompressedSize: len(chunk),
		}.Put(header)
		out = append(out, header...)
		out = append(out, compressed...)
	}
	return out, nil
}

func method(algorithm rootzip.Algorithm) byte {
	if algorithm == rootzip.AlgorithmZlib {
		return 8 // deflate
	}
	return 1
}

func compressBlock(algorithm rootzip.Algorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case rootzip.AlgorithmZlib:
		var buffer bytes.Buffer
		writer := zlib.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil

	case rootzip.AlgorithmZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil

	case rootzip.AlgorithmLZ4:
		block := make([]byte, lz4.CompressBlockBound(len(data)))
		var compressor lz4.Compressor
		n, err := compressor.CompressBlock(data, block)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("lz4: %d bytes do not compress", len(data))
		}
		block = block[:n]
		out := binary.BigEndian.AppendUint64(nil, xxhash.Sum64(block))
		return append(out, block...), nil

	case rootzip.AlgorithmXZ:
		var buffer bytes.Buffer
		writer, err := xz.NewWriter(&buffer)
		if err != nil {
			return nil, err
		}
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported algorithm %s", algorithm)
	}
}
