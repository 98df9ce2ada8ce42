// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootzip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// lz4ChecksumSize is the XXH64 digest preceding each LZ4 block.
const lz4ChecksumSize = 8

// zstdMaxMemory caps the window a zstd frame may ask for.
const zstdMaxMemory = 4 * (maxBlockSize + 1)

// zstdDecoders holds synchronous stream decoders. Each is Reset onto
// one block at a time and read no further than the declared size.
var zstdDecoders = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(zstdMaxMemory))
		if err != nil {
			panic("rootzip: zstd decoder initialization failed: " + err.Error())
		}
		return decoder
	},
}

// Decompress inflates a block-framed payload into exactly
// uncompressedSize bytes.
func Decompress(buf []byte, uncompressedSize int) ([]byte, error) {
	if uncompressedSize < 0 {
		return nil, &Error{Op: "checking size", Err: fmt.Errorf("negative uncompressed size %d", uncompressedSize)}
	}
	out := make([]byte, 0, uncompressedSize)

	for block := 0; len(out) < uncompressedSize; block++ {
		if len(buf) < HeaderSize {
			return nil, &Error{Op: "reading block header", Block: block,
				Err: fmt.Errorf("need %d bytes, have %d: %w", HeaderSize, len(buf), io.ErrUnexpectedEOF)}
		}
		header, _ := ParseBlockHeader(buf)
		buf = buf[HeaderSize:]
		if header.UncompressedSize == 0 {
			return nil, &Error{Op: "checking size", Block: block, Algorithm: header.Algorithm,
				Err: fmt.Errorf("empty block before declared total %d", uncompressedSize)}
		}

		if header.CompressedSize > len(buf) {
			return nil, &Error{Op: "reading block", Block: block, Algorithm: header.Algorithm,
				Err: fmt.Errorf("header declares %d compressed bytes, %d remain: %w",
					header.CompressedSize, len(buf), io.ErrUnexpectedEOF)}
		}
		if len(out)+header.UncompressedSize > uncompressedSize {
			return nil, &Error{Op: "checking size", Block: block, Algorithm: header.Algorithm,
				Err: fmt.Errorf("block of %d bytes overshoots declared total %d (have %d)",
					header.UncompressedSize, uncompressedSize, len(out))}
		}

		compressed := buf[:header.CompressedSize]
		buf = buf[header.CompressedSize:]

		inflated, err := decompressBlock(header, compressed)
		if err != nil {
			return nil, &Error{Op: "inflating", Block: block, Algorithm: header.Algorithm, Err: err}
		}
		if len(inflated) != header.UncompressedSize {
			return nil, &Error{Op: "checking size", Block: block, Algorithm: header.Algorithm,
				Err: fmt.Errorf("got %d bytes, header declares %d", len(inflated), header.UncompressedSize)}
		}
		out = append(out, inflated...)
	}

	if len(buf) != 0 {
		return nil, &Error{Op: "checking trailer",
			Err: fmt.Errorf("%d bytes follow the last block", len(buf))}
	}
	return out, nil
}

// Payload returns the uncompressed form of a record payload: raw when
// it is already objlen bytes long, otherwise the result of Decompress.
func Payload(raw []byte, objlen int) ([]byte, error) {
	if len(raw) == objlen {
		return raw, nil
	}
	return Decompress(raw, objlen)
}

func decompressBlock(header BlockHeader, compressed []byte) ([]byte, error) {
	switch header.Algorithm {
	case AlgorithmZlib:
		return decompressZlib(compressed, header.UncompressedSize)
	case AlgorithmZstd:
		return decompressZstd(compressed, header.UncompressedSize)
	case AlgorithmLZ4:
		return decompressLZ4(compressed, header.UncompressedSize)
	case AlgorithmXZ:
		return decompressXZ(compressed, header.UncompressedSize)
	default:
		return nil, fmt.Errorf("unsupported algorithm tag %s", header.Algorithm)
	}
}

func decompressZlib(compressed []byte, size int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer reader.Close()
	return readExactly(reader, size, "zlib")
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	decoder := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(decoder)
	if err := decoder.Reset(bytes.NewReader(compressed)); err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return readExactly(decoder, size, "zstd")
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	if len(compressed) < lz4ChecksumSize {
		return nil, fmt.Errorf("lz4: block of %d bytes has no checksum", len(compressed))
	}
	want := binary.BigEndian.Uint64(compressed[:lz4ChecksumSize])
	compressed = compressed[lz4ChecksumSize:]
	if got := xxhash.Sum64(compressed); got != want {
		return nil, fmt.Errorf("lz4: checksum mismatch: computed %016x, stored %016x", got, want)
	}

	out := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, out)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return out[:read], nil
}

func decompressXZ(compressed []byte, size int) ([]byte, error) {
	reader, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	return readExactly(reader, size, "xz")
}

// readExactly reads size bytes from a stream decoder and checks that it
// produces nothing further.
func readExactly(reader io.Reader, size int, name string) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var extra [1]byte
	n, err := reader.Read(extra[:])
	if n != 0 {
		return nil, fmt.Errorf("%s: stream inflates past %d bytes", name, size)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
