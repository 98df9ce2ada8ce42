// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootzip

import (
	"errors"
	"fmt"
)

// HeaderSize is the length of a block header.
const HeaderSize = 9

// maxBlockSize is the largest size a 24-bit header field can express.
const maxBlockSize = 1<<24 - 1

// Algorithm identifies a block's compression algorithm. Values are the
// two tag bytes packed big-endian.
type Algorithm uint16

const (
	AlgorithmZlib Algorithm = 'Z'<<8 | 'L'
	AlgorithmZstd Algorithm = 'Z'<<8 | 'S'
	AlgorithmLZ4  Algorithm = 'L'<<8 | '4'
	AlgorithmXZ   Algorithm = 'X'<<8 | 'Z'
)

// String returns the human-readable name of an algorithm.
func (algorithm Algorithm) String() string {
	switch algorithm {
	case AlgorithmZlib:
		return "zlib"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmLZ4:
		return "lz4"
	case AlgorithmXZ:
		return "xz"
	default:
		return fmt.Sprintf("unknown(%q)", string([]byte{byte(algorithm >> 8), byte(algorithm)}))
	}
}

// Tag returns the two tag bytes written in block headers.
func (algorithm Algorithm) Tag() [2]byte {
	return [2]byte{byte(algorithm >> 8), byte(algorithm)}
}

// ParseAlgorithm parses an algorithm from its String form.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "zlib":
		return AlgorithmZlib, nil
	case "zstd":
		return AlgorithmZstd, nil
	case "lz4":
		return AlgorithmLZ4, nil
	case "xz":
		return AlgorithmXZ, nil
	default:
		return 0, fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

// BlockHeader is a decoded 9-byte block header.
type BlockHeader struct {
	Algorithm        Algorithm
	Method           byte
	CompressedSize   int
	UncompressedSize int
}

// ParseBlockHeader decodes the header at the start of buf.
func ParseBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) < HeaderSize {
		return BlockHeader{}, &Error{Op: "reading block header",
			Err: fmt.Errorf("need %d bytes, have %d", HeaderSize, len(buf))}
	}
	return BlockHeader{
		Algorithm:        Algorithm(buf[0])<<8 | Algorithm(buf[1]),
		Method:           buf[2],
		CompressedSize:   int(buf[3]) | int(buf[4])<<8 | int(buf[5])<<16,
		UncompressedSize: int(buf[6]) | int(buf[7])<<8 | int(buf[8])<<16,
	}, nil
}

// Put writes the header into the first HeaderSize bytes of buf.
func (header BlockHeader) Put(buf []byte) {
	tag := header.Algorithm.Tag()
	buf[0], buf[1] = tag[0], tag[1]
	buf[2] = header.Method
	buf[3], buf[4], buf[5] = byte(header.CompressedSize), byte(header.CompressedSize>>8), byte(header.CompressedSize>>16)
	buf[6], buf[7], buf[8] = byte(header.UncompressedSize), byte(header.UncompressedSize>>8), byte(header.UncompressedSize>>16)
}

// Error reports a payload that could not be decompressed.
type Error struct {
	Op        string
	Block     int
	Algorithm Algorithm
	Err       error
}

func (e *Error) Error() string {
	if e.Algorithm != 0 {
		return fmt.Sprintf("decompressing block %d (%s): %s: %v", e.Block, e.Algorithm, e.Op, e.Err)
	}
	return fmt.Sprintf("decompressing block %d: %s: %v", e.Block, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCompressionError reports whether err (or any error in its chain)
// is a decompression failure.
func IsCompressionError(err error) bool {
	var compressionError *Error
	return errors.As(err, &compressionError)
}
