// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Event and catalogue records are encoded deterministically (RFC 8949
// §4.2), so decoding the same container twice yields identical bytes.
// Decoding ignores fields the record types do not know.
var (
	encMode = mustEncMode(cbor.CoreDetEncOptions())
	decMode = mustDecMode(cbor.DecOptions{
		// Untyped maps come back keyed by string, as encoding/json
		// returns them for the JSON lines output.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	})
)

func mustEncMode(options cbor.EncOptions) cbor.EncMode {
	mode, err := options.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building CBOR encoder: %v", err))
	}
	return mode
}

func mustDecMode(options cbor.DecOptions) cbor.DecMode {
	mode, err := options.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building CBOR decoder: %v", err))
	}
	return mode
}

// Marshal encodes one record.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes one record from data.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

type (
	// Encoder writes a CBOR sequence, one item per Encode call.
	Encoder = cbor.Encoder
	// Decoder reads a CBOR sequence item by item.
	Decoder = cbor.Decoder
)

// NewEncoder returns an Encoder writing deterministic items to w.
func NewEncoder(w io.Writer) *Encoder { return encMode.NewEncoder(w) }

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder { return decMode.NewDecoder(r) }

// Diagnose renders all of data in CBOR diagnostic notation.
func Diagnose(data []byte) (string, error) { return cbor.Diagnose(data) }

// DiagnoseFirst renders the first item of data and returns the bytes
// after it.
func DiagnoseFirst(data []byte) (string, []byte, error) { return cbor.DiagnoseFirst(data) }
