// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"

	"github.com/bureau-foundation/rootscan/lib/binparse"
)

type builtinFunc func(d *Decoder, c *binparse.Cursor, class string) (any, error)

// builtins decode classes whose layout comes from a hand-written
// streamer. Every entry starts at the class preamble, except the TArray
// family which has none.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"TObject":      decodeTObject,
		"TNamed":       decodeTNamed,
		"TObjArray":    decodeObjArray,
		"TList":        decodeList,
		"THashList":    decodeList,
		"TObjString":   decodeObjString,
		"TBasket":      decodeBasket,
		"TArrayC":      arrayDecoder(TypeChar),
		"TArrayS":      arrayDecoder(TypeShort),
		"TArrayI":      arrayDecoder(TypeInt),
		"TArrayL":      arrayDecoder(TypeLong),
		"TArrayL64":    arrayDecoder(TypeLong64),
		"TArrayF":      arrayDecoder(TypeFloat),
		"TArrayD":      arrayDecoder(TypeDouble),
		"TClonesArray": skipObject,
		"TRefArray":    skipObject,
		"TBits":        skipObject,
	}
}

func decodeTObject(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
	object, err := c.ReadTObject()
	if err != nil {
		return nil, err
	}
	return tobject(object), nil
}

func tobject(object binparse.TObject) *Object {
	return &Object{
		Class: "TObject",
		Members: []Member{
			{Name: "fUniqueID", Value: object.UniqueID},
			{Name: "fBits", Value: object.Bits},
		},
	}
}

func decodeTNamed(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
	header := c.Pos()
	named, err := c.ReadTNamed()
	if err != nil {
		return nil, fmt.Errorf("reading TNamed at %d: %w", header, err)
	}
	return &Object{
		Class: "TNamed",
		Members: []Member{
			{Name: "TObject", Value: tobject(named.TObject), Base: true},
			{Name: "fName", Value: named.Name},
			{Name: "fTitle", Value: named.Title},
		},
	}, nil
}

func decodeObjArray(d *Decoder, c *binparse.Cursor, class string) (any, error) {
	return binparse.Framed(c, func(c *binparse.Cursor, version int16) (any, error) {
		array, err := binparse.ReadObjArrayBody(c, version, d.decodeAny)
		if err != nil {
			return nil, err
		}
		return &Object{
			Class:   class,
			Version: version,
			Members: []Member{
				{Name: "fName", Value: array.Name},
				{Name: "fLowerBound", Value: array.LowerBound},
			},
			Items: array.Items,
		}, nil
	})
}

func decodeList(d *Decoder, c *binparse.Cursor, class string) (any, error) {
	return binparse.Framed(c, func(c *binparse.Cursor, version int16) (any, error) {
		list, err := binparse.ReadListBody(c, version, d.decodeAny)
		if err != nil {
			return nil, err
		}
		return &Object{
			Class:   class,
			Version: version,
			Members: []Member{{Name: "fName", Value: list.Name}},
			Items:   list.Items,
		}, nil
	})
}

func decodeObjString(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
	return binparse.Framed(c, func(c *binparse.Cursor, version int16) (any, error) {
		object, err := c.ReadTObject()
		if err != nil {
			return nil, err
		}
		value, err := c.TString()
		if err != nil {
			return nil, err
		}
		return &Object{
			Class:   class,
			Version: version,
			Members: []Member{
				{Name: "TObject", Value: tobject(object), Base: true},
				{Name: "fString", Value: value},
			},
		}, nil
	})
}

// arrayDecoder decodes a TArray subclass: an int32 length followed by
// the values, with no preamble.
func arrayDecoder(element TypeTag) builtinFunc {
	return func(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
		n, err := c.Count(encodedSize(element, Range{}))
		if err != nil {
			return nil, err
		}
		values, err := readBasicArray(c, element, Range{}, n)
		if err != nil {
			return nil, err
		}
		return &Object{
			Class:   class,
			Members: []Member{{Name: "fArray", Value: values}},
		}, nil
	}
}

func skipObject(_ *Decoder, c *binparse.Cursor, class string) (any, error) {
	header, err := c.ReadVersion()
	if err != nil {
		return nil, err
	}
	if !header.HasByteCount() {
		return nil, binparse.Formatf(header.Start, "cannot skip %s without a byte count", class)
	}
	if err := c.Seek(header.End()); err != nil {
		return nil, err
	}
	return &Object{Class: class, Version: header.Version}, nil
}
