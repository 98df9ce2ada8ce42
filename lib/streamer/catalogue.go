// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"

	"github.com/bureau-foundation/rootscan/lib/binparse"
)

// ParseCatalogue decodes the streamer catalogue record: a TList whose
// TStreamerInfo entries are returned in order. Other entries (schema
// evolution rule lists) are skipped.
func ParseCatalogue(c *binparse.Cursor) ([]*Info, error) {
	list, err := binparse.ReadList(c, decodeCatalogueEntry)
	if err != nil {
		return nil, fmt.Errorf("reading streamer catalogue: %w", err)
	}
	infos := make([]*Info, 0, len(list.Items))
	for _, item := range list.Items {
		if info, ok := item.(*Info); ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

type skipped struct{ class string }

func decodeCatalogueEntry(c *binparse.Cursor, class string, _ func(any)) (any, error) {
	if class != "TStreamerInfo" {
		return skipped{class}, nil
	}
	return binparse.Framed(c, readStreamerInfo)
}

func readStreamerInfo(c *binparse.Cursor, _ int16) (*Info, error) {
	named, err := c.ReadTNamed()
	if err != nil {
		return nil, err
	}
	info := &Info{Class: named.Name}
	if info.Checksum, err = c.U32(); err != nil {
		return nil, err
	}
	if info.Version, err = c.I32(); err != nil {
		return nil, err
	}

	elements, err := binparse.ReadObjectAny(c, func(c *binparse.Cursor, class string, _ func(any)) (any, error) {
		if class != "TObjArray" {
			return nil, binparse.Formatf(c.Pos(), "streamer info %s: elements stored as %s, want TObjArray", info.Class, class)
		}
		return binparse.ReadObjArray(c, decodeElement)
	})
	if err != nil {
		return nil, fmt.Errorf("reading elements of %s: %w", info.Class, err)
	}
	if array, ok := elements.(binparse.ObjArray); ok {
		for _, item := range array.Items {
			if field, ok := item.(*Field); ok {
				info.Fields = append(info.Fields, *field)
			}
		}
	}
	return info, nil
}

func decodeElement(c *binparse.Cursor, class string, _ func(any)) (any, error) {
	kind, ok := kindClasses[class]
	if !ok {
		return nil, binparse.Formatf(c.Pos(), "unknown streamer element class %s", class)
	}
	return binparse.Framed(c, func(c *binparse.Cursor, version int16) (*Field, error) {
		var field *Field
		var err error
		if kind == KindSTLstring {
			// TStreamerSTLstring wraps a complete TStreamerSTL.
			field, err = binparse.Framed(c, func(c *binparse.Cursor, version int16) (*Field, error) {
				return readElementBody(c, version, KindSTL)
			})
			if field != nil {
				field.Kind = KindSTLstring
			}
		} else {
			field, err = readElementBody(c, version, kind)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", class, err)
		}
		field.Count = countRule(field)
		return field, nil
	})
}

// readElementBody reads the TStreamerElement base and the members the
// subclass adds after it.
func readElementBody(c *binparse.Cursor, version int16, kind ElementKind) (*Field, error) {
	field, err := binparse.Framed(c, readElement)
	if err != nil {
		return nil, err
	}
	field.Kind = kind

	switch kind {
	case KindBase:
		if version > 2 {
			if field.BaseVersion, err = c.I32(); err != nil {
				return nil, err
			}
		}
	case KindBasicPointer, KindLoop:
		if field.CountVersion, err = c.I32(); err != nil {
			return nil, err
		}
		if field.CountName, err = c.TString(); err != nil {
			return nil, err
		}
		if field.CountClass, err = c.TString(); err != nil {
			return nil, err
		}
	case KindSTL:
		if field.STLType, err = c.I32(); err != nil {
			return nil, err
		}
		if field.ContentType, err = c.I32(); err != nil {
			return nil, err
		}
	}
	return field, nil
}

func readElement(c *binparse.Cursor, version int16) (*Field, error) {
	named, err := c.ReadTNamed()
	if err != nil {
		return nil, err
	}
	field := &Field{Name: named.Name, Title: named.Title}

	var tag int32
	if tag, err = c.I32(); err != nil {
		return nil, err
	}
	field.Type = TypeTag(tag)
	if field.Size, err = c.I32(); err != nil {
		return nil, err
	}
	if field.ArrayLength, err = c.I32(); err != nil {
		return nil, err
	}
	if field.ArrayDim, err = c.I32(); err != nil {
		return nil, err
	}
	if version == 1 {
		n, err := c.Count(4)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			value, err := c.I32()
			if err != nil {
				return nil, err
			}
			if i < len(field.MaxIndex) {
				field.MaxIndex[i] = value
			}
		}
	} else {
		for i := range field.MaxIndex {
			if field.MaxIndex[i], err = c.I32(); err != nil {
				return nil, err
			}
		}
	}
	if field.TypeName, err = c.TString(); err != nil {
		return nil, err
	}
	if field.Type == TypeUChar && (field.TypeName == "Bool_t" || field.TypeName == "bool") {
		field.Type = TypeBool
	}

	if version == 3 {
		if field.Range.Min, err = c.F64(); err != nil {
			return nil, err
		}
		if field.Range.Max, err = c.F64(); err != nil {
			return nil, err
		}
		if field.Range.Factor, err = c.F64(); err != nil {
			return nil, err
		}
		if field.Range.Factor == 0 && field.Range.Min > 0 {
			// Truncated-mantissa members store their width in Min.
			field.Range.Bits = int(field.Range.Min)
		}
	} else if basic := field.Type.Basic(); basic == TypeDouble32 || basic == TypeFloat16 {
		if r, ok := parseRange(field.Title); ok {
			field.Range = r
		}
	}
	return field, nil
}

func countRule(field *Field) CountRule {
	switch {
	case field.Kind == KindBasicPointer || field.Kind == KindLoop:
		if field.CountName != "" {
			return Counted(field.CountName)
		}
	case field.ArrayLength > 0:
		return Fixed(int(field.ArrayLength))
	}
	return Scalar()
}
