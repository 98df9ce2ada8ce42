// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

// Member type tags, as recorded in streamer elements.
const (
	TypeBase      = 0
	TypeChar      = 1
	TypeShort     = 2
	TypeInt       = 3
	TypeFloat     = 5
	TypeCounter   = 6
	TypeCharStar  = 7
	TypeDouble    = 8
	TypeDouble32  = 9
	TypeUChar     = 11
	TypeUShort    = 12
	TypeUInt      = 13
	TypeLong64    = 16
	TypeULong64   = 17
	TypeBool      = 18
	TypeFloat16   = 19
	TypeOffsetL   = 20
	TypeOffsetP   = 40
	TypeObject    = 61
	TypeObjectP   = 64
	TypeTString   = 65
	TypeTNamed    = 67
	TypeSTL       = 300
	TypeSTLstring = 365
)

// Element describes one streamer element. Class is the element
// subclass, such as "TStreamerBasicType".
type Element struct {
	Class       string
	Name        string
	Title       string
	TypeName    string
	Type        int32
	Size        int32
	ArrayLength int32

	// BaseVersion is written for TStreamerBase.
	BaseVersion int32
	// CountName and CountClass are written for TStreamerBasicPointer
	// and TStreamerLoop.
	CountName  string
	CountClass string
	// STLType and ContentType are written for TStreamerSTL.
	STLType     int32
	ContentType int32

	// ElementVersion selects the TStreamerElement layout; zero means 4.
	// Version 3 writes Min, Max and Factor.
	ElementVersion   int16
	Min, Max, Factor float64
}

// StreamerInfo describes one class version.
type StreamerInfo struct {
	Class    string
	Version  int32
	Checksum uint32
	Elements []Element
}

// BaseElement describes a base class.
func BaseElement(class string, version int32) Element {
	return Element{Class: "TStreamerBase", Name: class, TypeName: "BASE", Type: TypeBase, BaseVersion: version}
}

// BasicElement describes a scalar basic member.
func BasicElement(name, typeName string, tag int32) Element {
	return Element{Class: "TStreamerBasicType", Name: name, TypeName: typeName, Type: tag, Size: basicSize(tag)}
}

// ArrayElement describes a fixed-length array of a basic type.
func ArrayElement(name, typeName string, tag int32, n int32) Element {
	return Element{
		Class:       "TStreamerBasicType",
		Name:        name,
		TypeName:    typeName,
		Type:        TypeOffsetL + tag,
		Size:        n * basicSize(tag),
		ArrayLength: n,
	}
}

// CountedElement describes an array whose length is the sibling
// member countName.
func CountedElement(name, typeName string, tag int32, countName, countClass string) Element {
	return Element{
		Class:      "TStreamerBasicPointer",
		Name:       name,
		Title:      "[" + countName + "]",
		TypeName:   typeName + "*",
		Type:       TypeOffsetP + tag,
		Size:       basicSize(tag),
		CountName:  countName,
		CountClass: countClass,
	}
}

// ObjectElement describes an object streamed in place.
func ObjectElement(name, class string) Element {
	return Element{Class: "TStreamerObject", Name: name, TypeName: class, Type: TypeObject}
}

// PointerElement describes a pointer to an object.
func PointerElement(name, class string) Element {
	return Element{Class: "TStreamerObjectPointer", Name: name, TypeName: class + "*", Type: TypeObjectP, Size: 8}
}

// StringElement describes a TString member.
func StringElement(name string) Element {
	return Element{Class: "TStreamerString", Name: name, TypeName: "TString", Type: TypeTString, Size: 24}
}

// VectorElement describes a std::vector of a basic type.
func VectorElement(name, typeName string, content int32) Element {
	return Element{
		Class:       "TStreamerSTL",
		Name:        name,
		TypeName:    "vector<" + typeName + ">",
		Type:        TypeSTL,
		Size:        24,
		STLType:     1,
		ContentType: content,
	}
}

func basicSize(tag int32) int32 {
	switch tag {
	case TypeChar, TypeUChar, TypeBool:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeDouble, TypeLong64, TypeULong64:
		return 8
	default:
		return 4
	}
}

// WriteCatalogue writes the streamer catalogue payload: a TList of
// TStreamerInfo objects.
func WriteCatalogue(b *Buffer, infos []StreamerInfo) {
	b.List("", len(infos), func(b *Buffer, i int) {
		b.Object("TStreamerInfo", func(b *Buffer) { WriteStreamerInfo(b, infos[i]) })
	})
}

// WriteStreamerInfo writes the body of one TStreamerInfo object.
func WriteStreamerInfo(b *Buffer, info StreamerInfo) {
	b.Framed(9, func(b *Buffer) {
		b.TNamed(info.Class, "")
		b.U32(info.Checksum)
		b.I32(info.Version)
		b.Object("TObjArray", func(b *Buffer) {
			b.ObjArray("", len(info.Elements), func(b *Buffer, i int) {
				element := info.Elements[i]
				b.Object(element.Class, func(b *Buffer) { writeElement(b, element) })
			})
		})
	})
}

func writeElement(b *Buffer, element Element) {
	if element.Class == "TStreamerSTLstring" {
		b.Framed(2, func(b *Buffer) {
			b.Framed(3, func(b *Buffer) { writeElementBody(b, element) })
		})
		return
	}
	b.Framed(subclassVersion(element.Class), func(b *Buffer) { writeElementBody(b, element) })
}

func subclassVersion(class string) int16 {
	switch class {
	case "TStreamerBase", "TStreamerSTL":
		return 3
	default:
		return 2
	}
}

func writeElementBody(b *Buffer, element Element) {
	version := element.ElementVersion
	if version == 0 {
		version = 4
	}
	b.Framed(version, func(b *Buffer) {
		b.TNamed(element.Name, element.Title)
		b.I32(element.Type)
		b.I32(element.Size)
		b.I32(element.ArrayLength)
		dimensions := int32(0)
		if element.ArrayLength > 0 {
			dimensions = 1
		}
		b.I32(dimensions)
		if version == 1 {
			b.I32(5)
		}
		for i := 0; i < 5; i++ {
			if i == 0 {
				b.I32(element.ArrayLength)
			} else {
				b.I32(0)
			}
		}
		b.TString(element.TypeName)
		if version == 3 {
			b.F64(element.Min)
			b.F64(element.Max)
			b.F64(element.Factor)
		}
	})

	switch element.Class {
	case "TStreamerBase":
		b.I32(element.BaseVersion)
	case "TStreamerBasicPointer", "TStreamerLoop":
		b.I32(1)
		b.TString(element.CountName)
		b.TString(element.CountClass)
	case "TStreamerSTL", "TStreamerSTLstring":
		b.I32(element.STLType)
		b.I32(element.ContentType)
	}
}
