// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import "fmt"

// TypeTag is the numeric member type recorded in a streamer element.
type TypeTag int32

const (
	TypeBase       TypeTag = 0
	TypeChar       TypeTag = 1
	TypeShort      TypeTag = 2
	TypeInt        TypeTag = 3
	TypeLong       TypeTag = 4
	TypeFloat      TypeTag = 5
	TypeCounter    TypeTag = 6
	TypeCharStar   TypeTag = 7
	TypeDouble     TypeTag = 8
	TypeDouble32   TypeTag = 9
	TypeLegacyChar TypeTag = 10
	TypeUChar      TypeTag = 11
	TypeUShort     TypeTag = 12
	TypeUInt       TypeTag = 13
	TypeULong      TypeTag = 14
	TypeBits       TypeTag = 15
	TypeLong64     TypeTag = 16
	TypeULong64    TypeTag = 17
	TypeBool       TypeTag = 18
	TypeFloat16    TypeTag = 19

	// TypeOffsetL is added to a basic type for fixed-length arrays.
	TypeOffsetL TypeTag = 20
	// TypeOffsetP is added to a basic type for arrays whose length is
	// held by another member.
	TypeOffsetP TypeTag = 40

	TypeObject     TypeTag = 61
	TypeAny        TypeTag = 62
	TypeObjectp    TypeTag = 63
	TypeObjectP    TypeTag = 64
	TypeTString    TypeTag = 65
	TypeTObject    TypeTag = 66
	TypeTNamed     TypeTag = 67
	TypeAnyp       TypeTag = 68
	TypeAnyP       TypeTag = 69
	TypeAnyPnoVT   TypeTag = 70
	TypeSTLp       TypeTag = 71
	TypeSTL        TypeTag = 300
	TypeSTLstring  TypeTag = 365
	TypeStreamer   TypeTag = 500
	TypeStreamLoop TypeTag = 501
)

var basicNames = [...]string{
	TypeChar:       "Char_t",
	TypeShort:      "Short_t",
	TypeInt:        "Int_t",
	TypeLong:       "Long_t",
	TypeFloat:      "Float_t",
	TypeCounter:    "Counter",
	TypeCharStar:   "char*",
	TypeDouble:     "Double_t",
	TypeDouble32:   "Double32_t",
	TypeLegacyChar: "LegacyChar",
	TypeUChar:      "UChar_t",
	TypeUShort:     "UShort_t",
	TypeUInt:       "UInt_t",
	TypeULong:      "ULong_t",
	TypeBits:       "Bits",
	TypeLong64:     "Long64_t",
	TypeULong64:    "ULong64_t",
	TypeBool:       "Bool_t",
	TypeFloat16:    "Float16_t",
}

func (tag TypeTag) String() string {
	switch {
	case tag == TypeBase:
		return "base"
	case tag.IsBasic():
		return basicNames[tag]
	case tag > TypeOffsetL && tag < TypeOffsetP:
		return basicNames[tag-TypeOffsetL] + "[]"
	case tag > TypeOffsetP && tag < TypeObject:
		return basicNames[tag-TypeOffsetP] + "*"
	}
	switch tag {
	case TypeObject:
		return "object"
	case TypeAny:
		return "any"
	case TypeObjectp:
		return "object*(inline)"
	case TypeObjectP:
		return "object*"
	case TypeTString:
		return "TString"
	case TypeTObject:
		return "TObject"
	case TypeTNamed:
		return "TNamed"
	case TypeAnyp:
		return "any*(inline)"
	case TypeAnyP:
		return "any*"
	case TypeAnyPnoVT:
		return "any*(novtable)"
	case TypeSTLp:
		return "stl*"
	case TypeSTL:
		return "stl"
	case TypeSTLstring:
		return "std::string"
	case TypeStreamer:
		return "streamer"
	case TypeStreamLoop:
		return "streamloop"
	default:
		return fmt.Sprintf("type(%d)", int32(tag))
	}
}

// IsBasic reports whether tag is a scalar basic type.
func (tag TypeTag) IsBasic() bool { return tag >= TypeChar && tag <= TypeFloat16 }

// IsFixedArray reports whether tag is a basic type in a fixed-length
// array.
func (tag TypeTag) IsFixedArray() bool { return tag > TypeOffsetL && tag < TypeOffsetP }

// IsCountedArray reports whether tag is a basic type in an array
// counted by a sibling member.
func (tag TypeTag) IsCountedArray() bool { return tag > TypeOffsetP && tag < TypeObject }

// Basic returns the scalar type underlying a basic, fixed-array or
// counted-array tag.
func (tag TypeTag) Basic() TypeTag {
	switch {
	case tag.IsFixedArray():
		return tag - TypeOffsetL
	case tag.IsCountedArray():
		return tag - TypeOffsetP
	default:
		return tag
	}
}

// ElementKind identifies the streamer element subclass a field was
// described by.
type ElementKind uint8

const (
	KindBasicType ElementKind = iota
	KindBase
	KindBasicPointer
	KindLoop
	KindObject
	KindObjectPointer
	KindObjectAny
	KindObjectAnyPointer
	KindString
	KindSTL
	KindSTLstring
	KindArtificial
)

var kindClasses = map[string]ElementKind{
	"TStreamerBasicType":        KindBasicType,
	"TStreamerBase":             KindBase,
	"TStreamerBasicPointer":     KindBasicPointer,
	"TStreamerLoop":             KindLoop,
	"TStreamerObject":           KindObject,
	"TStreamerObjectPointer":    KindObjectPointer,
	"TStreamerObjectAny":        KindObjectAny,
	"TStreamerObjectAnyPointer": KindObjectAnyPointer,
	"TStreamerString":           KindString,
	"TStreamerSTL":              KindSTL,
	"TStreamerSTLstring":        KindSTLstring,
	"TStreamerArtificial":       KindArtificial,
}

var kindNames = [...]string{
	KindBasicType:        "TStreamerBasicType",
	KindBase:             "TStreamerBase",
	KindBasicPointer:     "TStreamerBasicPointer",
	KindLoop:             "TStreamerLoop",
	KindObject:           "TStreamerObject",
	KindObjectPointer:    "TStreamerObjectPointer",
	KindObjectAny:        "TStreamerObjectAny",
	KindObjectAnyPointer: "TStreamerObjectAnyPointer",
	KindString:           "TStreamerString",
	KindSTL:              "TStreamerSTL",
	KindSTLstring:        "TStreamerSTLstring",
	KindArtificial:       "TStreamerArtificial",
}

func (kind ElementKind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return fmt.Sprintf("kind(%d)", uint8(kind))
}

// CountRule says how many values a member holds.
type CountRule struct {
	fixed   int
	counter string
}

// Scalar is the rule for single-valued members.
func Scalar() CountRule { return CountRule{} }

// Fixed is the rule for members holding exactly n values.
func Fixed(n int) CountRule { return CountRule{fixed: n} }

// Counted is the rule for members whose length is held by the sibling
// member named counter.
func Counted(counter string) CountRule { return CountRule{counter: counter} }

// IsScalar reports whether the rule is Scalar.
func (rule CountRule) IsScalar() bool { return rule.fixed == 0 && rule.counter == "" }

// FixedLength returns n for Fixed(n).
func (rule CountRule) FixedLength() (int, bool) { return rule.fixed, rule.fixed > 0 }

// Counter returns the counter member name for Counted rules.
func (rule CountRule) Counter() (string, bool) { return rule.counter, rule.counter != "" }

func (rule CountRule) String() string {
	switch {
	case rule.counter != "":
		return "counted(" + rule.counter + ")"
	case rule.fixed > 0:
		return fmt.Sprintf("fixed(%d)", rule.fixed)
	default:
		return "scalar"
	}
}
