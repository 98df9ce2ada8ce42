// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Info describes the on-disk layout of one version of a class.
type Info struct {
	Class    string
	Version  int32
	Checksum uint32
	Fields   []Field
}

// Field returns the field named name.
func (info *Info) Field(name string) (*Field, bool) {
	for i := range info.Fields {
		if info.Fields[i].Name == name {
			return &info.Fields[i], true
		}
	}
	return nil, false
}

func (info *Info) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s v%d (checksum %#08x)\n", info.Class, info.Version, info.Checksum)
	for _, field := range info.Fields {
		fmt.Fprintf(&builder, "  %-24s %-20s %-14s %s\n", field.Name, field.TypeName, field.Type, field.Count)
	}
	return builder.String()
}

// Field is one member of a class in streaming order.
type Field struct {
	Name     string
	Title    string
	TypeName string
	Type     TypeTag
	Kind     ElementKind
	Count    CountRule

	Size        int32
	ArrayLength int32
	ArrayDim    int32
	MaxIndex    [5]int32

	// BaseVersion is the class version of a base class member.
	BaseVersion int32

	// Counter description for counted arrays and loops.
	CountName    string
	CountClass   string
	CountVersion int32

	// STL container and content types for STL members.
	STLType     int32
	ContentType int32

	// Range holds the packing parameters of Double32_t and Float16_t
	// members.
	Range Range
}

// Range describes how a Double32_t or Float16_t value is packed. With a
// non-zero Factor the value is a scaled uint32; otherwise Bits, when
// non-zero, selects the truncated-mantissa encoding.
type Range struct {
	Min, Max float64
	Factor   float64
	Bits     int
}

// parseRange reads "[min,max]" or "[min,max,bits]" from a member
// title. A leading dimension bracket without a comma is skipped.
func parseRange(title string) (Range, bool) {
	body, ok := rangeBody(title)
	if !ok {
		return Range{}, false
	}
	parts := strings.Split(body, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Range{}, false
	}

	bits := 32
	if len(parts) == 3 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || n < 2 || n > 32 {
			n = 32
		}
		bits = n
	}
	min, err := parseBound(parts[0])
	if err != nil {
		return Range{}, false
	}
	max, err := parseBound(parts[1])
	if err != nil {
		return Range{}, false
	}

	r := Range{Min: min, Max: max}
	if min < max {
		bigint := float64(uint32(math.MaxUint32))
		if bits < 32 {
			bigint = float64(uint32(1) << bits)
		}
		r.Factor = bigint / (max - min)
	} else if bits < 15 {
		r.Bits = bits
	}
	return r, true
}

func rangeBody(title string) (string, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		left := strings.IndexByte(title, '[')
		if left < 0 {
			return "", false
		}
		right := strings.IndexByte(title[left:], ']')
		if right < 0 {
			return "", false
		}
		body := title[left+1 : left+right]
		if strings.Contains(body, ",") {
			return body, true
		}
		title = title[left+right+1:]
	}
	return "", false
}

// parseBound parses a range bound: a number or a multiple of pi such as
// "-pi", "2pi" or "2*pi".
func parseBound(text string) (float64, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if value, err := strconv.ParseFloat(text, 64); err == nil {
		return value, nil
	}
	if !strings.HasSuffix(text, "pi") {
		return 0, fmt.Errorf("unparseable range bound %q", text)
	}
	coefficient := strings.TrimSuffix(strings.TrimSuffix(text, "pi"), "*")
	switch coefficient {
	case "", "+":
		return math.Pi, nil
	case "-":
		return -math.Pi, nil
	case "two":
		return 2 * math.Pi, nil
	}
	value, err := strconv.ParseFloat(coefficient, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable range bound %q", text)
	}
	return value * math.Pi, nil
}
