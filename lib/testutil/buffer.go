// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/binary"
	"math"
)

// Tag values used by the object framing.
const (
	byteCountMask = 0x40000000
	newClassTag   = 0xFFFFFFFF
	classMask     = 0x80000000
	mapOffset     = 2

	// kNotDeleted | kIsOnHeap, the bits every written TObject carries.
	objectBits = 0x03000000
)

// Buffer accumulates the serialized form of objects.
type Buffer struct {
	data    []byte
	basis   int
	classes map[string]int
}

// NewBuffer returns a buffer for a payload stored behind a key header
// of keyLen bytes. keyLen only affects the object and class tags.
func NewBuffer(keyLen int) *Buffer {
	return &Buffer{basis: keyLen + mapOffset, classes: make(map[string]int)}
}

// Bytes returns the written bytes.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return len(b.data) }

// NextTag returns the tag an object written at the current position
// will be referenced by.
func (b *Buffer) NextTag() int { return len(b.data) + b.basis }

func (b *Buffer) Raw(data []byte) { b.data = append(b.data, data...) }
func (b *Buffer) U8(v uint8)      { b.data = append(b.data, v) }
func (b *Buffer) I8(v int8)       { b.data = append(b.data, byte(v)) }
func (b *Buffer) U16(v uint16)    { b.data = binary.BigEndian.AppendUint16(b.data, v) }
func (b *Buffer) I16(v int16)     { b.U16(uint16(v)) }
func (b *Buffer) U32(v uint32)    { b.data = binary.BigEndian.AppendUint32(b.data, v) }
func (b *Buffer) I32(v int32)     { b.U32(uint32(v)) }
func (b *Buffer) U64(v uint64)    { b.data = binary.BigEndian.AppendUint64(b.data, v) }
func (b *Buffer) I64(v int64)     { b.U64(uint64(v)) }
func (b *Buffer) F32(v float32)   { b.U32(math.Float32bits(v)) }
func (b *Buffer) F64(v float64)   { b.U64(math.Float64bits(v)) }

// Seek32 writes a seek pointer in its 32-bit form.
func (b *Buffer) Seek32(v int64) { b.I32(int32(v)) }

func (b *Buffer) Bool(v bool) {
	if v {
		b.U8(1)
	} else {
		b.U8(0)
	}
}

// TString writes a length-prefixed string, using the long form for
// strings of 255 bytes or more.
func (b *Buffer) TString(s string) {
	if len(s) < 255 {
		b.U8(uint8(len(s)))
	} else {
		b.U8(255)
		b.I32(int32(len(s)))
	}
	b.Raw([]byte(s))
}

// CString writes a NUL-terminated string.
func (b *Buffer) CString(s string) {
	b.Raw([]byte(s))
	b.U8(0)
}

// TruncatedFloat writes value with the truncated-mantissa codec.
func (b *Buffer) TruncatedFloat(value float32, nbits int) {
	exponent, mantissa := EncodeTruncatedFloat(value, nbits)
	b.U8(exponent)
	b.U16(mantissa)
}

// Framed writes a byte count and version, then body, then patches the
// byte count.
func (b *Buffer) Framed(version int16, body func(b *Buffer)) {
	start := len(b.data)
	b.U32(0)
	b.I16(version)
	body(b)
	b.patchCount(start)
}

func (b *Buffer) patchCount(start int) {
	count := uint32(len(b.data)-start-4) | byteCountMask
	binary.BigEndian.PutUint32(b.data[start:], count)
}

// Object writes an object pointer to a new object of class: byte
// count, class name or class reference, then body. It returns the tag
// later references to the object use.
func (b *Buffer) Object(class string, body func(b *Buffer)) int {
	start := len(b.data)
	tag := b.NextTag()
	b.U32(0)
	if classTag, ok := b.classes[class]; ok {
		b.U32(uint32(classTag) | classMask)
	} else {
		b.classes[class] = b.NextTag()
		b.U32(newClassTag)
		b.CString(class)
	}
	body(b)
	b.patchCount(start)
	return tag
}

// Ref writes a reference to an object written earlier.
func (b *Buffer) Ref(tag int) { b.U32(uint32(tag)) }

// Null writes the null object pointer.
func (b *Buffer) Null() { b.U32(0) }

// TObject writes a TObject base: version 1 without byte count.
func (b *Buffer) TObject() {
	b.I16(1)
	b.U32(0)
	b.U32(objectBits)
}

// TNamed writes a framed TNamed.
func (b *Buffer) TNamed(name, title string) {
	b.Framed(1, func(b *Buffer) {
		b.TObject()
		b.TString(name)
		b.TString(title)
	})
}

// ObjArray writes a framed TObjArray of n items; item writes the i-th
// object pointer.
func (b *Buffer) ObjArray(name string, n int, item func(b *Buffer, i int)) {
	b.Framed(3, func(b *Buffer) {
		b.TObject()
		b.TString(name)
		b.I32(int32(n))
		b.I32(0)
		for i := 0; i < n; i++ {
			item(b, i)
		}
	})
}

// List writes a framed TList of n items with empty options.
func (b *Buffer) List(name string, n int, item func(b *Buffer, i int)) {
	b.Framed(5, func(b *Buffer) {
		b.TObject()
		b.TString(name)
		b.I32(int32(n))
		for i := 0; i < n; i++ {
			item(b, i)
			b.U8(0)
		}
	})
}

// NamedList writes a TObjArray of TNamed objects, the layout of
// trigger class lists.
func (b *Buffer) NamedList(names []string) {
	b.ObjArray("", len(names), func(b *Buffer, i int) {
		b.Object("TNamed", func(b *Buffer) { b.TNamed(names[i], "") })
	})
}
