// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/rootscan/lib/binparse"
)

// memberwiseFlag marks STL containers streamed member by member.
const memberwiseFlag = 0x4000

// defaultFloat16Bits is the mantissa width of range-less Float16_t.
const defaultFloat16Bits = 12

// Decoder decodes objects using a Registry. A Decoder holds no
// per-parse state and may be shared.
type Decoder struct {
	registry *Registry
}

// NewDecoder returns a decoder backed by registry.
func NewDecoder(registry *Registry) *Decoder {
	return &Decoder{registry: registry}
}

// Registry returns the registry the decoder looks classes up in.
func (d *Decoder) Registry() *Registry { return d.registry }

// Decode reads an object of class streamed in place: its preamble
// followed by its members. The result is an *Object, or a *Basket for
// TBasket.
func (d *Decoder) Decode(c *binparse.Cursor, class string) (any, error) {
	if builtin, ok := builtins[class]; ok {
		return builtin(d, c, class)
	}
	object := &Object{Class: class}
	if err := d.decodeInto(c, object); err != nil {
		return nil, err
	}
	return object, nil
}

// DecodeObject is Decode for classes that yield an *Object.
func (d *Decoder) DecodeObject(c *binparse.Cursor, class string) (*Object, error) {
	value, err := d.Decode(c, class)
	if err != nil {
		return nil, err
	}
	object, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("decoding %s: got %T, want an object", class, value)
	}
	return object, nil
}

// ReadObjectAny reads an object pointer and decodes what it points to.
func (d *Decoder) ReadObjectAny(c *binparse.Cursor) (any, error) {
	return binparse.ReadObjectAny(c, d.decodeAny)
}

func (d *Decoder) decodeAny(c *binparse.Cursor, class string, bind func(any)) (any, error) {
	if builtin, ok := builtins[class]; ok {
		return builtin(d, c, class)
	}
	object := &Object{Class: class}
	bind(object)
	if err := d.decodeInto(c, object); err != nil {
		return nil, err
	}
	return object, nil
}

func (d *Decoder) decodeInto(c *binparse.Cursor, object *Object) error {
	header, err := c.ReadVersion()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", object.Class, err)
	}
	object.Version = header.Version

	info, err := d.registry.Lookup(object.Class, header.Version)
	if err != nil {
		return err
	}

	body := c
	if header.HasByteCount() {
		if body, err = c.Sub(header.End()); err != nil {
			return err
		}
	}
	object.Members = make([]Member, 0, len(info.Fields))
	for i := range info.Fields {
		field := &info.Fields[i]
		value, err := d.decodeField(body, object, field)
		if err != nil {
			return fmt.Errorf("decoding %s.%s: %w", object.Class, field.Name, err)
		}
		object.Members = append(object.Members, Member{
			Name:  field.Name,
			Value: value,
			Base:  field.Kind == KindBase || field.Type == TypeBase,
		})
	}
	if header.HasByteCount() {
		return c.Seek(header.End())
	}
	return nil
}

func (d *Decoder) decodeField(c *binparse.Cursor, owner *Object, field *Field) (any, error) {
	tag := field.Type
	switch {
	case field.Kind == KindBase || tag == TypeBase:
		return d.Decode(c, field.Name)

	case tag == TypeCharStar:
		return c.CharStar()

	case tag.IsBasic():
		if n, ok := field.Count.FixedLength(); ok {
			return readBasicArray(c, tag, field.Range, n)
		}
		return readBasic(c, tag, field.Range)

	case tag.IsFixedArray():
		n, ok := field.Count.FixedLength()
		if !ok {
			n = int(field.ArrayLength)
		}
		return readBasicArray(c, tag.Basic(), field.Range, n)

	case tag.IsCountedArray():
		return d.readCountedArray(c, owner, field)

	case tag == TypeTString, tag == TypeSTLstring:
		return repeat(c, field, (*binparse.Cursor).TString)

	case tag == TypeTObject:
		return repeat(c, field, func(c *binparse.Cursor) (any, error) {
			return d.Decode(c, "TObject")
		})

	case tag == TypeTNamed:
		return repeat(c, field, func(c *binparse.Cursor) (any, error) {
			return d.Decode(c, "TNamed")
		})

	case tag == TypeObject, tag == TypeAny, tag == TypeObjectp, tag == TypeAnyp:
		class := elementClass(field.TypeName)
		return repeat(c, field, func(c *binparse.Cursor) (any, error) {
			return d.Decode(c, class)
		})

	case tag == TypeObjectP, tag == TypeAnyP, tag == TypeAnyPnoVT:
		return repeat(c, field, d.ReadObjectAny)

	case tag == TypeSTL || field.Kind == KindSTL:
		return d.readSTL(c, field)

	case tag == TypeStreamer, tag == TypeStreamLoop, tag == TypeSTLp:
		return skipFramed(c, field.TypeName, "custom streamer")

	default:
		return nil, binparse.Formatf(c.Pos(), "unsupported member type %s (%d)", tag, int32(tag))
	}
}

// repeat decodes a scalar member, or a fixed array of them.
func repeat[T any](c *binparse.Cursor, field *Field, read func(c *binparse.Cursor) (T, error)) (any, error) {
	n, ok := field.Count.FixedLength()
	if !ok {
		return read(c)
	}
	values := make([]any, n)
	for i := range values {
		value, err := read(c)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func elementClass(typeName string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(typeName), "*"))
}

func (d *Decoder) readCountedArray(c *binparse.Cursor, owner *Object, field *Field) (any, error) {
	counterName, _ := field.Count.Counter()
	if counterName == "" {
		counterName = field.CountName
	}
	count, err := owner.Int64(counterName)
	if err != nil {
		return nil, binparse.Formatf(c.Pos(), "counter for %s: %v", field.Name, err)
	}
	if count < 0 {
		return nil, binparse.Formatf(c.Pos(), "negative counter %s = %d", counterName, count)
	}
	present, err := c.U8()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	return readBasicArray(c, field.Type.Basic(), field.Range, int(count))
}

func (d *Decoder) readSTL(c *binparse.Cursor, field *Field) (any, error) {
	header, err := c.ReadVersion()
	if err != nil {
		return nil, err
	}
	if !header.HasByteCount() {
		return nil, binparse.Formatf(header.Start, "STL member %s without byte count", field.Name)
	}
	end := header.End()
	if header.Version&memberwiseFlag != 0 {
		return Skipped{Class: field.TypeName, Reason: "memberwise container", Bytes: header.ByteCount}, c.Seek(end)
	}
	body, err := c.Sub(end)
	if err != nil {
		return nil, err
	}

	var value any
	content := TypeTag(field.ContentType)
	switch {
	case content.IsBasic():
		n, err := body.Count(encodedSize(content, Range{}))
		if err != nil {
			return nil, err
		}
		if value, err = readBasicArray(body, content, Range{}, n); err != nil {
			return nil, err
		}
	case content == TypeSTLstring, content == TypeTString, strings.Contains(field.TypeName, "string"):
		n, err := body.Count(1)
		if err != nil {
			return nil, err
		}
		values := make([]any, n)
		for i := range values {
			if values[i], err = body.TString(); err != nil {
				return nil, err
			}
		}
		value = values
	default:
		value = Skipped{Class: field.TypeName, Reason: "container of objects", Bytes: header.ByteCount}
	}
	return value, c.Seek(end)
}

// skipFramed moves past a framed member the decoder cannot interpret.
func skipFramed(c *binparse.Cursor, class, reason string) (any, error) {
	header, err := c.ReadVersion()
	if err != nil {
		return nil, err
	}
	if !header.HasByteCount() {
		return nil, binparse.Formatf(header.Start, "cannot skip %s (%s) without a byte count", class, reason)
	}
	return Skipped{Class: class, Reason: reason, Bytes: header.ByteCount}, c.Seek(header.End())
}
