// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

// Pointer tags.
const (
	NullTag     = 0
	NewClassTag = 0xFFFFFFFF
	ClassMask   = 0x80000000
)

// isReferenced is the TObject bit that adds a process id to the
// serialized form.
const isReferenced = 1 << 4

// ObjectFunc decodes the body of an object of class. It should call
// bind with the value as soon as the value exists, so that references
// to the object from within its own members resolve; values that are
// never bound are registered after ObjectFunc returns.
type ObjectFunc func(c *Cursor, class string, bind func(value any)) (any, error)

// ReadObjectAny reads an object pointer. It returns nil for the null
// tag, the previously decoded value for an object reference, and
// otherwise the result of decode for the named class. The cursor ends
// just past the object's frame.
func ReadObjectAny(c *Cursor, decode ObjectFunc) (any, error) {
	start := c.pos
	first, err := c.U32()
	if err != nil {
		return nil, err
	}
	if first == NullTag {
		return nil, nil
	}

	end := -1
	tag := first
	if first&ByteCountMask != 0 && first != NewClassTag {
		end = start + 4 + int(first&^ByteCountMask)
		if end > c.limit {
			return nil, Formatf(start, "object byte count %d runs past limit %d", first&^ByteCountMask, c.limit)
		}
		if tag, err = c.U32(); err != nil {
			return nil, err
		}
	}

	var class string
	switch {
	case tag == NewClassTag:
		classPos := c.pos - 4
		if class, err = c.CString(); err != nil {
			return nil, err
		}
		c.ctx.classes[c.ctx.tagOf(classPos)] = class
	case tag&ClassMask != 0:
		if class, err = c.classAt(int(tag &^ ClassMask)); err != nil {
			return nil, err
		}
	default:
		if end >= 0 {
			return nil, Formatf(start, "object reference %#x inside a counted frame", tag)
		}
		value, ok := c.ctx.object(int(tag))
		if !ok {
			return nil, Formatf(start, "reference to unknown object tag %#x", tag)
		}
		return value, nil
	}

	objectTag := c.ctx.tagOf(start)
	bound := false
	bind := func(value any) {
		c.ctx.bindObject(objectTag, value)
		bound = true
	}

	body := c
	if end >= 0 {
		if body, err = c.Sub(end); err != nil {
			return nil, err
		}
	}
	value, err := decode(body, class, bind)
	if err != nil {
		return nil, err
	}
	if !bound {
		bind(value)
	}
	if end >= 0 {
		c.pos = end
	}
	return value, nil
}

// classAt resolves a class reference. Classes named earlier in this
// context are looked up directly; otherwise the name is re-read at the
// referenced position, which holds NewClassTag and the class name.
func (c *Cursor) classAt(tag int) (string, error) {
	if class, ok := c.ctx.classes[tag]; ok {
		return class, nil
	}
	pos := tag - c.ctx.Basis
	if pos < 0 || pos+4 > len(c.ctx.Buf) {
		return "", Formatf(c.pos, "class reference %#x outside buffer", tag)
	}
	peek := &Cursor{ctx: c.ctx, pos: pos, limit: len(c.ctx.Buf)}
	marker, err := peek.U32()
	if err != nil {
		return "", err
	}
	if marker != NewClassTag {
		return "", Formatf(c.pos, "class reference %#x does not point at a class name", tag)
	}
	class, err := peek.CString()
	if err != nil {
		return "", err
	}
	c.ctx.classes[tag] = class
	return class, nil
}

// TObject is the common base of every streamed object.
type TObject struct {
	UniqueID uint32
	Bits     uint32
}

// ReadTObject reads the TObject base.
func (c *Cursor) ReadTObject() (TObject, error) {
	if _, err := c.ReadVersion(); err != nil {
		return TObject{}, err
	}
	var object TObject
	var err error
	if object.UniqueID, err = c.U32(); err != nil {
		return TObject{}, err
	}
	if object.Bits, err = c.U32(); err != nil {
		return TObject{}, err
	}
	if object.Bits&isReferenced != 0 {
		if err := c.Skip(2); err != nil {
			return TObject{}, err
		}
	}
	return object, nil
}

// TNamed is a TObject with a name and title.
type TNamed struct {
	TObject
	Name  string
	Title string
}

// ReadTNamed reads a framed TNamed.
func (c *Cursor) ReadTNamed() (TNamed, error) {
	return Framed(c, readNamedBody)
}

func readNamedBody(c *Cursor, _ int16) (TNamed, error) {
	var named TNamed
	var err error
	if named.TObject, err = c.ReadTObject(); err != nil {
		return TNamed{}, err
	}
	if named.Name, err = c.TString(); err != nil {
		return TNamed{}, err
	}
	if named.Title, err = c.TString(); err != nil {
		return TNamed{}, err
	}
	return named, nil
}

// ObjArray is a decoded TObjArray.
type ObjArray struct {
	Name       string
	LowerBound int32
	Items      []any
}

// ReadObjArray reads a framed TObjArray whose elements are object
// pointers decoded with decode.
func ReadObjArray(c *Cursor, decode ObjectFunc) (ObjArray, error) {
	return Framed(c, func(c *Cursor, version int16) (ObjArray, error) {
		return ReadObjArrayBody(c, version, decode)
	})
}

// ReadObjArrayBody reads a TObjArray after its preamble.
func ReadObjArrayBody(c *Cursor, version int16, decode ObjectFunc) (ObjArray, error) {
	var array ObjArray
	var err error
	if version > 2 {
		if _, err = c.ReadTObject(); err != nil {
			return ObjArray{}, err
		}
	}
	if version > 1 {
		if array.Name, err = c.TString(); err != nil {
			return ObjArray{}, err
		}
	}
	n, err := c.Count(4)
	if err != nil {
		return ObjArray{}, err
	}
	if array.LowerBound, err = c.I32(); err != nil {
		return ObjArray{}, err
	}
	array.Items = make([]any, 0, n)
	for i := 0; i < n; i++ {
		item, err := ReadObjectAny(c, decode)
		if err != nil {
			return ObjArray{}, err
		}
		array.Items = append(array.Items, item)
	}
	return array, nil
}

// List is a decoded TList. Options holds the per-entry option string.
type List struct {
	Name    string
	Items   []any
	Options []string
}

// ReadList reads a framed TList whose elements are decoded with decode.
func ReadList(c *Cursor, decode ObjectFunc) (List, error) {
	return Framed(c, func(c *Cursor, version int16) (List, error) {
		return ReadListBody(c, version, decode)
	})
}

// ReadListBody reads a TList after its preamble.
func ReadListBody(c *Cursor, version int16, decode ObjectFunc) (List, error) {
	var list List
	var err error
	if version > 3 {
		if _, err = c.ReadTObject(); err != nil {
			return List{}, err
		}
	}
	if list.Name, err = c.TString(); err != nil {
		return List{}, err
	}
	n, err := c.Count(4)
	if err != nil {
		return List{}, err
	}
	list.Items = make([]any, 0, n)
	list.Options = make([]string, 0, n)
	for i := 0; i < n; i++ {
		item, err := ReadObjectAny(c, decode)
		if err != nil {
			return List{}, err
		}
		optionLength, err := c.U8()
		if err != nil {
			return List{}, err
		}
		option, err := c.Bytes(int(optionLength))
		if err != nil {
			return List{}, err
		}
		list.Items = append(list.Items, item)
		list.Options = append(list.Options, string(option))
	}
	return list, nil
}

// NameList reads a framed TObjArray of named objects and returns their
// names in order. Null entries yield empty names.
func NameList(c *Cursor) ([]string, error) {
	array, err := ReadObjArray(c, decodeNamed)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(array.Items))
	for i, item := range array.Items {
		if named, ok := item.(TNamed); ok {
			names[i] = named.Name
		}
	}
	return names, nil
}

// decodeNamed reads an element streamed as a plain TNamed.
func decodeNamed(c *Cursor, _ string, _ func(any)) (any, error) {
	return c.ReadTNamed()
}
