// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"fmt"
	"strings"
)

// Object is a generically decoded instance of a streamed class.
//
// Member values are Go scalars (int8 through uint64, float32, float64,
// bool, string), slices of scalars for arrays, *Object for nested
// objects and pointers (nil for null pointers), *Basket for embedded
// baskets, []any for STL containers of strings, or Skipped for framed
// members the decoder steps over. Base classes are
// members flagged Base whose value is the *Object of the base.
// Collections (TObjArray, TList) keep their elements in Items.
type Object struct {
	Class   string
	Version int16
	Members []Member
	Items   []any
}

// Skipped marks a member whose bytes were stepped over without being
// decoded: memberwise-streamed containers, containers of objects, and
// members written by custom streamers. It is never nil, so a skipped
// member is distinguishable from a null pointer.
type Skipped struct {
	Class  string
	Reason string
	// Bytes is the length of the skipped frame after its byte count.
	Bytes int
}

func (s Skipped) String() string {
	return fmt.Sprintf("skipped %s (%s, %d bytes)", s.Class, s.Reason, s.Bytes)
}

// Member is one decoded field.
type Member struct {
	Name  string
	Value any
	Base  bool
}

// Get returns the value of member name, searching base classes depth
// first after the object's own members.
func (o *Object) Get(name string) (any, bool) {
	for _, member := range o.Members {
		if !member.Base && member.Name == name {
			return member.Value, true
		}
	}
	for _, member := range o.Members {
		if !member.Base {
			continue
		}
		if base, ok := member.Value.(*Object); ok && base != nil {
			if value, ok := base.Get(name); ok {
				return value, true
			}
		}
	}
	return nil, false
}

// Base returns the embedded base class object named class.
func (o *Object) Base(class string) (*Object, bool) {
	for _, member := range o.Members {
		if !member.Base {
			continue
		}
		base, ok := member.Value.(*Object)
		if !ok || base == nil {
			continue
		}
		if member.Name == class {
			return base, true
		}
		if nested, ok := base.Base(class); ok {
			return nested, true
		}
	}
	return nil, false
}

// InheritsFrom reports whether the object is of class or derives from
// it.
func (o *Object) InheritsFrom(class string) bool {
	if o.Class == class {
		return true
	}
	_, ok := o.Base(class)
	return ok
}

func (o *Object) member(name string) (any, error) {
	value, ok := o.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s has no member %s", o.Class, name)
	}
	return value, nil
}

// Int64 returns an integer member widened to int64.
func (o *Object) Int64(name string) (int64, error) {
	value, err := o.member(name)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(value)
	if !ok {
		return 0, fmt.Errorf("%s.%s is %T, not an integer", o.Class, name, value)
	}
	return n, nil
}

// Float64 returns a numeric member as float64.
func (o *Object) Float64(name string) (float64, error) {
	value, err := o.member(name)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	if n, ok := toInt64(value); ok {
		return float64(n), nil
	}
	return 0, fmt.Errorf("%s.%s is %T, not a number", o.Class, name, value)
}

// String returns a string member.
func (o *Object) String(name string) (string, error) {
	value, err := o.member(name)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s is %T, not a string", o.Class, name, value)
	}
	return s, nil
}

// Object returns a nested object member. A null pointer yields nil
// without error.
func (o *Object) Object(name string) (*Object, error) {
	value, err := o.member(name)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	nested, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("%s.%s is %T, not an object", o.Class, name, value)
	}
	return nested, nil
}

// Objects returns the *Object elements of a collection member. Null
// and non-object elements are omitted.
func (o *Object) Objects(name string) ([]*Object, error) {
	collection, err := o.Object(name)
	if err != nil || collection == nil {
		return nil, err
	}
	objects := make([]*Object, 0, len(collection.Items))
	for _, item := range collection.Items {
		if object, ok := item.(*Object); ok && object != nil {
			objects = append(objects, object)
		}
	}
	return objects, nil
}

// Int32s returns an integer array member narrowed or widened to int32.
// A null counted array yields nil.
func (o *Object) Int32s(name string) ([]int32, error) {
	values, err := o.Int64s(name)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return nil, nil
	}
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out, nil
}

// Int64s returns an integer array member widened to int64. A null
// counted array yields nil.
func (o *Object) Int64s(name string) ([]int64, error) {
	value, err := o.member(name)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []int8:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int64:
		return v, nil
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	case []uint64:
		return widen(v), nil
	}
	return nil, fmt.Errorf("%s.%s is %T, not an integer array", o.Class, name, value)
}

func widen[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64](values []T) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Dump renders the object tree for debugging.
func (o *Object) Dump() string {
	var builder strings.Builder
	o.dump(&builder, 0, make(map[*Object]bool))
	return builder.String()
}

func (o *Object) dump(builder *strings.Builder, depth int, seen map[*Object]bool) {
	indent := strings.Repeat("  ", depth)
	if seen[o] {
		fmt.Fprintf(builder, "%s<%s (seen)>\n", indent, o.Class)
		return
	}
	seen[o] = true
	fmt.Fprintf(builder, "%s%s v%d\n", indent, o.Class, o.Version)
	for _, member := range o.Members {
		if nested, ok := member.Value.(*Object); ok && nested != nil {
			fmt.Fprintf(builder, "%s  %s:\n", indent, member.Name)
			nested.dump(builder, depth+2, seen)
			continue
		}
		fmt.Fprintf(builder, "%s  %s = %v\n", indent, member.Name, member.Value)
	}
	for i, item := range o.Items {
		if nested, ok := item.(*Object); ok && nested != nil {
			fmt.Fprintf(builder, "%s  [%d]:\n", indent, i)
			nested.dump(builder, depth+2, seen)
			continue
		}
		fmt.Fprintf(builder, "%s  [%d] = %v\n", indent, i, item)
	}
}
