// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import "github.com/bureau-foundation/rootscan/lib/source"

// MapOffset is added to buffer positions when they are stored as
// object and class tags, so that no tag equals the null tag.
const MapOffset = 2

// Context carries the state shared by every cursor over one
// uncompressed buffer. A Context belongs to a single parse call and is
// not safe for concurrent use.
type Context struct {
	// Source is the file the buffer came from, for parsers that need
	// to follow seek pointers.
	Source source.Source

	// Basis is subtracted from object and class tags to turn them into
	// buffer positions: the key length of the record plus MapOffset.
	Basis int

	// Buf is the uncompressed payload.
	Buf []byte

	objects map[int]any
	classes map[int]string
}

// NewContext returns a context over buf, which was stored after a key
// header of keyLen bytes.
func NewContext(src source.Source, buf []byte, keyLen int) *Context {
	return &Context{
		Source:  src,
		Basis:   keyLen + MapOffset,
		Buf:     buf,
		objects: make(map[int]any),
		classes: make(map[int]string),
	}
}

// Cursor returns a cursor over the whole buffer.
func (ctx *Context) Cursor() *Cursor {
	return &Cursor{ctx: ctx, pos: 0, limit: len(ctx.Buf)}
}

// tagOf converts a buffer position into the tag other objects use to
// refer to whatever starts there.
func (ctx *Context) tagOf(pos int) int { return pos + ctx.Basis }

func (ctx *Context) bindObject(tag int, value any) { ctx.objects[tag] = value }

func (ctx *Context) object(tag int) (any, bool) {
	value, ok := ctx.objects[tag]
	return value, ok
}
