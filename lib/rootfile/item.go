// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rootfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/rootscan/lib/binparse"
	"github.com/bureau-foundation/rootscan/lib/rootzip"
	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/streamer"
	"github.com/bureau-foundation/rootscan/lib/tree"
)

// RecordHeader is the key header of a top-level record.
type RecordHeader = binparse.KeyHeader

// FileItem is a handle on one top-level record.
type FileItem struct {
	header RecordHeader
	src    source.Source
}

// Header returns the record header.
func (item *FileItem) Header() RecordHeader { return item.header }

// Name returns "`<object>` of type `<class>`".
func (item *FileItem) Name() string {
	return fmt.Sprintf("`%s` of type `%s`", item.header.Name, item.header.ClassName)
}

// Info returns every header field, one per line.
func (item *FileItem) Info() string {
	h := item.header
	var builder strings.Builder
	fmt.Fprintf(&builder, "RecordHeader {\n")
	fmt.Fprintf(&builder, "    total_size: %d,\n", h.TotalSize)
	fmt.Fprintf(&builder, "    version: %d,\n", h.Version)
	fmt.Fprintf(&builder, "    uncomp_len: %d,\n", h.UncompLen)
	fmt.Fprintf(&builder, "    datime: %d,\n", h.Datime)
	fmt.Fprintf(&builder, "    key_len: %d,\n", h.KeyLen)
	fmt.Fprintf(&builder, "    cycle: %d,\n", h.Cycle)
	fmt.Fprintf(&builder, "    seek_key: %d,\n", h.SeekKey)
	fmt.Fprintf(&builder, "    seek_pdir: %d,\n", h.SeekPdir)
	fmt.Fprintf(&builder, "    class_name: %q,\n", h.ClassName)
	fmt.Fprintf(&builder, "    obj_name: %q,\n", h.Name)
	fmt.Fprintf(&builder, "    obj_title: %q,\n", h.Title)
	fmt.Fprintf(&builder, "}")
	return builder.String()
}

// Payload fetches the record payload and decompresses it when the key
// says it is compressed. The result is exactly UncompLen bytes.
func (item *FileItem) Payload(ctx context.Context) ([]byte, error) {
	h := item.header
	raw, err := item.src.Fetch(ctx, h.PayloadOffset(), h.PayloadSize())
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", item.Name(), err)
	}
	if !h.Compressed() {
		if int64(len(raw)) > int64(h.UncompLen) {
			raw = raw[:h.UncompLen]
		}
		return raw, nil
	}
	data, err := rootzip.Decompress(raw, int(h.UncompLen))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", item.Name(), err)
	}
	return data, nil
}

// Parse runs parser over the payload of item. The payload must start
// with a byte-counted object; parser sees exactly that object, starting
// at its byte count.
func Parse[T any](ctx context.Context, item *FileItem, parser binparse.Parser[T]) (T, error) {
	var zero T
	payload, err := item.Payload(ctx)
	if err != nil {
		return zero, err
	}
	parse := binparse.NewContext(item.src, payload, int(item.header.KeyLen))
	c := parse.Cursor()

	word, err := c.U32()
	if err != nil {
		return zero, fmt.Errorf("parsing %s: %w", item.Name(), err)
	}
	if word&binparse.ByteCountMask == 0 {
		return zero, fmt.Errorf("parsing %s: %w", item.Name(),
			binparse.Formatf(0, "payload does not start with a byte count (%#08x)", word))
	}
	framed, err := c.Sub(4 + int(word&^binparse.ByteCountMask))
	if err != nil {
		return zero, fmt.Errorf("parsing %s: %w", item.Name(), err)
	}
	if err := framed.Seek(0); err != nil {
		return zero, err
	}
	value, err := parser(framed)
	if err != nil {
		return zero, fmt.Errorf("parsing %s: %w", item.Name(), err)
	}
	return value, nil
}

// Decode decodes the record as an object of its key class.
func (item *FileItem) Decode(ctx context.Context, registry *streamer.Registry) (any, error) {
	decoder := streamer.NewDecoder(registry)
	return Parse(ctx, item, func(c *binparse.Cursor) (any, error) {
		return decoder.Decode(c, item.header.ClassName)
	})
}

// AsTree decodes the record as a tree.
func (item *FileItem) AsTree(ctx context.Context, registry *streamer.Registry) (*tree.Tree, error) {
	value, err := item.Decode(ctx, registry)
	if err != nil {
		return nil, err
	}
	object, ok := value.(*streamer.Object)
	if !ok {
		return nil, fmt.Errorf("%s decoded to %T, not an object", item.Name(), value)
	}
	t, err := tree.FromObject(object, item.src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", item.Name(), err)
	}
	return t, nil
}
