// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import "context"

// Memory serves bytes from a slice.
type Memory struct {
	name string
	data []byte
}

// NewMemory returns a Source over data. The slice must not be modified
// afterwards.
func NewMemory(name string, data []byte) *Memory {
	return &Memory{name: name, data: data}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Size(context.Context) (int64, error) { return int64(len(m.data)), nil }

func (m *Memory) Fetch(ctx context.Context, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "fetch", Name: m.name, Offset: offset, Length: length, Err: err}
	}
	if err := checkRange(m.name, int64(len(m.data)), offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

func (m *Memory) Close() error { return nil }
