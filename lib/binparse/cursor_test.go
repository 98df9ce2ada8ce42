// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/bureau-foundation/rootscan/lib/testutil"
)

func cursorOver(data []byte) *Cursor {
	return NewContext(nil, data, 0).Cursor()
}

func TestCursorPrimitives(t *testing.T) {
	data := testutil.Encode(func(b *testutil.Buffer) {
		b.U8(0xfe)
		b.I8(-3)
		b.U16(0xbeef)
		b.I16(-2)
		b.U32(0xdeadbeef)
		b.I32(-70000)
		b.U64(1 << 40)
		b.I64(-1 << 40)
		b.F32(1.5)
		b.F64(-math.Pi)
		b.Bool(true)
	})
	c := cursorOver(data)

	if v, err := c.U8(); err != nil || v != 0xfe {
		t.Errorf("U8 = %d, %v", v, err)
	}
	if v, err := c.I8(); err != nil || v != -3 {
		t.Errorf("I8 = %d, %v", v, err)
	}
	if v, err := c.U16(); err != nil || v != 0xbeef {
		t.Errorf("U16 = %#x, %v", v, err)
	}
	if v, err := c.I16(); err != nil || v != -2 {
		t.Errorf("I16 = %d, %v", v, err)
	}
	if v, err := c.U32(); err != nil || v != 0xdeadbeef {
		t.Errorf("U32 = %#x, %v", v, err)
	}
	if v, err := c.I32(); err != nil || v != -70000 {
		t.Errorf("I32 = %d, %v", v, err)
	}
	if v, err := c.U64(); err != nil || v != 1<<40 {
		t.Errorf("U64 = %d, %v", v, err)
	}
	if v, err := c.I64(); err != nil || v != -1<<40 {
		t.Errorf("I64 = %d, %v", v, err)
	}
	if v, err := c.F32(); err != nil || v != 1.5 {
		t.Errorf("F32 = %v, %v", v, err)
	}
	if v, err := c.F64(); err != nil || v != -math.Pi {
		t.Errorf("F64 = %v, %v", v, err)
	}
	if v, err := c.Bool(); err != nil || !v {
		t.Errorf("Bool = %v, %v", v, err)
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining = %d after reading everything", c.Remaining())
	}
}

func TestCursorShortInput(t *testing.T) {
	c := cursorOver([]byte{1, 2, 3})
	_, err := c.U32()
	if !IsFormatError(err) {
		t.Fatalf("U32 on 3 bytes: error = %v, want FormatError", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("error %v does not wrap io.ErrUnexpectedEOF", err)
	}
	if c.Pos() != 0 {
		t.Errorf("failed read moved the cursor to %d", c.Pos())
	}
	if _, err := c.Bytes(-1); !IsFormatError(err) {
		t.Errorf("Bytes(-1) error = %v, want FormatError", err)
	}
}

func TestCursorSubAndSeek(t *testing.T) {
	c := cursorOver(make([]byte, 10))
	if err := c.Skip(2); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	sub, err := c.Sub(6)
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if sub.Pos() != 2 || sub.Limit() != 6 {
		t.Errorf("Sub = [%d, %d), want [2, 6)", sub.Pos(), sub.Limit())
	}
	if _, err := sub.U64(); !IsFormatError(err) {
		t.Errorf("reading past a sub-cursor limit: error = %v", err)
	}
	if _, err := c.Sub(11); !IsFormatError(err) {
		t.Errorf("Sub past the limit: error = %v", err)
	}
	if err := c.Seek(11); !IsFormatError(err) {
		t.Errorf("Seek past the limit: error = %v", err)
	}
	if err := c.Seek(10); err != nil {
		t.Errorf("Seek to the limit failed: %v", err)
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name    string
		count   int32
		trailer int
		size    int
		wantErr bool
	}{
		{name: "fits", count: 2, trailer: 8, size: 4},
		{name: "zero", count: 0, trailer: 0, size: 4},
		{name: "negative", count: -1, trailer: 8, size: 4, wantErr: true},
		{name: "too large", count: 3, trailer: 8, size: 4, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := testutil.Encode(func(b *testutil.Buffer) {
				b.I32(test.count)
				b.Raw(make([]byte, test.trailer))
			})
			n, err := cursorOver(data).Count(test.size)
			if test.wantErr {
				if !IsFormatError(err) {
					t.Fatalf("Count error = %v, want FormatError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != int(test.count) {
				t.Errorf("Count = %d, want %d", n, test.count)
			}
		})
	}
}

func TestTString(t *testing.T) {
	long := strings.Repeat("x", 300)
	data := testutil.Encode(func(b *testutil.Buffer) {
		b.TString("")
		b.TString("short")
		b.TString(long)
	})
	c := cursorOver(data)
	for _, want := range []string{"", "short", long} {
		got, err := c.TString()
		if err != nil {
			t.Fatalf("TString failed: %v", err)
		}
		if got != want {
			t.Errorf("TString = %q (%d bytes), want %d bytes", got, len(got), len(want))
		}
	}

	negative := testutil.Encode(func(b *testutil.Buffer) {
		b.U8(255)
		b.I32(-4)
	})
	if _, err := cursorOver(negative).TString(); !IsFormatError(err) {
		t.Errorf("negative long length: error = %v", err)
	}
	if _, err := cursorOver([]byte{5, 'a'}).TString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated string: error = %v", err)
	}
}

func TestCString(t *testing.T) {
	c := cursorOver([]byte("TTree\x00rest"))
	got, err := c.CString()
	if err != nil {
		t.Fatalf("CString failed: %v", err)
	}
	if got != "TTree" || c.Pos() != 6 {
		t.Errorf("CString = %q at %d, want TTree at 6", got, c.Pos())
	}
	if _, err := c.CString(); !IsFormatError(err) {
		t.Errorf("unterminated CString: error = %v", err)
	}
}

func TestCharStar(t *testing.T) {
	data := testutil.Encode(func(b *testutil.Buffer) {
		b.I32(3)
		b.Raw([]byte("abc"))
		b.I32(0)
	})
	c := cursorOver(data)
	if got, err := c.CharStar(); err != nil || got != "abc" {
		t.Errorf("CharStar = %q, %v", got, err)
	}
	if got, err := c.CharStar(); err != nil || got != "" {
		t.Errorf("empty CharStar = %q, %v", got, err)
	}
}
