// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"sync/atomic"
)

// Stats is a snapshot of Tracking counters.
type Stats struct {
	Fetches int64
	Bytes   int64
	Errors  int64
}

// Tracking wraps a Source and counts the requests that pass through
// it. The CLI reports these in debug logs; tests use them to assert
// that lazy sequences do not read ahead.
type Tracking struct {
	inner   Source
	fetches atomic.Int64
	bytes   atomic.Int64
	errors  atomic.Int64
}

func NewTracking(inner Source) *Tracking {
	return &Tracking{inner: inner}
}

func (t *Tracking) Name() string { return t.inner.Name() }

func (t *Tracking) Size(ctx context.Context) (int64, error) { return t.inner.Size(ctx) }

func (t *Tracking) Fetch(ctx context.Context, offset, length int64) ([]byte, error) {
	t.fetches.Add(1)
	data, err := t.inner.Fetch(ctx, offset, length)
	if err != nil {
		t.errors.Add(1)
		return nil, err
	}
	t.bytes.Add(int64(len(data)))
	return data, nil
}

// Stats returns the counters accumulated so far.
func (t *Tracking) Stats() Stats {
	return Stats{
		Fetches: t.fetches.Load(),
		Bytes:   t.bytes.Load(),
		Errors:  t.errors.Load(),
	}
}

func (t *Tracking) Close() error { return t.inner.Close() }
