// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package columnar

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/bureau-foundation/rootscan/lib/esd"
)

// DefaultBatchSize is the number of events per record batch when
// Options.BatchSize is zero.
const DefaultBatchSize = 4096

// Compression names accepted by Options.Compression.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
	CompressionZstd = "zstd"
)

// Options configures a Writer.
type Options struct {
	// BatchSize is the number of events per record batch.
	BatchSize int

	// Compression is the IPC buffer compression: "none" (or empty),
	// "lz4" or "zstd".
	Compression string

	Allocator memory.Allocator
	Logger    *slog.Logger
}

// Writer streams events as Arrow IPC record batches.
type Writer struct {
	ipc       *ipc.Writer
	builder   *Builder
	batchSize int
	batches   int
	logger    *slog.Logger
	closed    bool
}

// NewWriter returns a writer emitting the IPC stream format to w.
func NewWriter(w io.Writer, options Options) (*Writer, error) {
	mem := options.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ipcOptions := []ipc.Option{ipc.WithSchema(Schema()), ipc.WithAllocator(mem)}
	switch options.Compression {
	case "", CompressionNone:
	case CompressionLZ4:
		ipcOptions = append(ipcOptions, ipc.WithLZ4())
	case CompressionZstd:
		ipcOptions = append(ipcOptions, ipc.WithZstd())
	default:
		return nil, fmt.Errorf("unknown arrow compression %q (want none, lz4 or zstd)", options.Compression)
	}

	return &Writer{
		ipc:       ipc.NewWriter(w, ipcOptions...),
		builder:   NewBuilder(mem),
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Write appends event, read from file. A batch is flushed every
// BatchSize events.
func (w *Writer) Write(file string, event *esd.Event) error {
	if w.closed {
		return fmt.Errorf("writing event: writer is closed")
	}
	w.builder.Append(file, event)
	if w.builder.Len() >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush writes the pending events as one batch. It does nothing when no
// event is pending.
func (w *Writer) Flush() error {
	if w.builder.Len() == 0 {
		return nil
	}
	record := w.builder.NewRecord()
	defer record.Release()
	if err := w.ipc.Write(record); err != nil {
		return fmt.Errorf("writing record batch %d: %w", w.batches, err)
	}
	w.logger.Debug("wrote record batch", "batch", w.batches, "rows", record.NumRows())
	w.batches++
	return nil
}

// Close flushes pending events and ends the stream. The underlying
// io.Writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.builder.Release()
	if err := w.Flush(); err != nil {
		w.ipc.Close()
		return err
	}
	if err := w.ipc.Close(); err != nil {
		return fmt.Errorf("closing arrow stream: %w", err)
	}
	return nil
}
