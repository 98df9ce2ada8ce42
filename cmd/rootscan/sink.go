// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/rootscan/lib/codec"
	"github.com/bureau-foundation/rootscan/lib/columnar"
	"github.com/bureau-foundation/rootscan/lib/config"
	"github.com/bureau-foundation/rootscan/lib/esd"
)

// eventSink serializes decoded events. Close flushes buffered output
// but does not close the underlying writer.
type eventSink interface {
	Write(file string, event *esd.Event) error
	Close() error
}

func newEventSink(w io.Writer, cfg *config.Config, logger *slog.Logger) (eventSink, error) {
	buffered := bufio.NewWriter(w)
	switch cfg.Events.Format {
	case config.FormatJSONL:
		return &recordSink{buffered: buffered, encode: json.NewEncoder(buffered).Encode}, nil
	case config.FormatCBOR:
		return &recordSink{buffered: buffered, encode: codec.NewEncoder(buffered).Encode}, nil
	case config.FormatArrow:
		writer, err := columnar.NewWriter(buffered, columnar.Options{
			BatchSize:   cfg.Events.BatchSize,
			Compression: cfg.Events.ArrowCompression,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return &arrowSink{buffered: buffered, writer: writer}, nil
	default:
		return nil, fmt.Errorf("unknown event format %q", cfg.Events.Format)
	}
}

// recordSink writes one codec.EventRecord per event: JSON lines or a
// CBOR sequence.
type recordSink struct {
	buffered *bufio.Writer
	encode   func(any) error
}

func (s *recordSink) Write(file string, event *esd.Event) error {
	return s.encode(codec.NewEventRecord(file, event))
}

func (s *recordSink) Close() error { return s.buffered.Flush() }

type arrowSink struct {
	buffered *bufio.Writer
	writer   *columnar.Writer
}

func (s *arrowSink) Write(file string, event *esd.Event) error {
	return s.writer.Write(file, event)
}

func (s *arrowSink) Close() error {
	if err := s.writer.Close(); err != nil {
		return err
	}
	return s.buffered.Flush()
}
