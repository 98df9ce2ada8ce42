// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binparse

import (
	"errors"
	"fmt"
)

// FormatError reports bytes that do not match the expected layout.
// Offset is the position within the payload being parsed.
type FormatError struct {
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed data at payload offset %d: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Formatf returns a FormatError at offset. The format supports %w.
func Formatf(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Err: fmt.Errorf(format, args...)}
}

// IsFormatError reports whether err (or any error in its chain) is a
// FormatError.
func IsFormatError(err error) bool {
	var formatError *FormatError
	return errors.As(err, &formatError)
}
