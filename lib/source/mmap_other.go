// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !darwin

package source

import (
	"errors"
	"os"
)

func mapFile(*os.File, int64) ([]byte, error) {
	return nil, errors.New("memory mapping not supported on this platform")
}

func unmapFile([]byte) error { return nil }

func copyMapped(out, mapped []byte, offset int64) error {
	copy(out, mapped[offset:])
	return nil
}
