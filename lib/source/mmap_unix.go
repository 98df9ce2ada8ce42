// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package source

import (
	"fmt"
	"os"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

func mapFile(file *os.File, size int64) ([]byte, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("memory-mapping %s: %w", file.Name(), err)
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}

// copyMapped copies from the map into out. An I/O error on the backing
// storage surfaces as a page fault, which is recovered into an error.
func copyMapped(out, mapped []byte, offset int64) (err error) {
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			err = fmt.Errorf("page fault reading mapped file at offset %d: %v", offset, r)
		}
	}()
	copy(out, mapped[offset:])
	return nil
}
