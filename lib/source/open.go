// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"fmt"
	"strings"
)

// Options controls how Open builds a Source.
type Options struct {
	// HTTP configures remote sources.
	HTTP HTTPConfig

	// CacheDir, when set, wraps remote sources in a Cached source
	// rooted at this directory. Local files are never cached.
	CacheDir string

	// Mmap memory-maps local files.
	Mmap bool
}

// Open returns a Source for location: an http:// or https:// URL, or a
// local file path.
func Open(location string, options Options) (Source, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		remote, err := NewHTTP(location, options.HTTP)
		if err != nil {
			return nil, err
		}
		if options.CacheDir == "" {
			return remote, nil
		}
		cached, err := NewCached(remote, options.CacheDir, options.HTTP.Logger)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", location, err)
		}
		return cached, nil
	}
	return OpenFile(location, options.Mmap)
}
