// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamer

import (
	"errors"
	"fmt"
	"sort"
)

// UnknownClassError reports a class/version pair that the catalogue
// does not describe and that has no built-in decoder.
type UnknownClassError struct {
	Class   string
	Version int16
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("no streamer info for class %s version %d", e.Class, e.Version)
}

// IsUnknownClass reports whether err (or any error in its chain) is an
// UnknownClassError.
func IsUnknownClass(err error) bool {
	var unknown *UnknownClassError
	return errors.As(err, &unknown)
}

type registryKey struct {
	class   string
	version int32
}

// Registry indexes streamer infos by class and version. It is
// immutable after construction.
type Registry struct {
	infos  map[registryKey]*Info
	latest map[string]*Info
}

// NewRegistry indexes infos. When several infos share a class and
// version, the first wins.
func NewRegistry(infos []*Info) *Registry {
	registry := &Registry{
		infos:  make(map[registryKey]*Info, len(infos)),
		latest: make(map[string]*Info),
	}
	for _, info := range infos {
		key := registryKey{info.Class, info.Version}
		if _, exists := registry.infos[key]; exists {
			continue
		}
		registry.infos[key] = info
		if current, ok := registry.latest[info.Class]; !ok || info.Version > current.Version {
			registry.latest[info.Class] = info
		}
	}
	return registry
}

// Lookup returns the info for class at version.
func (r *Registry) Lookup(class string, version int16) (*Info, error) {
	info, ok := r.infos[registryKey{class, int32(version)}]
	if !ok {
		return nil, &UnknownClassError{Class: class, Version: version}
	}
	return info, nil
}

// Latest returns the highest version recorded for class.
func (r *Registry) Latest(class string) (*Info, bool) {
	info, ok := r.latest[class]
	return info, ok
}

// Classes returns the sorted names of every class in the registry.
func (r *Registry) Classes() []string {
	classes := make([]string, 0, len(r.latest))
	for class := range r.latest {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Infos returns every info ordered by class, then version.
func (r *Registry) Infos() []*Info {
	infos := make([]*Info, 0, len(r.infos))
	for _, info := range r.infos {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Class != infos[j].Class {
			return infos[i].Class < infos[j].Class
		}
		return infos[i].Version < infos[j].Version
	})
	return infos
}

// Len returns the number of distinct class/version pairs.
func (r *Registry) Len() int { return len(r.infos) }
