// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for rootscan binaries.
//
// Values are injected at link time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/rootscan/lib/version.Commit=$(git rev-parse --short HEAD)" ./cmd/rootscan
//
// Unset values fall back to the module build info recorded by the Go
// toolchain, then to "unknown".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags.
var (
	Version   = "0.1.0-dev"
	Commit    = ""
	BuildTime = ""
)

// Info returns the one-line string printed by --version.
func Info() string {
	commit, modified, built := buildSettings()
	if modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, built)
}

// Full returns Info plus the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func buildSettings() (commit string, modified bool, built string) {
	commit, built = Commit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if commit == "" && len(setting.Value) >= 7 {
					commit = setting.Value[:7]
				}
			case "vcs.time":
				if built == "" {
					built = setting.Value
				}
			case "vcs.modified":
				modified = setting.Value == "true"
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return commit, modified, built
}
