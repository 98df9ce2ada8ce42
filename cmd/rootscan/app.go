// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rootscan/lib/config"
	"github.com/bureau-foundation/rootscan/lib/rootfile"
	"github.com/bureau-foundation/rootscan/lib/source"
)

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
}

func (f *commonFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "path to a rootscan.yaml config file (default: $ROOTSCAN_CONFIG)")
}

// loadConfig resolves the configuration: --config, then
// ROOTSCAN_CONFIG, then the built-in defaults.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.configPath != "":
		cfg, err = config.LoadFile(f.configPath)
	case os.Getenv("ROOTSCAN_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newFlagSet(name, usage string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprint(flagSet.Output(), usage)
		fmt.Fprintln(flagSet.Output(), "\nFLAGS")
		flagSet.PrintDefaults()
	}
	return flagSet
}

// sourceOptions builds the source options cfg describes.
func sourceOptions(cfg *config.Config, logger *slog.Logger) (source.Options, error) {
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return source.Options{}, err
	}
	backoff, err := cfg.HTTPBackoff()
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{
		HTTP: source.HTTPConfig{
			Client:  &http.Client{Timeout: timeout},
			Retries: cfg.Source.HTTPRetries,
			Backoff: backoff,
			Logger:  logger,
		},
		CacheDir: cfg.Source.CacheDir,
		Mmap:     cfg.Source.Mmap,
	}, nil
}

// openedFile is a container together with the source it reads from.
type openedFile struct {
	*rootfile.Container
	tracking *source.Tracking
	logger   *slog.Logger
}

// openContainer opens location and reads its key index.
func openContainer(ctx context.Context, location string, options source.Options, logger *slog.Logger) (*openedFile, error) {
	src, err := source.Open(location, options)
	if err != nil {
		return nil, err
	}
	tracking := source.NewTracking(src)
	container, err := rootfile.Open(ctx, tracking, rootfile.Options{Logger: logger})
	if err != nil {
		tracking.Close()
		return nil, err
	}
	return &openedFile{Container: container, tracking: tracking, logger: logger}, nil
}

// Close closes the source and logs how much was read from it.
func (f *openedFile) Close() error {
	stats := f.tracking.Stats()
	f.logger.Debug("closing source",
		"file", f.tracking.Name(),
		"fetches", stats.Fetches,
		"bytes", stats.Bytes,
		"errors", stats.Errors,
	)
	return f.tracking.Close()
}
