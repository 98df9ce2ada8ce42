// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table is a Lookup driven by per-period class lists.
type Table struct {
	periods []period
}

type period struct {
	name     string
	firstRun int32
	lastRun  int32
	classes  map[string]Mask
}

// tableFile is the YAML form of a Table.
type tableFile struct {
	Periods []periodFile `yaml:"periods"`
}

type periodFile struct {
	// Name labels the period in errors and listings.
	Name string `yaml:"name"`
	// FirstRun and LastRun bound the period, inclusive.
	FirstRun int32 `yaml:"first_run"`
	LastRun  int32 `yaml:"last_run"`
	// Selections maps a selection name (minimum_bias, high_mult) to
	// the trigger class names that satisfy it.
	Selections map[string][]string `yaml:"selections"`
}

//go:embed lhc10h.yaml
var defaultTableYAML []byte

var defaultTable = mustParse(defaultTableYAML)

// DefaultTable returns the built-in table. It covers the LHC10h period
// (runs 136851 to 139517).
func DefaultTable() *Table { return defaultTable }

func mustParse(data []byte) *Table {
	table, err := ParseTable(data)
	if err != nil {
		panic("trigger: built-in table: " + err.Error())
	}
	return table
}

// LoadTable reads a table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trigger table: %w", err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("loading trigger table %s: %w", path, err)
	}
	return table, nil
}

// ParseTable parses a table from YAML.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing trigger table: %w", err)
	}

	var errs []error
	table := &Table{periods: make([]period, 0, len(file.Periods))}
	for i, entry := range file.Periods {
		label := entry.Name
		if label == "" {
			label = fmt.Sprintf("period %d", i)
		}
		if entry.FirstRun > entry.LastRun {
			errs = append(errs, fmt.Errorf("%s: first_run %d after last_run %d", label, entry.FirstRun, entry.LastRun))
			continue
		}
		p := period{
			name:     entry.Name,
			firstRun: entry.FirstRun,
			lastRun:  entry.LastRun,
			classes:  make(map[string]Mask),
		}
		for selection, classes := range entry.Selections {
			mask, err := ParseMask(selection)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", label, err))
				continue
			}
			for _, class := range classes {
				p.classes[class] |= mask
			}
		}
		table.periods = append(table.periods, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(table.periods, func(i, j int) bool {
		return table.periods[i].firstRun < table.periods[j].firstRun
	})
	return table, nil
}

// Lookup returns the selections class satisfies in run. Overlapping
// periods contribute the union of their selections.
func (t *Table) Lookup(class string, run int32) Mask {
	var mask Mask
	for _, p := range t.periods {
		if run < p.firstRun {
			break
		}
		if run <= p.lastRun {
			mask |= p.classes[class]
		}
	}
	return mask
}

// Periods returns the period names in run order.
func (t *Table) Periods() []string {
	names := make([]string, len(t.periods))
	for i, p := range t.periods {
		names[i] = p.name
	}
	return names
}
