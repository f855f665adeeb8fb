// Package artlist reconstructs the complete, deduplicated article
// list from the windowed document search.
package artlist

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"gdeltpull/internal/gdelt"
	"gdeltpull/internal/logger"
)

// rowKeySep joins column values into a dedup key. A unit separator
// cannot appear in CSV field values we care about, so joined keys
// collide only when every column matches.
const rowKeySep = "\x1f"

// mobileURLColumn duplicates the URL column and carries no analytical
// value; Finalize drops it.
const mobileURLColumn = "MobileURL"

// Accumulator holds the result set built so far and keeps the on-disk
// checkpoint in step with it. Every merge rewrites the checkpoint
// atomically, so a crash loses at most one page of work.
type Accumulator struct {
	path    string
	header  []string
	rows    [][]string
	index   map[string]struct{}
	dateIdx int
	log     *logger.Logger
}

// NewAccumulator creates an empty accumulator checkpointing to path.
func NewAccumulator(path string, log *logger.Logger) *Accumulator {
	return &Accumulator{
		path:    path,
		index:   make(map[string]struct{}),
		dateIdx: -1,
		log:     log,
	}
}

// MergeOutcome reports what one merge did.
type MergeOutcome struct {
	// EarliestInPage is the earliest publication date seen in the
	// merged page, zero when no row carried a parseable date. The
	// loop bounds the next window with it.
	EarliestInPage gdelt.Cursor
	TotalUnique    int
	Added          int
}

// Merge appends a page, drops exact-duplicate rows, and rewrites the
// checkpoint. A checkpoint write failure is returned as an error and
// must be treated as fatal: continuing would risk losing fetched data
// with no way to recover it.
func (a *Accumulator) Merge(page *gdelt.Page) (MergeOutcome, error) {
	if a.header == nil {
		a.header = page.Header
		a.dateIdx = page.DateIdx
	}

	var earliest gdelt.Cursor

	added := 0

	for _, row := range page.Rows {
		// Track the page minimum before dedup, so a page made
		// entirely of duplicates still reports where it ended.
		if d, err := gdelt.ParseRecordDate(row[page.DateIdx]); err == nil {
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
		}

		if len(row) != len(a.header) {
			continue
		}

		key := strings.Join(row, rowKeySep)
		if _, ok := a.index[key]; ok {
			continue
		}

		a.index[key] = struct{}{}
		a.rows = append(a.rows, row)
		added++
	}

	if err := a.checkpoint(); err != nil {
		return MergeOutcome{}, err
	}

	return MergeOutcome{
		EarliestInPage: earliest,
		TotalUnique:    len(a.rows),
		Added:          added,
	}, nil
}

// Finalize drops the mobile URL column if present, re-applies
// deduplication, and writes the final checkpoint.
func (a *Accumulator) Finalize() error {
	if a.header == nil {
		// Nothing was ever merged; still leave an empty checkpoint
		// so downstream stages see a consistent file set.
		return a.checkpoint()
	}

	drop := -1

	for i, name := range a.header {
		if name == mobileURLColumn {
			drop = i

			break
		}
	}

	if drop >= 0 {
		a.header = append(a.header[:drop], a.header[drop+1:]...)
		if a.dateIdx > drop {
			a.dateIdx--
		}

		for i, row := range a.rows {
			a.rows[i] = append(row[:drop], row[drop+1:]...)
		}

		// Rows that differed only in the dropped column are now
		// exact duplicates.
		a.index = make(map[string]struct{}, len(a.rows))
		unique := a.rows[:0]

		for _, row := range a.rows {
			key := strings.Join(row, rowKeySep)
			if _, ok := a.index[key]; ok {
				continue
			}

			a.index[key] = struct{}{}
			unique = append(unique, row)
		}

		a.rows = unique
	}

	return a.checkpoint()
}

// Len returns the number of unique records accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.rows)
}

// Path returns the checkpoint location.
func (a *Accumulator) Path() string {
	return a.path
}

// checkpoint rewrites the on-disk copy. The write goes to a temp file
// in the same directory followed by a rename, so an external reader
// never sees a partial file.
func (a *Accumulator) checkpoint() error {
	tmpPath := a.path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}

	w := csv.NewWriter(f)

	if a.header != nil {
		if err := w.Write(a.header); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write checkpoint header: %w", err)
		}
	}

	for _, row := range a.rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write checkpoint row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpPath, a.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	return nil
}
