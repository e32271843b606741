// Package filestore keeps results in an appendable CSV table and null
// distributions as JSON files next to it.
package filestore

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"crosspred/domain/core"
	"crosspred/domain/result"
	"crosspred/internal"
)

const nullDir = "null_distributions"

// Store implements ports.ResultRepository on the local filesystem. CSV rows
// carry no run id, so ListEntries ignores Filter.RunID.
type Store struct {
	dir     string
	file    string
	append  bool
	written bool
	mu      sync.Mutex
	logger  *internal.Logger
}

// New creates a store writing <dir>/<name>.csv. With appendMode the first
// write appends to an existing file; otherwise it replaces it. Later writes
// from the same store always append.
func New(dir, name string, appendMode bool, logger *internal.Logger) (*Store, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if err := os.MkdirAll(filepath.Join(dir, nullDir), 0o755); err != nil {
		return nil, fmt.Errorf("create result directory: %w", err)
	}
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return &Store{dir: dir, file: name, append: appendMode, logger: logger}, nil
}

// Path is the results table location
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.file)
}

// SaveEntries writes entries to the table. A header is written whenever the
// file is created or truncated, never when appending.
func (s *Store) SaveEntries(ctx context.Context, entries []result.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	appendTo := (s.append || s.written) && exists(path)
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !appendTo {
		if err := w.Write(result.Columns()); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := w.Write(e.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	s.written = true
	s.logger.Debug("[FileStore] wrote %d entries to %s", len(entries), path)
	return nil
}

// ListEntries reads the table back, applying the model and target filters
func (s *Store) ListEntries(ctx context.Context, filter result.Filter) ([]result.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	filter.RunID = ""
	r := csv.NewReader(f)
	var out []result.Entry
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read results line %d: %w", line, err)
		}
		if isHeader(rec) {
			continue
		}
		e, err := result.ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("results line %d: %w", line, err)
		}
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// SaveNullDistribution writes <dir>/null_distributions/<name>.json
func (s *Store) SaveNullDistribution(ctx context.Context, null result.NullDistribution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(null, "", "  ")
	if err != nil {
		return fmt.Errorf("encode null distribution: %w", err)
	}
	path := s.nullPath(null.Name())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write null distribution: %w", err)
	}
	return nil
}

// LoadNullDistribution reads a distribution saved under name
func (s *Store) LoadNullDistribution(name string) (result.NullDistribution, error) {
	var null result.NullDistribution
	data, err := os.ReadFile(s.nullPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return null, fmt.Errorf("%w: null distribution %s", core.ErrResultNotFound, name)
	}
	if err != nil {
		return null, err
	}
	if err := json.Unmarshal(data, &null); err != nil {
		return null, fmt.Errorf("decode null distribution %s: %w", name, err)
	}
	return null, nil
}

func (s *Store) nullPath(name string) string {
	name = strings.TrimSuffix(name, ".json")
	return filepath.Join(s.dir, nullDir, name+".json")
}

func isHeader(rec []string) bool {
	cols := result.Columns()
	return len(rec) == len(cols) && rec[0] == cols[0] && rec[4] == cols[4]
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
