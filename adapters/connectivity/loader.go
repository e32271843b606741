package connectivity

import (
	"context"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"crosspred/adapters/excel"
	"crosspred/domain/cohort"
	"crosspred/internal"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// MatrixFile is the per-subject FC file name
	MatrixFile    = "power_fc.csv"
	subjectPrefix = "sub-"
)

// Loader builds a cohort from a label table and a directory of FC matrices.
// It implements ports.CohortLoader.
type Loader struct {
	LabelsFile string
	FCDir      string
	Measures   []string
	logger     *internal.Logger
}

// NewLoader creates a cohort loader for the given measures
func NewLoader(labelsFile, fcDir string, measures []string, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{LabelsFile: labelsFile, FCDir: fcDir, Measures: measures, logger: logger}
}

// Load joins FC vectors with labels in label-file order. Subjects without an
// FC file are left out.
func (l *Loader) Load(ctx context.Context) (*cohort.Cohort, error) {
	labels, err := excel.LoadLabels(l.LabelsFile, l.Measures, l.logger)
	if err != nil {
		return nil, err
	}
	vectors, err := ReadVectors(ctx, l.FCDir)
	if err != nil {
		return nil, err
	}

	c := &cohort.Cohort{
		Measures:   make(map[string][]float64, len(l.Measures)),
		Population: labels.Population,
	}
	missing := 0
	width := -1
	for _, s := range labels.Subjects {
		v, ok := vectors[s.ID]
		if !ok {
			missing++
			continue
		}
		if width < 0 {
			width = len(v)
		} else if len(v) != width {
			return nil, fmt.Errorf("subject %s: FC vector has %d features, expected %d", s.ID, len(v), width)
		}
		c.SubjectIDs = append(c.SubjectIDs, s.ID)
		c.Features = append(c.Features, v)
		c.Ages = append(c.Ages, s.Age)
		c.Sexes = append(c.Sexes, s.Sex)
		for _, m := range l.Measures {
			c.Measures[m] = append(c.Measures[m], s.Measures[m])
		}
	}
	if missing > 0 {
		l.logger.Info("[Cohort] %d labelled subjects have no FC matrix", missing)
	}
	l.logger.Info("[Cohort] assembled %d subjects (%s)", c.Len(), c.Population)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// SubjectID extracts the ID from a path like .../sub-<ID>/power_fc.csv
func SubjectID(path string) (string, bool) {
	dir := filepath.Base(filepath.Dir(path))
	if !strings.HasPrefix(dir, subjectPrefix) || len(dir) == len(subjectPrefix) {
		return "", false
	}
	return dir[len(subjectPrefix):], true
}

// ReadVectors finds every subject matrix under root and returns its vector
// keyed by subject ID. Files are parsed concurrently.
func ReadVectors(ctx context.Context, root string) (map[string][]float64, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == MatrixFile {
			if _, ok := SubjectID(path); ok {
				paths = append(paths, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	var mu sync.Mutex
	out := make(map[string][]float64, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := ReadMatrix(p)
			if err != nil {
				return err
			}
			v, err := ToVector(m)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			id, _ := SubjectID(p)
			mu.Lock()
			out[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadMatrix parses a headerless CSV of floats into a dense matrix
func ReadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, rec := range records {
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d col %d: %w", path, i+1, j+1, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(records), cols, data), nil
}
