package result

import (
	"fmt"
	"strconv"

	"crosspred/domain/core"
)

// Entry is one flat row of the results table: a model trained on one bin and
// tested on another (or the same) bin for one target measure.
type Entry struct {
	RunID           core.RunID `json:"run_id" db:"run_id"`
	Model           string     `json:"model" db:"model"`
	Target          string     `json:"target" db:"target"`
	Train           string     `json:"train" db:"train_label"`
	Test            string     `json:"test" db:"test_label"`
	Score           float64    `json:"score" db:"score"`
	PValue          float64    `json:"p_value" db:"p_value"`
	Population      string     `json:"population" db:"population"`
	NumPermutations int        `json:"num_permutations" db:"num_permutations"`
}

// Columns is the header of the tabular results store
func Columns() []string {
	return []string{"Model", "Target", "Train", "Test", "Score", "P-value", "Population", "Num Permutations"}
}

// Record renders the entry in Columns order
func (e Entry) Record() []string {
	return []string{
		e.Model,
		e.Target,
		e.Train,
		e.Test,
		strconv.FormatFloat(e.Score, 'g', -1, 64),
		strconv.FormatFloat(e.PValue, 'g', -1, 64),
		e.Population,
		strconv.Itoa(e.NumPermutations),
	}
}

// ParseRecord is the inverse of Record
func ParseRecord(record []string) (Entry, error) {
	if len(record) != len(Columns()) {
		return Entry{}, core.NewShapeError("result columns", len(Columns()), len(record))
	}
	score, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse score: %w", err)
	}
	pvalue, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parse p-value: %w", err)
	}
	nperm, err := strconv.Atoi(record[7])
	if err != nil {
		return Entry{}, fmt.Errorf("parse permutation count: %w", err)
	}
	return Entry{
		Model:           record[0],
		Target:          record[1],
		Train:           record[2],
		Test:            record[3],
		Score:           score,
		PValue:          pvalue,
		Population:      record[6],
		NumPermutations: nperm,
	}, nil
}

func (e Entry) String() string {
	return fmt.Sprintf("Model: %s, Target: %s, Train: %s, Test: %s, Population: %s, Num Perm: %d",
		e.Model, e.Target, e.Train, e.Test, e.Population, e.NumPermutations)
}

// NullDistribution is the permutation null kept for audit and reproducibility
type NullDistribution struct {
	RunID   core.RunID   `json:"run_id"`
	Model   string       `json:"model"`
	Target  string       `json:"target"`
	Train   string       `json:"train"`
	Test    string       `json:"test"`
	Seed    int64        `json:"seed"`
	Scores  []float64    `json:"scores"`
	Summary *NullSummary `json:"summary,omitempty"`
}

// Name is the file stem used when the distribution is persisted on disk.
// Distributions of different runs never share a name.
func (n NullDistribution) Name() string {
	stem := fmt.Sprintf("%s_%s_%s_%s", n.Model, n.Target, slug(n.Train), slug(n.Test))
	if n.RunID == "" {
		return stem
	}
	return n.RunID.String() + "_" + stem
}

// Filter narrows a results listing; empty fields match everything
type Filter struct {
	RunID  core.RunID
	Model  string
	Target string
}

// Matches reports whether the entry passes the filter
func (f Filter) Matches(e Entry) bool {
	if f.RunID != "" && f.RunID != e.RunID {
		return false
	}
	if f.Model != "" && f.Model != e.Model {
		return false
	}
	if f.Target != "" && f.Target != e.Target {
		return false
	}
	return true
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == ' ' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
