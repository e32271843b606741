package excel

import (
	"fmt"
	"math"
	"strings"

	"crosspred/domain/cohort"
	"crosspred/internal"
)

// Column names of the subject label table
const (
	ColumnSubjectID = "assessment WISC,EID"
	ColumnAge       = "assessment Basic_Demos,Age"
	ColumnSex       = "assessment Basic_Demos,Sex"
	ColumnNoDX      = "assessment Diagnosis_ClinicianConsensus,NoDX"
	wiscPrefix      = "assessment WISC,"
)

// MeasureColumn returns the label-table column of a WISC measure
func MeasureColumn(measure string) string {
	return wiscPrefix + measure
}

// SubjectLabel is one subject's demographics and cognitive scores
type SubjectLabel struct {
	ID       string
	Age      float64
	Sex      float64
	Measures map[string]float64
}

// LabelTable is the parsed label file in file order
type LabelTable struct {
	Subjects   []SubjectLabel
	Population cohort.Population
	Skipped    int // rows dropped for a missing ID, age or measure
}

// LoadLabels reads the label table and keeps the requested measures. Rows
// with a missing or non-numeric age or measure are skipped.
func LoadLabels(path string, measures []string, logger *internal.Logger) (*LabelTable, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	data, err := ReadTable(path, "", logger)
	if err != nil {
		return nil, err
	}
	return ParseLabels(data, measures, logger)
}

// ParseLabels converts raw rows into a label table
func ParseLabels(data *Table, measures []string, logger *internal.Logger) (*LabelTable, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	required := []string{ColumnSubjectID, ColumnAge}
	for _, m := range measures {
		required = append(required, MeasureColumn(m))
	}
	if missing := data.Missing(required...); len(missing) > 0 {
		return nil, fmt.Errorf("label table is missing columns %q", missing)
	}

	table := &LabelTable{Population: DetectPopulation(data)}
	seen := make(map[string]bool, len(data.Rows))

	for i, row := range data.Rows {
		id := row[ColumnSubjectID]
		if id == "" || seen[id] {
			table.Skipped++
			continue
		}
		age, ok := row.Number(ColumnAge)
		if !ok {
			logger.Debug("[Labels] row %d (%s): missing age", i+2, id)
			table.Skipped++
			continue
		}

		label := SubjectLabel{ID: id, Age: age, Sex: math.NaN(), Measures: make(map[string]float64, len(measures))}
		if sex, ok := row.Number(ColumnSex); ok {
			label.Sex = sex
		}
		complete := true
		for _, m := range measures {
			v, ok := row.Number(MeasureColumn(m))
			if !ok {
				logger.Debug("[Labels] row %d (%s): missing %s", i+2, id, m)
				complete = false
				break
			}
			label.Measures[m] = v
		}
		if !complete {
			table.Skipped++
			continue
		}
		seen[id] = true
		table.Subjects = append(table.Subjects, label)
	}

	if table.Skipped > 0 {
		logger.Warn("[Labels] skipped %d of %d rows with missing values", table.Skipped, len(data.Rows))
	}
	return table, nil
}

// DetectPopulation reports adhd when any subject has a clinician diagnosis
func DetectPopulation(data *Table) cohort.Population {
	for _, row := range data.Rows {
		if strings.EqualFold(row[ColumnNoDX], "Yes") {
			return cohort.PopulationADHD
		}
	}
	return cohort.PopulationHealthy
}
