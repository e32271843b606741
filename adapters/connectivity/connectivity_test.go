package connectivity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crosspred/adapters/excel"
	"crosspred/domain/cohort"
	"crosspred/domain/core"
	"crosspred/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func TestToVectorUpperTriangle(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 0.2, 0.3,
		0.2, 1, 0.4,
		0.3, 0.4, 1,
	})
	v, err := ToVector(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.3, 0.4}, v)

	back, err := ToMatrix(v)
	require.NoError(t, err)
	assert.Equal(t, 3, back.SymmetricDim())
	assert.Equal(t, 0.0, back.At(1, 1))
	assert.Equal(t, 0.4, back.At(2, 1))

	_, err = ToVector(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
	_, err = ToMatrix([]float64{1, 2})
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))

	assert.Equal(t, 34716, VectorLen(PowerNodes))
}

func TestSubjectID(t *testing.T) {
	id, ok := SubjectID(filepath.Join("fc", "site", "sub-NDAR001", MatrixFile))
	assert.True(t, ok)
	assert.Equal(t, "NDAR001", id)

	_, ok = SubjectID(filepath.Join("fc", "NDAR001", MatrixFile))
	assert.False(t, ok)
	_, ok = SubjectID(filepath.Join("fc", "sub-", MatrixFile))
	assert.False(t, ok)
}

func writeMatrix(t *testing.T, root, id string, offset float64) {
	t.Helper()
	dir := filepath.Join(root, "sub-"+id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	var b strings.Builder
	for i := 0; i < 4; i++ {
		row := make([]string, 4)
		for j := 0; j < 4; j++ {
			v := 1.0
			if i != j {
				v = offset + float64(i+j)/10
			}
			row[j] = fmt.Sprintf("%g", v)
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, MatrixFile), []byte(b.String()), 0o644))
}

func writeLabels(t *testing.T, dir string) string {
	t.Helper()
	header := []string{excel.ColumnSubjectID, excel.ColumnAge, excel.ColumnSex, excel.MeasureColumn("FSIQ"), excel.ColumnNoDX}
	rows := [][]string{
		{"B", "11", "1", "100", "No"},
		{"A", "8", "0", "90", "No"},
		{"C", "14", "1", "120", "No"},
	}
	var b strings.Builder
	quote := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = fmt.Sprintf("%q", c)
		}
		return strings.Join(out, ",")
	}
	b.WriteString(quote(header) + "\n")
	for _, r := range rows {
		b.WriteString(quote(r) + "\n")
	}
	path := filepath.Join(dir, "labels.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestLoaderJoinsInLabelOrder(t *testing.T) {
	root := t.TempDir()
	fcDir := filepath.Join(root, "fc")
	writeMatrix(t, fcDir, "A", 0.0)
	writeMatrix(t, filepath.Join(fcDir, "nested"), "B", 0.5)
	labels := writeLabels(t, root)

	var loader interface {
		Load(context.Context) (*cohort.Cohort, error)
	} = NewLoader(labels, fcDir, []string{"FSIQ"}, quiet)

	c, err := loader.Load(context.Background())
	require.NoError(t, err)

	// C has no matrix; B precedes A in the label file
	assert.Equal(t, []string{"B", "A"}, c.SubjectIDs)
	assert.Equal(t, []float64{11, 8}, c.Ages)
	assert.Equal(t, []float64{100, 90}, c.Measures["FSIQ"])
	require.Len(t, c.Features, 2)
	assert.Len(t, c.Features[0], 6)
	assert.InDelta(t, 0.6, c.Features[0][0], 1e-12)
	assert.Equal(t, cohort.PopulationHealthy, c.Population)
}

func TestReadMatrixErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,x\n2,3\n"), 0o644))
	_, err := ReadMatrix(bad)
	assert.Error(t, err)

	_, err = ReadMatrix(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestReadVectorsRejectsNonSquare(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "sub-X")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MatrixFile), []byte("1,2,3\n4,5,6\n"), 0o644))

	_, err := ReadVectors(context.Background(), root)
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}
