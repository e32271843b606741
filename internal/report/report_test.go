package report

import (
	"strings"
	"testing"

	"crosspred/domain/result"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []result.Entry {
	var out []result.Entry
	bins := []string{"Bin 1", "Bin 2", "Bin 3"}
	for _, target := range []string{"VCI", "FSIQ"} {
		for i, train := range bins {
			for j, test := range bins {
				p := 0.5
				if i == j {
					p = 0.01
				}
				out = append(out, result.Entry{
					Model: "ridge", Target: target, Train: train, Test: test,
					Score: 0.1 * float64(i+j), PValue: p, Population: "adhd", NumPermutations: 100,
				})
			}
		}
	}
	return out
}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(sampleEntries(), DefaultOptions()))

	assert.True(t, strings.HasPrefix(md, "# Cross-prediction results\n"))
	assert.Contains(t, md, "Population: adhd")
	assert.Contains(t, md, "Entries: 18.")
	assert.Contains(t, md, "### ridge (100 permutations)")
	assert.Contains(t, md, "| Train \\ Test | Bin 1 | Bin 2 | Bin 3 |")
	assert.Contains(t, md, "| Bin 1 | 0.000 (0.010)* | 0.100 (0.500) | 0.200 (0.500) |")

	// targets are sorted
	assert.Less(t, strings.Index(md, "## FSIQ"), strings.Index(md, "## VCI"))
}

func TestMarkdownMissingCell(t *testing.T) {
	entries := sampleEntries()[:2]
	md := string(Markdown(entries, Options{Title: "Partial", Alpha: 0.05}))
	assert.Contains(t, md, "# Partial")
	assert.Contains(t, md, "| Bin 1 | 0.000 (0.010)* | 0.100 (0.500) |")
}

func TestMarkdownEmpty(t *testing.T) {
	md := string(Markdown(nil, Options{}))
	assert.Equal(t, "# Cross-prediction results\n\nNo results.\n", md)
}

func TestHTML(t *testing.T) {
	page := string(HTML(sampleEntries(), DefaultOptions()))
	require.NotEmpty(t, page)
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h2")
	assert.Contains(t, page, "FSIQ")
}
