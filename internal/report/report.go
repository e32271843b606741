// Package report renders saved cross-prediction entries as a markdown
// summary, with an HTML rendition for the results server.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"crosspred/domain/result"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Options controls report rendering
type Options struct {
	Title string
	Alpha float64 // p-values below Alpha are marked significant
}

// DefaultOptions returns the standard report settings
func DefaultOptions() Options {
	return Options{Title: "Cross-prediction results", Alpha: 0.05}
}

// Markdown builds one section per target measure. Each model gets a
// train-by-test grid of "score (p)" cells.
func Markdown(entries []result.Entry, opts Options) []byte {
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", opts.Title)
	if len(entries) == 0 {
		b.WriteString("No results.\n")
		return b.Bytes()
	}

	if pops := distinct(entries, func(e result.Entry) string { return e.Population }); len(pops) > 0 {
		fmt.Fprintf(&b, "Population: %s  \n", strings.Join(pops, ", "))
	}
	fmt.Fprintf(&b, "Entries: %d. Cells marked * have p < %g.\n\n", len(entries), opts.Alpha)

	for _, target := range distinct(entries, func(e result.Entry) string { return e.Target }) {
		fmt.Fprintf(&b, "## %s\n\n", target)
		byTarget := filter(entries, func(e result.Entry) bool { return e.Target == target })
		for _, model := range distinct(byTarget, func(e result.Entry) string { return e.Model }) {
			writeGrid(&b, model, filter(byTarget, func(e result.Entry) bool { return e.Model == model }), opts.Alpha)
		}
	}
	return b.Bytes()
}

// HTML renders the markdown report as a complete page
func HTML(entries []result.Entry, opts Options) []byte {
	md := Markdown(entries, opts)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: opts.Title,
	})
	return markdown.ToHTML(md, p, renderer)
}

func writeGrid(b *bytes.Buffer, model string, entries []result.Entry, alpha float64) {
	trains := distinct(entries, func(e result.Entry) string { return e.Train })
	tests := distinct(entries, func(e result.Entry) string { return e.Test })

	cells := make(map[[2]string]result.Entry, len(entries))
	perms := 0
	for _, e := range entries {
		cells[[2]string{e.Train, e.Test}] = e
		if e.NumPermutations > perms {
			perms = e.NumPermutations
		}
	}

	fmt.Fprintf(b, "### %s (%d permutations)\n\n", model, perms)
	b.WriteString("| Train \\ Test |")
	for _, t := range tests {
		fmt.Fprintf(b, " %s |", t)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(tests)))
	b.WriteString("\n")

	for _, tr := range trains {
		fmt.Fprintf(b, "| %s |", tr)
		for _, te := range tests {
			e, ok := cells[[2]string{tr, te}]
			if !ok {
				b.WriteString(" - |")
				continue
			}
			fmt.Fprintf(b, " %s |", cell(e, alpha))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func cell(e result.Entry, alpha float64) string {
	mark := ""
	if e.PValue < alpha {
		mark = "*"
	}
	return fmt.Sprintf("%.3f (%.3f)%s", e.Score, e.PValue, mark)
}

func distinct(entries []result.Entry, key func(result.Entry) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		k := key(e)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func filter(entries []result.Entry, keep func(result.Entry) bool) []result.Entry {
	var out []result.Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
