package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/state"
)

func init() {
	Register("markdown", func() Reporter { return &MarkdownReporter{} })
}

// MarkdownReporter renders the summary as a markdown table.
// It uses the same shared denominator as the LaTeX table.
type MarkdownReporter struct{}

// Render writes the table.
func (r *MarkdownReporter) Render(w io.Writer, results state.Results) error {
	grand := results.GrandAttacks()

	var content strings.Builder
	content.WriteString("# RIPE Summary\n\n")
	content.WriteString("| Compiler | OK | SOME | FAIL | NP | Total Attacks |\n")
	content.WriteString("|---|---|---|---|---|---|\n")
	for _, ct := range results {
		t := ct.Totals
		fmt.Fprintf(&content, "| %s | %d (%d%%) | %d (%d%%) | %d (%d%%) | %d | %d |\n",
			ct.Compiler,
			t.OK, percent(t.OK, grand),
			t.Some, percent(t.Some, grand),
			t.Fail, percent(t.Fail, grand),
			t.NotPossible, t.Attacks())
	}

	if _, err := io.WriteString(w, content.String()); err != nil {
		return fmt.Errorf("failed to write markdown table: %w", err)
	}
	return nil
}
