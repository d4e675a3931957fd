package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/state"
)

func init() {
	Register("latex", func() Reporter { return &LatexReporter{} })
}

const (
	latexBegin  = `\begin{tabular}{|c|c|c|c|}\hline`
	latexHeader = `\thead{Setup} & \thead{Functional \\ attacks} & \thead{Partly functional \\ attacks} & \thead{Nonfunctional \\ attacks}\\\hline\hline`
	latexEnd    = `\end{tabular}`
)

// LatexReporter prints a tabular with one row per compiler.
//
// Percentages share one denominator: OK+SOME+FAIL summed over every compiler
// in the run, so rows of a multi-compiler table do not each add up to 100%.
type LatexReporter struct{}

// Render writes the table.
func (r *LatexReporter) Render(w io.Writer, results state.Results) error {
	grand := results.GrandAttacks()

	var sb strings.Builder
	sb.WriteString(latexBegin + "\n")
	sb.WriteString(latexHeader + "\n")
	for _, ct := range results {
		t := ct.Totals
		fmt.Fprintf(&sb, " (%s) & %s & %s & %s \\\\ \\hline\n",
			ct.Compiler,
			latexCell(t.OK, grand),
			latexCell(t.Some, grand),
			latexCell(t.Fail, grand))
	}
	sb.WriteString(latexEnd + "\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write latex table: %w", err)
	}
	return nil
}

func latexCell(n, total int) string {
	return fmt.Sprintf(`%d (%d\%%)`, n, percent(n, total))
}
