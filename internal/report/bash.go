package report

import (
	"fmt"
	"io"

	"github.com/zjy-dev/ripe-tester/internal/state"
)

func init() {
	Register("bash", func() Reporter { return &BashReporter{} })
}

// BashReporter prints one plain-text summary block per compiler.
type BashReporter struct{}

// Render writes the blocks in compiler order.
func (r *BashReporter) Render(w io.Writer, results state.Results) error {
	for _, ct := range results {
		t := ct.Totals
		if _, err := fmt.Fprintf(w, "\n||Summary %s||\nOK: %d SOME: %d FAIL: %d NP: %d Total Attacks: %d\n\n",
			ct.Compiler, t.OK, t.Some, t.Fail, t.NotPossible, t.Attacks()); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}
