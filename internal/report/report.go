// Package report renders run summaries and the per-configuration verdict lines.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/state"
)

// Reporter renders the per-compiler totals of a finished run.
type Reporter interface {
	Render(w io.Writer, results state.Results) error
}

// Factory creates a Reporter.
type Factory func() Reporter

var registry = make(map[string]Factory)

// Register adds a reporter factory under a format name.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New creates the reporter for a format name.
func New(name string) (Reporter, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (available: %s)", name, strings.Join(Formats(), ", "))
	}
	return factory(), nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatLine renders one verdict line:
// compiler, parameter string, verdict, (successes/attempts), tags.
func FormatLine(e state.Entry) string {
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = string(t)
	}
	line := fmt.Sprintf("%5s %s %-4s (%d/%d) %s",
		e.Compiler, e.Config, e.Verdict, e.Successes, e.Attempts, strings.Join(tags, " "))
	return strings.TrimRight(line, " ")
}

// percent is n as a whole percentage of total, rounded half to even.
// A zero total yields 0.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(100 * float64(n) / float64(total)))
}
