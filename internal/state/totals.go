// Package state holds the run's accumulated results: per-compiler totals,
// the per-configuration entries, and their on-disk record.
package state

import (
	"github.com/zjy-dev/ripe-tester/internal/attack"
	"github.com/zjy-dev/ripe-tester/internal/oracle"
)

// Totals counts verdicts for one compiler.
type Totals struct {
	OK          int `json:"ok"`
	Some        int `json:"some"`
	Fail        int `json:"fail"`
	NotPossible int `json:"not_possible"`
}

// Add counts one verdict.
func (t *Totals) Add(v oracle.Verdict) {
	switch v {
	case oracle.OK:
		t.OK++
	case oracle.Some:
		t.Some++
	case oracle.Fail:
		t.Fail++
	case oracle.Impossible:
		t.NotPossible++
	}
}

// Attacks is the number of attempted attacks: OK+SOME+FAIL, excluding impossible ones.
func (t Totals) Attacks() int {
	return t.OK + t.Some + t.Fail
}

// Configurations is the number of configurations folded in, impossible ones included.
func (t Totals) Configurations() int {
	return t.Attacks() + t.NotPossible
}

// CompilerTotals pairs a compiler with its totals.
type CompilerTotals struct {
	Compiler string `json:"compiler"`
	Totals   Totals `json:"totals"`
}

// Results lists totals per tested compiler in test order.
type Results []CompilerTotals

// Get returns the totals for compiler.
func (r Results) Get(compiler string) (Totals, bool) {
	for _, ct := range r {
		if ct.Compiler == compiler {
			return ct.Totals, true
		}
	}
	return Totals{}, false
}

// GrandAttacks sums OK+SOME+FAIL over every compiler.
func (r Results) GrandAttacks() int {
	n := 0
	for _, ct := range r {
		n += ct.Totals.Attacks()
	}
	return n
}

// Entry is the verdict of one configuration under one compiler.
type Entry struct {
	Compiler  string         `json:"compiler"`
	Config    attack.Config  `json:"config"`
	Verdict   oracle.Verdict `json:"verdict"`
	Successes int            `json:"successes"`
	Attempts  int            `json:"attempts"`
	Tags      []oracle.Tag   `json:"tags,omitempty"`
}
