// Package harden selects the compiler hardening flags the generator is built with.
package harden

import (
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/cet"
)

// Flag is one hardening option.
type Flag struct {
	// ID names the option in output file names and on the command line.
	ID     string
	CFlags string
	// CET is true for options that need control-flow enforcement at run time.
	CET bool
}

// Flags lists the known options in their fixed order.
var Flags = []Flag{
	{ID: "stkcan", CFlags: "-fstack-protector-strong"},
	{ID: "stkcla", CFlags: "-fstack-clash-protection"},
	{ID: "dforti", CFlags: "-DFORTIFY_SOURCE=3 -O2"},
	{ID: "fcfpro", CFlags: "-fcf-protection=full", CET: true},
	{ID: "mshstk", CFlags: "-fcf-protection=return", CET: true},
}

// Set is a selection of hardening options keyed by ID.
type Set map[string]bool

// Enabled returns the selected options in their fixed order.
func (s Set) Enabled() []Flag {
	var out []Flag
	for _, f := range Flags {
		if s[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// HardenFlags joins the selected compiler flags with single spaces.
func (s Set) HardenFlags() string {
	var parts []string
	for _, f := range s.Enabled() {
		parts = append(parts, f.CFlags)
	}
	return strings.Join(parts, " ")
}

// OutputName is "out-" followed by the selected IDs joined with "-",
// or "out" when nothing is selected.
func (s Set) OutputName() string {
	name := "out"
	for _, f := range s.Enabled() {
		name += "-" + f.ID
	}
	return name
}

// CETMode picks the mode the tests must run under. Options that need CET use
// hardware enforcement when it is available and emulation otherwise.
func (s Set) CETMode(hardware bool) cet.Mode {
	for _, f := range s.Enabled() {
		if !f.CET {
			continue
		}
		if hardware {
			return cet.Hardware
		}
		return cet.Emulated
	}
	return cet.None
}
