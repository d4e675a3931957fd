// Package attack describes the RIPE attack matrix: the dimensions of a single
// attack configuration and the enumeration of their cross-product.
package attack

import (
	"fmt"
	"strings"
)

// Technique selects whether the overflow hits the target directly or through
// an intermediate pointer.
type Technique string

const (
	Direct   Technique = "direct"
	Indirect Technique = "indirect"
)

// Location is the memory region holding the overflowed buffer.
type Location string

const (
	Stack Location = "stack"
	Heap  Location = "heap"
	BSS   Location = "bss"
	Data  Location = "data"
)

// CodePointer is the code pointer the attack tries to overwrite.
type CodePointer string

// Method is the payload strategy.
type Method string

const (
	SimpleNopEquivalent Method = "simplenopequival"
	ReturnToLibc        Method = "r2libc"
	ROP                 Method = "rop"
)

// Function is the vulnerable libc (or hand-written) function performing the overflow.
type Function string

var (
	// Techniques lists every technique in enumeration order.
	Techniques = []Technique{Direct, Indirect}

	// Locations lists every location in enumeration order.
	Locations = []Location{Stack, Heap, BSS, Data}

	// CodePointers lists every code pointer target in enumeration order.
	CodePointers = []CodePointer{
		"ret", "baseptr",
		"funcptrstackvar", "funcptrstackparam",
		"funcptrheap", "funcptrbss", "funcptrdata",
		"structfuncptrstack", "structfuncptrheap",
		"structfuncptrbss", "structfuncptrdata",
		"longjmpstackvar", "longjmpstackparam",
		"longjmpheap", "longjmpbss", "longjmpdata",
	}

	// Methods lists every attack method in enumeration order.
	Methods = []Method{SimpleNopEquivalent, ReturnToLibc, ROP}

	// Functions lists every vulnerable function in enumeration order.
	Functions = []Function{
		"memcpy", "strcpy", "strncpy", "sprintf", "snprintf",
		"strcat", "strncat", "sscanf", "fscanf", "homebrew",
	}
)

// Config is one point of the attack matrix. It is a comparable value; two
// configs are equal only if every dimension matches.
type Config struct {
	Technique   Technique   `json:"technique"`
	Location    Location    `json:"location"`
	CodePointer CodePointer `json:"code_pointer"`
	Method      Method      `json:"method"`
	Function    Function    `json:"function"`
}

// Args returns the generator command-line flags for the configuration.
func (c Config) Args() []string {
	return []string{
		"-t", string(c.Technique),
		"-l", string(c.Location),
		"-c", string(c.CodePointer),
		"-i", string(c.Method),
		"-f", string(c.Function),
	}
}

// String returns the fixed-width parameter string used in logs and report lines.
func (c Config) String() string {
	return fmt.Sprintf("-t %8s -l %5s -c %18s -i %16s -f %8s",
		c.Technique, c.Location, c.CodePointer, c.Method, c.Function)
}

// Key returns a compact identifier safe for use in file names.
func (c Config) Key() string {
	return strings.Join([]string{
		string(c.Technique), string(c.Location), string(c.CodePointer),
		string(c.Method), string(c.Function),
	}, "_")
}

// ParseTechniques turns the user selection ("direct", "indirect" or "both")
// into the ordered technique subset.
func ParseTechniques(s string) ([]Technique, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "":
		return append([]Technique(nil), Techniques...), nil
	case string(Direct):
		return []Technique{Direct}, nil
	case string(Indirect):
		return []Technique{Indirect}, nil
	default:
		return nil, fmt.Errorf("unknown technique %q (want direct, indirect or both)", s)
	}
}
