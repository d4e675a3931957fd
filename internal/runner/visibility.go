package runner

import (
	"fmt"

	"github.com/zjy-dev/ripe-tester/internal/oracle"
)

// Visibility selects which verdict classes are streamed as lines.
// IMPOSSIBLE configurations are never shown.
type Visibility struct {
	OK   bool
	Some bool
	Fail bool
}

// ShowAll makes every printable verdict visible.
var ShowAll = Visibility{OK: true, Some: true, Fail: true}

// Shows reports whether lines with verdict v are printed.
func (v Visibility) Shows(verdict oracle.Verdict) bool {
	switch verdict {
	case oracle.OK:
		return v.OK
	case oracle.Some:
		return v.Some
	case oracle.Fail:
		return v.Fail
	default:
		return false
	}
}

// ParseSummary parses a three-digit 0/1 string such as "101".
// The digits are in the order SOME, OK, FAIL.
func ParseSummary(s string) (Visibility, error) {
	if len(s) != 3 {
		return Visibility{}, fmt.Errorf("summary must be three 0/1 digits, got %q", s)
	}
	var bits [3]bool
	for i := 0; i < 3; i++ {
		switch s[i] {
		case '0':
		case '1':
			bits[i] = true
		default:
			return Visibility{}, fmt.Errorf("summary must be three 0/1 digits, got %q", s)
		}
	}
	return Visibility{Some: bits[0], OK: bits[1], Fail: bits[2]}, nil
}
