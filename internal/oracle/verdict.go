package oracle

import "fmt"

// Verdict is the classification of one configuration across all of its trials.
type Verdict string

const (
	Impossible Verdict = "IMPOSSIBLE"
	OK         Verdict = "OK"
	Fail       Verdict = "FAIL"
	Some       Verdict = "SOME"
)

// Decide derives the verdict from the number of successful trials out of the
// attempted ones. Tags never influence it.
func Decide(successes, attempts int, impossible bool) Verdict {
	switch {
	case impossible:
		return Impossible
	case successes == attempts:
		return OK
	case successes == 0:
		return Fail
	default:
		return Some
	}
}

// NeedsCrashScan reports whether the verdict's stderr logs are worth scanning
// for crash signatures.
func (v Verdict) NeedsCrashScan() bool {
	return v == Fail || v == Some
}

// ParseVerdict converts a stored verdict string back into a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch v := Verdict(s); v {
	case Impossible, OK, Fail, Some:
		return v, nil
	default:
		return "", fmt.Errorf("unknown verdict %q", s)
	}
}
