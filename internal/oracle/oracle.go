// Package oracle classifies generator runs from their unstructured log text.
//
// The generator reports its problems only as free-form messages, so detection
// is a table of substring markers rather than a parser.
package oracle

import "strings"

// Tag is a short diagnostic annotation attached to a verdict line.
type Tag string

const (
	SpecialPayload        Tag = "SpecialPayload"
	TermCharInOverflowPtr Tag = "TermCharInOverflowPtr"
	TermCharInPayload     Tag = "TermCharInPayload"
	UnknownChoice         Tag = "UnknownChoice"
	BuildPayloadFailed    Tag = "BuildPayloadFailed"
	FindGadgetFail        Tag = "FindGadgetFail"
	HeapAlloc             Tag = "HeapAlloc"
	HeapAllocOrder        Tag = "HeapAllocOrder"
	Underflow             Tag = "Underflow"
	ASAN                  Tag = "ASAN"

	Segfault    Tag = "SEGFAULT"
	BusError    Tag = "BUSERROR"
	IllegalInsn Tag = "SIGILL"

	// Timeout marks a trial that was killed by the harness.
	Timeout Tag = "TIMEOUT"
)

// ImpossibleMarker appears in the primary log when the generator cannot build
// any payload for the configuration.
const ImpossibleMarker = "Impossible"

// Rule maps a log substring to the tag it produces.
type Rule struct {
	Marker string
	Tag    Tag
}

// logRules is evaluated in order against the primary log of every trial.
var logRules = []Rule{
	{"jump buffer is between", SpecialPayload},
	{"Overflow pointer contains terminating char", TermCharInOverflowPtr},
	{"in the middle", TermCharInPayload},
	{"Unknown choice of", UnknownChoice},
	{"Could not build payload", BuildPayloadFailed},
	{"find_gadget", FindGadgetFail},
	{"Unable to allocate heap", HeapAlloc},
	{"the wrong order", HeapAllocOrder},
	{"Target address is lower", Underflow},
	{"AddressSanitizer", ASAN},
}

// crashRule matches either the shell-style message or the signal itself.
type crashRule struct {
	Message string
	Signal  string
	Tag     Tag
}

var crashRules = []crashRule{
	{"Segmentation fault", "SIGSEGV", Segfault},
	{"Bus error", "SIGBUS", BusError},
	{"Illegal instruction", "SIGILL", IllegalInsn},
}

// IsImpossible reports whether the log says the configuration can never work.
func IsImpossible(log string) bool {
	return strings.Contains(log, ImpossibleMarker)
}

// ScanLog returns one tag per marker found in log, in table order.
// Text that matches no marker is ignored.
func ScanLog(log string) []Tag {
	var tags []Tag
	for _, r := range logRules {
		if strings.Contains(log, r.Marker) {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

// ScanCrash looks for a crash signature in a trial's stderr log or in the
// signal that terminated it. Only the first matching signature counts.
func ScanCrash(stderr, signal string) (Tag, bool) {
	for _, r := range crashRules {
		if strings.Contains(stderr, r.Message) || signal == r.Signal {
			return r.Tag, true
		}
	}
	return "", false
}

// TagSet collects tags without duplicates, keeping first-seen order.
type TagSet struct {
	seen map[Tag]bool
	list []Tag
}

// Add inserts tags that are not already present.
func (s *TagSet) Add(tags ...Tag) {
	if s.seen == nil {
		s.seen = make(map[Tag]bool)
	}
	for _, t := range tags {
		if s.seen[t] {
			continue
		}
		s.seen[t] = true
		s.list = append(s.list, t)
	}
}

// List returns the tags in insertion order.
func (s *TagSet) List() []Tag {
	return append([]Tag(nil), s.list...)
}
