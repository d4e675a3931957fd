// Package cet applies a Control-flow Enforcement Technology mode to a generator invocation.
package cet

import (
	"fmt"
	"strings"

	"github.com/zjy-dev/ripe-tester/internal/exec"
)

// Mode selects how (or whether) CET is active while the generator runs.
type Mode string

const (
	// None runs the generator as is.
	None Mode = "N"
	// Emulated runs the generator under Intel SDE with CET emulation.
	Emulated Mode = "E"
	// Hardware asks glibc to enable the CPU shadow stack.
	Hardware Mode = "H"
)

// ShadowStackTunable is the glibc tunable that turns on hardware shadow stacks.
const ShadowStackTunable = "GLIBC_TUNABLES=glibc.cpu.hwcaps=SHSTK"

// DefaultSDEPath is the emulator binary looked up in PATH when none is configured.
const DefaultSDEPath = "sde64"

// ParseMode accepts the short letters (N/E/H) and the long names.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "none", "":
		return None, nil
	case "e", "emulated", "emulation", "sde":
		return Emulated, nil
	case "h", "hardware", "hw":
		return Hardware, nil
	default:
		return "", fmt.Errorf("unknown CET mode %q (want N, E or H)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Emulated:
		return "emulated"
	case Hardware:
		return "hardware"
	default:
		return "none"
	}
}

// Wrapper rewrites commands for a CET mode.
type Wrapper struct {
	Mode    Mode
	SDEPath string
}

// NewWrapper creates a Wrapper; an empty sdePath falls back to DefaultSDEPath.
func NewWrapper(mode Mode, sdePath string) *Wrapper {
	if sdePath == "" {
		sdePath = DefaultSDEPath
	}
	return &Wrapper{Mode: mode, SDEPath: sdePath}
}

// Wrap adjusts c in place: hardware mode adds the tunable to the environment,
// emulated mode moves the original command behind "sde64 -cet --".
func (w *Wrapper) Wrap(c *exec.Command) {
	switch w.Mode {
	case Hardware:
		c.Env = append(c.Env, ShadowStackTunable)
	case Emulated:
		args := make([]string, 0, len(c.Args)+3)
		args = append(args, "-cet", "--", c.Path)
		args = append(args, c.Args...)
		c.Path = w.SDEPath
		c.Args = args
	}
}

// Prefix renders the mode as the shell prefix it corresponds to, for logging.
func (w *Wrapper) Prefix() string {
	switch w.Mode {
	case Hardware:
		return ShadowStackTunable + " "
	case Emulated:
		return w.SDEPath + " -cet -- "
	default:
		return ""
	}
}
