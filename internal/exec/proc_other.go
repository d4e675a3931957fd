//go:build !unix

package exec

import (
	"os/exec"
	"syscall"
)

func setProcessGroup(cmd *exec.Cmd) {}

func signalName(sig syscall.Signal) string {
	return sig.String()
}
