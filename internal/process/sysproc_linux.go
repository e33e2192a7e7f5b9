//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the child in its own process group and asks the
// kernel to kill it if the host dies first.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
