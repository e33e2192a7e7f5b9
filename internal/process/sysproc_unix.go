//go:build unix && !linux

package process

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr puts the child in its own process group. There is no
// parent-death signal outside Linux.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
