//go:build unix

package process

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// processGroup is the process group the backend leads.
type processGroup struct {
	p *os.Process
}

func newProcessGroup(p *os.Process) *processGroup {
	return &processGroup{p: p}
}

// kill sends SIGKILL to the whole group.
func (g *processGroup) kill() error {
	err := unix.Kill(-g.p.Pid, unix.SIGKILL)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return os.ErrProcessDone
	default:
		// Group signalling refused; fall back to the leader alone.
		return g.p.Kill()
	}
}

func (g *processGroup) release() {}
