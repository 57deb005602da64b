//go:build !windows

package scanner

import (
	"syscall"
	"time"
)

// unixKiller implements Kill for darwin and linux. SIGTERM gives the
// process a chance to shut down cleanly; if it is still alive half a second
// later it gets SIGKILL.
type unixKiller struct{}

func (unixKiller) Kill(pid int, force bool) error {
	signal := syscall.SIGTERM
	if force {
		signal = syscall.SIGKILL
	}

	if err := syscall.Kill(pid, signal); err != nil {
		return err
	}

	if !force {
		time.Sleep(500 * time.Millisecond)
		// Signal 0 probes for existence without delivering anything.
		if err := syscall.Kill(pid, 0); err == nil {
			return syscall.Kill(pid, syscall.SIGKILL)
		}
	}

	return nil
}
