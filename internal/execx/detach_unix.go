//go:build !windows

package execx

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it keeps running when this
// process exits and does not receive our terminal's signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
