//go:build windows

package execx

import (
	"os/exec"
	"syscall"
)

// detach starts the child in its own process group, outside our console.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // DETACHED_PROCESS
	}
}
