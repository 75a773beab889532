//go:build unix

package daemon

import (
	"os/exec"
	"syscall"
)

// detach puts the daemon in its own session so it outlives the client and
// does not receive the terminal's signals.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
