//go:build unix

package swarm

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the worker in its own process group so a kill also
// reaches helpers the engine started.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) error {
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
