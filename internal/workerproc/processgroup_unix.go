//go:build !windows

package workerproc

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the child in its own process group so a timeout kill
// reaches any children the script itself spawned (spec §4.3.2, "kill the
// process tree").
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
