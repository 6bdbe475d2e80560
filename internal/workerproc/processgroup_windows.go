//go:build windows

package workerproc

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
