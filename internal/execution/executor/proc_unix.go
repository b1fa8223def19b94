//go:build aix || darwin || dragonfly || freebsd || (js && wasm) || linux || nacl || netbsd || openbsd || solaris

package executor

import (
	"os"
	"os/exec"
	"syscall"
)

const scriptExt = ".sh"

func shellCommand(line string) []string {
	return []string{"/bin/sh", "-c", line}
}

func defaultScriptShell() string {
	return "/bin/sh"
}

func initCmd(cmd *exec.Cmd) {
	// run the child in its own process group,
	// so that termination reaches its children
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func (p *proc) signal(force bool) error {
	signal := syscall.SIGTERM
	if force {
		signal = syscall.SIGKILL
	}

	if pgid, err := syscall.Getpgid(p.pid); err == nil {
		// Negative pid sends signal to all in process group
		return syscall.Kill(-pgid, signal)
	}

	return syscall.Kill(p.pid, signal)
}

func exitStatus(state *os.ProcessState) (int, *int) {
	if state == nil {
		// could not determine the exit status
		return 1, nil
	}

	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		signo := int(status.Signal())
		return state.ExitCode(), &signo
	}

	return state.ExitCode(), nil
}
