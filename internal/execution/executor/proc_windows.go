package executor

import (
	"os"
	"os/exec"
)

const scriptExt = ".ps1"

func shellCommand(line string) []string {
	return []string{"cmd", "/C", line}
}

func defaultScriptShell() string {
	return "powershell.exe"
}

func initCmd(cmd *exec.Cmd) {
	// No-op on Windows.
}

func (p *proc) signal(_ bool) error {
	return p.cmd.Process.Kill()
}

func exitStatus(state *os.ProcessState) (int, *int) {
	if state == nil {
		return 1, nil
	}

	return state.ExitCode(), nil
}
