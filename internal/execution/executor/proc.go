package executor

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var errStopTimeout = errors.New("stop timeout")

type proc struct {
	cmd         *exec.Cmd
	pid         int
	output      *os.File
	termination chan struct{}

	log *zap.Logger
}

// startProc spawns argv with stdout and stderr merged into one pipe.
func startProc(argv []string, config Config, log *zap.Logger) (*proc, error) {
	cmd := exec.Command(argv[0], argv[1:]...)

	env := mergeEnv(os.Environ(), config.Env)

	if config.Cwd != "" {
		cmd.Dir = config.Cwd

		// exec only updates PWD for an inherited environment
		if _, ok := config.Env["PWD"]; !ok {
			if pwd, err := filepath.Abs(config.Cwd); err == nil {
				env = mergeEnv(env, map[string]string{"PWD": pwd})
			}
		}
	}

	cmd.Env = env

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd.Stdout = writer
	cmd.Stderr = writer

	initCmd(cmd)

	if err := cmd.Start(); err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}

	// the child holds its own copy of the write end, closing ours
	// lets the reader see EOF once the child closes the pipe
	writer.Close()

	p := &proc{
		cmd:         cmd,
		pid:         cmd.Process.Pid,
		output:      reader,
		termination: make(chan struct{}),
		log:         log.With(zap.Int("pid", cmd.Process.Pid)),
	}

	go func() {
		// block until the process exits, the exit
		// status is read from cmd.ProcessState
		_ = cmd.Wait()

		close(p.termination)
	}()

	return p, nil
}

// Exited reports without blocking whether the process has exited.
func (p *proc) Exited() bool {
	select {
	case <-p.termination:
		return true
	default:
		return false
	}
}

// Terminate sends SIGTERM to the process group and waits up to timeout
// for it to exit. If it does not, the process group is killed.
func (p *proc) Terminate(timeout time.Duration) error {
	// terminate should report success if the process
	// exited by the time the request is handled
	if p.Exited() {
		p.log.Debug("process already exited")
		return nil
	}

	p.log.Info("terminating process")
	if err := p.signal(false); err != nil {
		p.log.Error("terminate failed", zap.Error(err))
	}

	if err := p.waitFor(timeout); err == nil {
		return nil
	}

	p.log.Warn("process did not exit in time, killing", zap.Duration("timeout", timeout))
	if err := p.signal(true); err != nil {
		p.log.Error("kill failed", zap.Error(err))
		return err
	}

	return nil
}

// Wait blocks until the process exited and returns its exit status.
func (p *proc) Wait() (int, *int) {
	<-p.termination

	return exitStatus(p.cmd.ProcessState)
}

func (p *proc) waitFor(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	select {
	case <-p.termination:
		return nil
	case <-time.After(timeout):
		return errStopTimeout
	}
}

func mergeEnv(environ []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return environ
	}

	env := make([]string, 0, len(environ)+len(overrides))
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}

	for k, v := range overrides {
		env = append(env, k+"="+v)
	}

	return env
}
