package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("executor already started")
	ErrNoCommand      = errors.New("no command given")
)

const (
	// ExitCodeTerminated is reported for processes that were terminated on
	// request but exited with a zero exit code regardless.
	ExitCodeTerminated = -1

	// ExitCodeSpawnFailed is reported to ended callbacks if the process
	// could not be started.
	ExitCodeSpawnFailed = -2

	DefaultPollInterval = 20 * time.Millisecond
	DefaultStopTimeout  = 5 * time.Second
)

type Config struct {
	// Cmd is the path or name of the binary to execute. If Shell is set,
	// Cmd is a command line that is interpreted by the platform shell.
	// If Script is set, Cmd is the shell that executes the script.
	Cmd string `conf:"cmd"`

	// Args is the list of arguments to pass to the command
	Args []string `conf:"args"`

	// Shell runs Cmd through the platform shell
	Shell bool `conf:"shell"`

	// Script is a list of commands written to a temporary
	// script file, which is passed to Cmd as last argument
	Script []string `conf:"script"`

	// Cwd is the working directory in which the binary should
	// be executed. Defaults to the current working directory.
	Cwd string `conf:"cwd"`

	// Env is a map of environment variables that
	// override the inherited environment
	Env map[string]string `conf:"env"`

	// Print echoes every output line not consumed by a
	// stdout callback, prefixed with PrintPrefix
	Print bool `conf:"print"`

	// PrintPrefix is prepended to printed lines
	PrintPrefix string `conf:"print_prefix"`

	// RaiseOnError makes Run return an *ExitError on non-zero exit codes
	RaiseOnError bool `conf:"raise_on_error"`

	// ReturnOutput adds the captured output lines to the result
	ReturnOutput bool `conf:"return_output"`

	// PollInterval is the interval of the supervision loop
	PollInterval time.Duration `conf:"poll_interval"`

	// StopTimeout is the duration to wait for the process to exit
	// after SIGTERM before it is killed
	StopTimeout time.Duration `conf:"stop_timeout"`
}

// Result describes how a process ended.
type Result struct {
	// Success is true if the process exited with code 0 and
	// was not terminated on request
	Success bool

	// ExitCode is the exit code of the process
	ExitCode int

	// Signal is the signal that caused the process to exit, if any
	Signal *int

	// Terminated is true if termination was requested
	Terminated bool

	// Output holds the captured lines if ReturnOutput is set
	Output []string
}

// SpawnError is returned if the process could not be started.
type SpawnError struct {
	Cmd []string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start process %q: %v", strings.Join(e.Cmd, " "), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError is returned for non-zero exit codes if RaiseOnError is set.
type ExitError struct {
	Cmd    []string
	Code   int
	Output []string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process %q exited with code %d", strings.Join(e.Cmd, " "), e.Code)
}
