package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/catharsys/anybase/internal/execution/handler"
	"go.uber.org/zap"
)

// State is the lifecycle state of an executor.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateEnded
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// lineBufferSize bounds the number of lines queued between
// the reader goroutine and the supervision loop.
const lineBufferSize = 1024

type Params struct {
	// Config is the process configuration
	Config Config

	// Handler receives the lifecycle events of the process. If nil,
	// an empty handler is created, which callers may add to.
	Handler *handler.Handler

	// Stdout receives printed lines and error summaries.
	// Defaults to os.Stdout.
	Stdout io.Writer

	// Log is the logger to use for the executor
	Log *zap.Logger
}

// Executor runs exactly one external process to completion or forced
// termination, and reports its lifecycle to a handler. An executor
// cannot be reused once it has been run.
type Executor struct {
	config  Config
	handler *handler.Handler
	stdout  io.Writer
	state   atomic.Int32

	log *zap.Logger
}

func New(params Params) *Executor {
	h := params.Handler
	if h == nil {
		h = handler.New(handler.Funcs{})
	}

	stdout := params.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	config := params.Config
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = DefaultStopTimeout
	}

	return &Executor{
		config:  config,
		handler: h,
		stdout:  stdout,
		log:     log.Named("executor"),
	}
}

// Handler returns the handler the executor reports to.
func (e *Executor) Handler() *handler.Handler {
	return e.handler
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	return State(e.state.Load())
}

// Run spawns the process and supervises it until it exits. Termination
// is requested either by a poll-terminate callback or by cancelling ctx.
//
// A spawn failure is returned as *SpawnError. A non-zero exit code is
// reported to the ended callbacks (or printed) and only returned as
// *ExitError if RaiseOnError is set.
func (e *Executor) Run(ctx context.Context) (Result, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return Result{}, ErrAlreadyStarted
	}

	argv, display, cleanup, err := e.command()
	if err != nil {
		return Result{}, e.spawnFailed(display, err)
	}
	defer cleanup()

	log := e.log.With(zap.Strings("command", display), zap.String("cwd", e.config.Cwd))
	log.Debug("starting process")

	if e.handler.HasPreStart() {
		e.handler.PreStart(display)
	}

	p, err := startProc(argv, e.config, log)
	if err != nil {
		log.Error("error starting process", zap.Error(err))
		return Result{}, e.spawnFailed(display, err)
	}

	e.state.Store(int32(StateRunning))

	if e.handler.HasPostStart() {
		e.handler.PostStart(display, p.pid)
	}

	lines := make(chan string, lineBufferSize)
	stop := make(chan struct{})

	go readLines(p.output, lines, stop, log)

	defer func() {
		close(stop)
		p.output.Close()
	}()

	streamed := e.handler.HasStdOut()
	var captured []string

	dispatch := func(line string) {
		if streamed {
			e.handler.StdOut(line)
			return
		}

		captured = append(captured, line)
		if e.config.Print {
			fmt.Fprintln(e.stdout, e.config.PrintPrefix+line)
		}
	}

	terminate, readerDone := e.supervise(ctx, p, lines, dispatch)

	if terminate {
		log.Info("termination requested")
		if err := p.Terminate(e.config.StopTimeout); err != nil {
			log.Error("error terminating process", zap.Error(err))
		}
	}

	code, signal := p.Wait()

	if !readerDone {
		e.drainRemaining(lines, dispatch, terminate)
	}

	if terminate && code == 0 {
		code = ExitCodeTerminated
	}

	log.Debug("process exited", zap.Int("code", code), zap.Intp("signal", signal))

	res := Result{
		Success:    code == 0,
		ExitCode:   code,
		Signal:     signal,
		Terminated: terminate,
	}
	if e.config.ReturnOutput {
		res.Output = captured
	}

	if code == 0 {
		e.state.Store(int32(StateEnded))
		if e.handler.HasEnded() {
			e.handler.Ended(code, "")
		}
		return res, nil
	}

	e.state.Store(int32(StateTerminated))

	if e.config.RaiseOnError && !terminate {
		if e.handler.HasEnded() {
			e.handler.Ended(code, "")
		}
		return res, &ExitError{Cmd: display, Code: code, Output: captured}
	}

	// cancelled processes report an empty error text
	var msg string
	if !terminate {
		msg = e.errorSummary(captured)
	}

	if e.handler.HasEnded() {
		e.handler.Ended(code, msg)
	} else if msg != "" && !e.config.Print {
		fmt.Fprint(e.stdout, msg)
	}

	return res, nil
}

// supervise runs the polling loop until termination is requested, the
// process exits or its output pipe is closed.
func (e *Executor) supervise(
	ctx context.Context,
	p *proc,
	lines <-chan string,
	dispatch func(string),
) (terminate bool, readerDone bool) {
	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil || (e.handler.HasPollTerminate() && e.handler.PollTerminate()) {
			return true, readerDone
		}

		if drainQueued(lines, dispatch) {
			readerDone = true
		}

		if p.Exited() || readerDone {
			return false, readerDone
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
		case <-p.termination:
		}
	}
}

// drainRemaining dispatches the lines left after the process exited. For
// terminated processes, reading stops after the stop timeout, as orphaned
// grandchildren may keep the pipe open.
func (e *Executor) drainRemaining(lines <-chan string, dispatch func(string), terminate bool) {
	var deadline <-chan time.Time
	if terminate {
		timer := time.NewTimer(e.config.StopTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			dispatch(line)
		case <-deadline:
			e.log.Warn("output pipe still open after termination")
			return
		}
	}
}

func (e *Executor) errorSummary(lines []string) string {
	var b strings.Builder

	b.WriteString(e.config.PrintPrefix + "ERROR:\n")
	for _, line := range lines {
		b.WriteString(e.config.PrintPrefix + "! " + line + "\n")
	}

	return b.String()
}

func (e *Executor) spawnFailed(display []string, err error) error {
	e.state.Store(int32(StateTerminated))

	if e.handler.HasEnded() {
		e.handler.Ended(ExitCodeSpawnFailed, err.Error())
	}

	return &SpawnError{Cmd: display, Err: err}
}

// command returns the argument vector to execute, the command reported
// to callbacks and a cleanup function for temporary files.
func (e *Executor) command() ([]string, []string, func(), error) {
	noop := func() {}

	if len(e.config.Script) > 0 {
		shell := e.config.Cmd
		if shell == "" {
			shell = defaultScriptShell()
		}

		path, err := writeScript(e.config.Script)
		if err != nil {
			return nil, []string{shell}, noop, err
		}

		argv := append([]string{shell}, e.config.Args...)
		argv = append(argv, path)

		return argv, argv, func() { os.Remove(path) }, nil
	}

	if e.config.Cmd == "" {
		return nil, nil, noop, ErrNoCommand
	}

	if e.config.Shell {
		return shellCommand(e.config.Cmd), []string{e.config.Cmd}, noop, nil
	}

	argv := append([]string{e.config.Cmd}, e.config.Args...)

	return argv, argv, noop, nil
}

func writeScript(commands []string) (string, error) {
	file, err := os.CreateTemp("", "anybase-*"+scriptExt)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(strings.Join(commands, "\n") + "\n"); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

// drainQueued dispatches all currently queued lines without blocking.
// It returns true once the reader has closed the queue.
func drainQueued(lines <-chan string, dispatch func(string)) bool {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return true
			}
			dispatch(line)
		default:
			return false
		}
	}
}

// readLines pushes every line read from r onto lines until EOF, then
// closes lines. Trailing line breaks are removed.
func readLines(r io.Reader, lines chan<- string, stop <-chan struct{}, log *zap.Logger) {
	defer close(lines)

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")

			select {
			case lines <- line:
			case <-stop:
				return
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Error("failed to read process output", zap.Error(err))
			}
			return
		}
	}
}
