package run

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/catharsys/anybase/internal/execution/executor"
	"github.com/catharsys/anybase/internal/execution/group"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ExitCodeJobFailed is the exit code if any job did not end successfully.
const ExitCodeJobFailed = 1

type SessionParams struct {
	fx.In

	Context context.Context

	Config Config

	Runner     *group.Runner
	Shutdowner fx.Shutdowner

	Stdout io.Writer `optional:"true"`
	Log    *zap.Logger
}

// Session runs the configured jobs as one group, prints their output
// prefixed with the job id and shuts the application down once all jobs
// have returned.
type Session struct {
	ctx        context.Context
	config     Config
	runner     *group.Runner
	group      *group.Group
	shutdowner fx.Shutdowner
	stdout     io.Writer
	done       chan struct{}
	log        *zap.Logger
}

func NewSession(params SessionParams) *Session {
	stdout := params.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &Session{
		ctx:        params.Context,
		config:     params.Config,
		runner:     params.Runner,
		group:      params.Runner.Group(),
		shutdowner: params.Shutdowner,
		stdout:     stdout,
		done:       make(chan struct{}),
		log:        params.Log,
	}
}

func NewLifecycleSession(params SessionParams, lc fx.Lifecycle) *Session {
	session := NewSession(params)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go session.Serve(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return session.Shutdown(ctx)
		},
	})
	return session
}

// Serve starts all jobs and pumps their output until every job returned.
func (s *Session) Serve(context.Context) {
	defer close(s.done)

	for i, line := range s.config.Jobs {
		id := i + 1

		execConfig := s.config.Exec.Executor(line)
		execConfig.Cwd = s.config.Run.Cwd
		execConfig.Env = s.config.Env

		exec := executor.New(executor.Params{
			Config: execConfig,
			Stdout: s.stdout,
			Log:    s.log.With(zap.Int("job", id)),
		})

		exec.Handler().AddEnded(func(code int, _ string) {
			if code != 0 {
				s.log.Warn("job failed", zap.Int("job", id), zap.Int("code", code))
			}
		})

		if err := s.runner.Submit(s.ctx, id, exec); err != nil {
			s.log.Error("failed to submit job", zap.Int("job", id), zap.Error(err))
		}
	}

	finished := make(chan struct{})
	go func() {
		s.runner.Wait()
		close(finished)
	}()

	wait := s.config.Run.PumpInterval
	if wait <= 0 {
		wait = group.DefaultPumpTime
	}

	for {
		s.group.PumpOutput(group.DefaultPumpTime, wait)
		s.flush()

		select {
		case <-finished:
			s.group.PumpOutput(0, 0)
			s.flush()

			code := s.ExitCode()
			s.log.Info("all jobs returned", zap.Int("exit_code", code))

			if err := s.shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
				s.log.Debug("shutdown already in progress", zap.Error(err))
			}
			return
		default:
		}
	}
}

// Shutdown requests termination of all jobs and waits until they returned.
func (s *Session) Shutdown(ctx context.Context) error {
	s.group.TerminateAll()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.log.Error("jobs still running after shutdown timeout")
		return ctx.Err()
	}
}

// ExitCode is ExitCodeJobFailed if any job did not end successfully.
func (s *Session) ExitCode() int {
	for _, id := range s.group.Jobs() {
		if status, _ := s.group.Status(id); status != group.StatusEnded {
			return ExitCodeJobFailed
		}
	}

	return 0
}

func (s *Session) flush() {
	for _, id := range s.group.ChangedStatusJobs(true) {
		status, _ := s.group.Status(id)
		s.log.Info("job status changed", zap.Int("job", id), zap.Stringer("status", status))
	}

	for _, id := range s.group.ChangedOutputJobs(true) {
		output := s.group.Output(id)
		if output == nil {
			continue
		}

		for _, line := range output.ReadNew() {
			fmt.Fprintf(s.stdout, "[%d] %s\n", id, line)
		}
	}
}
