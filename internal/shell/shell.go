package shell

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Shell runs an fx application until it is shut down and turns the
// shutdown signal into an ExitError.
type Shell struct {
	log     *zap.Logger
	options []fx.Option
}

func New(log *zap.Logger, options ...fx.Option) *Shell {
	return &Shell{
		log:     log,
		options: options,
	}
}

// Run starts the application built from the shell options and options,
// blocks until it is shut down and stops it again. The returned error is
// always an *ExitError: 1 if the application failed to start or stop,
// the exit code of the shutdown signal otherwise.
func (s *Shell) Run(ctx context.Context, options ...fx.Option) error {
	defer s.log.Sync()

	// the application context outlives Stop, so stop hooks can still use it
	appCtx, cancelApp := context.WithCancel(ctx)
	defer cancelApp()

	app := s.newApp(appCtx, options...)

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()

	if err := app.Start(startCtx); err != nil {
		s.log.Error("failed to start application", zap.Error(err))
		return NewExitError(1)
	}

	// blocks until a shutdowner or an OS signal ends the application
	sig := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(ctx, app.StopTimeout())
	defer cancelStop()

	if err := app.Stop(stopCtx); err != nil {
		s.log.Error("failed to stop application", zap.Error(err))
		return NewExitError(1)
	}

	s.log.Debug("application stopped", zap.Int("exit_code", sig.ExitCode))

	return NewExitError(sig.ExitCode)
}

func (s *Shell) newApp(ctx context.Context, options ...fx.Option) *fx.App {
	return fx.New(
		// execution context shared by all modules
		fx.Supply(fx.Annotate(ctx, fx.As(new(context.Context)))),
		fx.Supply(s.log),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: s.log.Named("fx")}
		}),
		fx.Options(s.options...),
		fx.Options(options...),
	)
}
