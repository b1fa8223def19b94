package run

import (
	"github.com/catharsys/anybase/internal/execution/group"
	"github.com/catharsys/anybase/util/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module(config Config) fx.Option {
	return fx.Module(
		"run",
		// rename logger for module
		logging.DecorateLogger("run"),
		// provide config
		fx.Supply(config),
		// provide runner
		fx.Provide(NewLifecycleRunner),
		// provide session
		fx.Provide(NewLifecycleSession),
		// invoke session
		fx.Invoke(func(*Session) {}),
	)
}

func NewLifecycleRunner(config Config, log *zap.Logger, lc fx.Lifecycle) (*group.Runner, error) {
	runner, err := group.NewRunner(group.RunnerParams{
		Config: config.Run.RunnerConfig,
		Log:    log,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(runner.Close))

	return runner, nil
}
