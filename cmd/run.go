package cmd

import (
	"github.com/catharsys/anybase/app"
	"github.com/catharsys/anybase/app/run"
	"github.com/catharsys/anybase/util/conf"
	"github.com/catharsys/anybase/util/logging"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	runCmdDescription = `The run command starts every job as an external process of
one group and prints their output prefixed with the job id.
Jobs are numbered from 1 in the order they are given.

The command returns once all jobs have exited. It exits with
a non-zero code if any job failed or was terminated. On
SIGINT or SIGTERM, all jobs are terminated.`
	runCmd = &cli.Command{
		Name:        "run",
		Usage:       "Run a group of processes.",
		Description: runCmdDescription,
		Action:      runAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "job",
				Aliases:  []string{"j"},
				Usage:    "a command line to run. Can be given multiple times.",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "max-parallel",
				Aliases:  []string{"n"},
				Usage:    "the maximum number of jobs running at the same time, 0 for no limit.",
				Category: "run",
			},
			&cli.DurationFlag{
				Name:     "pump-interval",
				Usage:    "the longest time to wait for job output before polling again.",
				Category: "run",
			},
			&cli.PathFlag{
				Name:     "env-file",
				Usage:    "a dotenv file with environment variables for all jobs.",
				Category: "run",
			},
			&cli.PathFlag{
				Name:     "cwd",
				Usage:    "the working directory of all jobs.",
				Category: "run",
			},
			&cli.BoolFlag{
				Name:     "shell",
				Usage:    "run the jobs through the system shell.",
				Value:    true,
				Category: "exec",
			},
			&cli.DurationFlag{
				Name:     "stop-timeout",
				Usage:    "the time a terminated job gets to exit before it is killed.",
				Category: "exec",
			},
		},
	}
	runCliMap = map[string]string{
		"max-parallel":  "run.max_parallel",
		"pump-interval": "run.pump_interval",
		"env-file":      "run.env_file",
		"cwd":           "run.cwd",
		"shell":         "exec.shell",
		"stop-timeout":  "exec.stop_timeout",
	}
)

func runAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	cfg, err := parseConfig(ctx, runCliMap)
	if err != nil {
		return err
	}

	// make the command flags visible to the fx app
	ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

	var env map[string]string
	if cfg.Run.EnvFile != "" {
		if env, err = conf.LoadEnvFile(cfg.Run.EnvFile); err != nil {
			return err
		}
		log.Debug("loaded env file", zap.String("path", cfg.Run.EnvFile), zap.Int("vars", len(env)))
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	return app.Run(ctx.Context, run.Module(run.Config{
		Jobs: ctx.StringSlice("job"),
		Exec: cfg.Exec,
		Run:  cfg.Run,
		Env:  env,
	}))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, runCmd)
}
