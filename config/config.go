package config

import (
	"strings"
	"time"

	"github.com/catharsys/anybase/internal/execution/executor"
	"github.com/catharsys/anybase/internal/execution/group"
	"github.com/catharsys/anybase/util/conf"
)

// EnvPrefix is the prefix of environment variables that override config
// keys, e.g. ANYBASE_RUN__MAX_PARALLEL for run.max_parallel.
const EnvPrefix = "ANYBASE_"

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Exec holds the defaults for every executed process
	Exec ExecConfig `conf:"exec"`

	// Run is the configuration of the run command
	Run RunConfig `conf:"run"`
}

type ExecConfig struct {
	// PollInterval is the interval the termination callbacks are polled in
	PollInterval time.Duration `conf:"poll_interval"`

	// StopTimeout is the time a terminated process gets before it is killed
	StopTimeout time.Duration `conf:"stop_timeout"`

	// Shell runs job commands through the system shell
	Shell bool `conf:"shell"`

	// PrintPrefix is prepended to every line of an error summary
	PrintPrefix string `conf:"print_prefix"`
}

type RunConfig struct {
	group.RunnerConfig `conf:",squash"`

	// PumpInterval is the longest time the output pump waits for new lines
	PumpInterval time.Duration `conf:"pump_interval"`

	// EnvFile is a dotenv file with environment overrides for all jobs
	EnvFile string `conf:"env_file"`

	// Cwd is the working directory of all jobs
	Cwd string `conf:"cwd"`
}

var DefaultExecConfig = conf.DefaultConfig{
	"poll_interval": executor.DefaultPollInterval,
	"stop_timeout":  executor.DefaultStopTimeout,
	"shell":         true,
	"print_prefix":  "",
}

var DefaultRunConfig = conf.DefaultConfig{
	"max_parallel":  0,
	"pump_interval": 100 * time.Millisecond,
}

var DefaultConfig = mergeDefaults(
	conf.DefaultConfig{
		"log_level":  "info",
		"log_format": "production",
	},
	conf.MergeDefaults("exec", DefaultExecConfig),
	conf.MergeDefaults("run", DefaultRunConfig),
)

func mergeDefaults(maps ...conf.DefaultConfig) conf.DefaultConfig {
	merged := conf.DefaultConfig{}
	for _, m := range maps {
		for key, val := range m {
			merged[key] = val
		}
	}

	return merged
}

// Executor returns the executor configuration of a job command line.
// Without Shell, the line is split at white space into command and args.
func (c ExecConfig) Executor(command string) executor.Config {
	config := executor.Config{
		Cmd:          command,
		Shell:        c.Shell,
		PrintPrefix:  c.PrintPrefix,
		PollInterval: c.PollInterval,
		StopTimeout:  c.StopTimeout,
	}

	if !c.Shell {
		if fields := strings.Fields(command); len(fields) > 0 {
			config.Cmd = fields[0]
			config.Args = fields[1:]
		}
	}

	return config
}
