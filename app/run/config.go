package run

import "github.com/catharsys/anybase/config"

type Config struct {
	// Jobs are the command lines to run, job ids start at 1
	Jobs []string

	// Exec holds the process defaults
	Exec config.ExecConfig

	// Run holds the group settings
	Run config.RunConfig

	// Env overrides the environment of every job
	Env map[string]string
}
