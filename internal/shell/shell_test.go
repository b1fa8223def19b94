package shell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/catharsys/anybase/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func TestShell_Run_PropagatesExitCode(t *testing.T) {
	s := shell.New(zap.NewNop())

	err := s.Run(context.Background(), fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner) {
		lc.Append(fx.StartHook(func() {
			go func() { _ = sd.Shutdown(fx.ExitCode(3)) }()
		}))
	}))

	require.True(t, shell.IsExitError(err))

	var exitErr *shell.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
}

func TestShell_Run_StartFailure(t *testing.T) {
	s := shell.New(zap.NewNop())

	err := s.Run(context.Background(), fx.Invoke(func() error {
		return errors.New("boom")
	}))

	var exitErr *shell.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode)
}

func TestIsExitError(t *testing.T) {
	assert.False(t, shell.IsExitError(nil))
	assert.False(t, shell.IsExitError(errors.New("other")))
	assert.True(t, shell.IsExitError(shell.NewExitError(2)))
	assert.Equal(t, "shell exited with 2", shell.NewExitError(2).Error())
}
