package group_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/catharsys/anybase/internal/execution/executor"
	"github.com/catharsys/anybase/internal/execution/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shellJob(line string) *executor.Executor {
	return executor.New(executor.Params{
		Config: executor.Config{Cmd: line, Shell: true},
		Stdout: &bytes.Buffer{},
		Log:    zap.NewNop(),
	})
}

func TestGroup_AddJob_RejectsDuplicateID(t *testing.T) {
	g := group.New(zap.NewNop())

	require.NoError(t, g.AddJob(1, shellJob("true")))

	err := g.AddJob(1, shellJob("true"))
	assert.ErrorIs(t, err, group.ErrDuplicateJob)
	assert.Equal(t, []int{1}, g.Jobs())
}

func TestGroup_AllEnded(t *testing.T) {
	g := group.New(zap.NewNop())
	assert.True(t, g.AllEnded())

	job := shellJob("true")
	require.NoError(t, g.AddJob(7, job))

	status, ok := g.Status(7)
	require.True(t, ok)
	assert.Equal(t, group.StatusNotStarted, status)
	assert.False(t, g.AllEnded())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, g.AllEnded())
}

func TestGroup_CollectsOutputAndStatus(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("echo a; echo b; echo c")
	require.NoError(t, g.AddJob(3, job))

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, g.PumpOutput(0, 0))

	status, _ := g.Status(3)
	assert.Equal(t, group.StatusEnded, status)
	assert.Equal(t, []string{"a", "b", "c"}, g.Output(3).Lines())

	assert.Equal(t, []int{3}, g.ChangedStatusJobs(true))
	assert.Empty(t, g.ChangedStatusJobs(false))
	assert.Equal(t, []int{3}, g.ChangedOutputJobs(false))
	assert.Equal(t, []int{3}, g.ChangedOutputJobs(true))
	assert.Empty(t, g.ChangedOutputJobs(false))
}

func TestGroup_NonZeroExit_IsTerminated(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("exit 4")
	require.NoError(t, g.AddJob(1, job))

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	status, _ := g.Status(1)
	assert.Equal(t, group.StatusTerminated, status)
}

func TestGroup_SpawnFailure_IsTerminated(t *testing.T) {
	g := group.New(zap.NewNop())

	job := executor.New(executor.Params{
		Config: executor.Config{Cmd: "/nonexistent/binary"},
		Log:    zap.NewNop(),
	})
	require.NoError(t, g.AddJob(1, job))

	_, err := job.Run(context.Background())
	require.Error(t, err)

	status, _ := g.Status(1)
	assert.Equal(t, group.StatusTerminated, status)
	assert.True(t, g.AllEnded())
}

func TestGroup_TerminateJob_BeforeStart(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("exit 0")
	require.NoError(t, g.AddJob(2, job))
	require.NoError(t, g.TerminateJob(2))
	assert.True(t, g.TerminationRequested(2))

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Terminated)

	status, _ := g.Status(2)
	assert.Equal(t, group.StatusTerminated, status)
}

func TestGroup_TerminateJob_Unknown(t *testing.T) {
	g := group.New(zap.NewNop())

	assert.ErrorIs(t, g.TerminateJob(42), group.ErrUnknownJob)
	assert.False(t, g.TerminationRequested(42))
}

func TestGroup_TerminateAll_StopsRunningJobs(t *testing.T) {
	g := group.New(zap.NewNop())

	var wg sync.WaitGroup
	for id := 1; id <= 3; id++ {
		job := shellJob("sleep 10")
		require.NoError(t, g.AddJob(id, job))

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = job.Run(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		for _, id := range g.Jobs() {
			if status, _ := g.Status(id); status != group.StatusRunning {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	g.TerminateAll()
	wg.Wait()

	assert.True(t, g.AllEnded())
	for _, id := range g.Jobs() {
		status, _ := g.Status(id)
		assert.Equal(t, group.StatusTerminated, status, "job %d", id)
	}
}

func TestGroup_PumpOutput_PreservesPerJobOrder(t *testing.T) {
	g := group.New(zap.NewNop())

	var wg sync.WaitGroup
	for id := 1; id <= 2; id++ {
		job := shellJob(fmt.Sprintf(`i=1; while [ $i -le 200 ]; do echo %d-$i; i=$((i+1)); done`, id))
		require.NoError(t, g.AddJob(id, job))

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = job.Run(context.Background())
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		g.PumpOutput(time.Microsecond, 5*time.Millisecond)
	}
	g.PumpOutput(0, 0)

	for id := 1; id <= 2; id++ {
		lines := g.Output(id).Lines()
		require.Len(t, lines, 200)
		for i, line := range lines {
			assert.Equal(t, fmt.Sprintf("%d-%d", id, i+1), line)
		}
	}
}

func TestGroup_PumpOutput_WaitsForFirstLine(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("sleep 0.1; echo late")
	require.NoError(t, g.AddJob(1, job))

	go func() { _, _ = job.Run(context.Background()) }()

	assert.Equal(t, 0, g.PumpOutput(0, 0))
	assert.Equal(t, 1, g.PumpOutput(0, 5*time.Second))
	assert.Equal(t, []string{"late"}, g.Output(1).Lines())
}

func TestGroup_Clear(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("echo stale")
	require.NoError(t, g.AddJob(1, job))

	assert.ErrorIs(t, g.Clear(false), group.ErrStillRunning)
	assert.Equal(t, []int{1}, g.Jobs())

	require.NoError(t, g.Clear(true))
	assert.Empty(t, g.Jobs())
	assert.Nil(t, g.Output(1))
	assert.Empty(t, g.ChangedStatusJobs(false))
	assert.Empty(t, g.ChangedOutputJobs(false))

	// callbacks of cleared jobs do not leak into a new job with the same id
	fresh := shellJob("true")
	require.NoError(t, g.AddJob(1, fresh))

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	g.PumpOutput(0, 0)

	status, _ := g.Status(1)
	assert.Equal(t, group.StatusNotStarted, status)
	assert.Equal(t, 0, g.Output(1).Len())
}

func TestGroup_Clear_WhileRunning(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("echo started; sleep 10")
	require.NoError(t, g.AddJob(1, job))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = job.Run(context.Background())
	}()

	require.Eventually(t, func() bool {
		status, _ := g.Status(1)
		return status == group.StatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, g.Clear(false), group.ErrStillRunning)
	assert.Equal(t, []int{1}, g.Jobs())

	g.TerminateAll()
	require.NoError(t, g.Clear(true))

	assert.Empty(t, g.Jobs())
	assert.Empty(t, g.ChangedStatusJobs(false))
	assert.Empty(t, g.ChangedOutputJobs(false))
	assert.True(t, g.AllEnded())

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("job did not return after termination")
	}

	g.PumpOutput(0, 0)
	assert.Empty(t, g.Jobs())
	assert.Empty(t, g.ChangedStatusJobs(false))
	assert.Empty(t, g.ChangedOutputJobs(false))
}

func TestGroup_Clear_AfterAllEnded(t *testing.T) {
	g := group.New(zap.NewNop())

	job := shellJob("true")
	require.NoError(t, g.AddJob(1, job))
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.NoError(t, g.Clear(false))
	assert.Empty(t, g.Jobs())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", group.StatusNotStarted.String())
	assert.Equal(t, "RUNNING", group.StatusRunning.String())
	assert.Equal(t, "TERMINATED", group.StatusTerminated.String())
	assert.True(t, group.StatusEnded.Done())
	assert.False(t, group.StatusStarting.Done())
}
