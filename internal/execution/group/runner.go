package group

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/catharsys/anybase/internal/execution/executor"
	"github.com/jackc/puddle/v2"
	"go.uber.org/zap"
)

// Runnable is a job the runner can start, usually an *executor.Executor.
type Runnable interface {
	Job
	Run(ctx context.Context) (executor.Result, error)
}

type RunnerConfig struct {
	// MaxParallel limits the number of jobs running at the same time.
	// Zero or less means no limit.
	MaxParallel int `conf:"max_parallel"`
}

type RunnerParams struct {
	Config RunnerConfig
	Group  *Group
	Log    *zap.Logger
}

// Outcome is what a finished job returned from Run.
type Outcome struct {
	Result executor.Result
	Err    error
}

// Runner starts the jobs of a group, each on its own goroutine, limiting
// parallelism with a pool of run slots.
type Runner struct {
	group *Group
	slots *puddle.Pool[int]

	wg       sync.WaitGroup
	mu       sync.Mutex
	outcomes map[int]Outcome

	log *zap.Logger
}

func NewRunner(params RunnerParams) (*Runner, error) {
	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	group := params.Group
	if group == nil {
		group = New(log)
	}

	r := &Runner{
		group:    group,
		outcomes: make(map[int]Outcome),
		log:      log.Named("runner"),
	}

	if params.Config.MaxParallel > 0 {
		var slot atomic.Int32

		pool, err := puddle.NewPool(&puddle.Config[int]{
			Constructor: func(context.Context) (int, error) {
				return int(slot.Add(1)), nil
			},
			Destructor: func(int) {},
			MaxSize:    int32(params.Config.MaxParallel),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create run slots: %w", err)
		}

		r.slots = pool
	}

	return r, nil
}

// Group returns the group that tracks the submitted jobs.
func (r *Runner) Group() *Group {
	return r.group
}

// Submit adds job to the group under id and runs it as soon as a slot is
// free. Jobs whose termination is requested before they got a slot are
// never started and end as terminated.
func (r *Runner) Submit(ctx context.Context, id int, job Runnable) error {
	if err := r.group.AddJob(id, job); err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		res, err := r.run(ctx, id, job)

		r.mu.Lock()
		r.outcomes[id] = Outcome{Result: res, Err: err}
		r.mu.Unlock()
	}()

	return nil
}

func (r *Runner) run(ctx context.Context, id int, job Runnable) (executor.Result, error) {
	log := r.log.With(zap.Int("job", id))

	if r.slots != nil {
		slot, err := r.slots.Acquire(ctx)
		if err != nil {
			log.Debug("job cancelled while waiting for a slot", zap.Error(err))
			return r.skip(job), err
		}
		defer slot.Release()

		log.Debug("acquired run slot", zap.Int("slot", slot.Value()))
	}

	if ctx.Err() != nil || r.group.TerminationRequested(id) {
		log.Debug("job terminated before start")
		return r.skip(job), ctx.Err()
	}

	res, err := job.Run(ctx)
	if err != nil {
		log.Warn("job failed", zap.Error(err))
	}

	return res, err
}

// skip reports a job that never started as terminated.
func (r *Runner) skip(job Runnable) executor.Result {
	if h := job.Handler(); h.HasEnded() {
		h.Ended(executor.ExitCodeTerminated, "")
	}

	return executor.Result{ExitCode: executor.ExitCodeTerminated, Terminated: true}
}

// Wait blocks until every submitted job has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Outcome returns what a finished job returned.
func (r *Runner) Outcome(id int) (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.outcomes[id]
	return o, ok
}

// Close releases the run slots. It must be called after Wait.
func (r *Runner) Close() {
	if r.slots != nil {
		r.slots.Close()
	}
}
