package group

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/catharsys/anybase/internal/execution/handler"
	"go.uber.org/zap"
)

var (
	ErrDuplicateJob = errors.New("job id already used")
	ErrUnknownJob   = errors.New("job id not available")
	ErrStillRunning = errors.New("cannot clear while jobs are running")
)

const DefaultPumpTime = 100 * time.Millisecond

// Job is anything that reports its lifecycle through a handler,
// usually an *executor.Executor.
type Job interface {
	Handler() *handler.Handler
}

type jobState struct {
	status    Status
	output    *Output
	terminate atomic.Bool
}

// Group tracks a set of jobs identified by caller-chosen ids. It merges
// their output into one queue, which consumers drain with PumpOutput, and
// records which jobs changed status or output since the last poll.
type Group struct {
	queue *lineQueue

	mu            sync.Mutex
	jobs          map[int]*jobState
	changedStatus map[int]struct{}
	changedOutput map[int]struct{}

	log *zap.Logger
}

func New(log *zap.Logger) *Group {
	if log == nil {
		log = zap.NewNop()
	}

	return &Group{
		queue:         newLineQueue(),
		jobs:          make(map[int]*jobState),
		changedStatus: make(map[int]struct{}),
		changedOutput: make(map[int]struct{}),
		log:           log.Named("group"),
	}
}

// AddJob registers job under id and hooks the group's callbacks into the
// job's handler. The job starts out as StatusNotStarted.
func (g *Group) AddJob(id int, job Job) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.jobs[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateJob, id)
	}

	state := &jobState{
		status: StatusNotStarted,
		output: NewOutput(),
	}
	g.jobs[id] = state

	h := job.Handler()
	h.AddPreStart(func([]string) {
		g.setStatus(id, state, StatusStarting)
	})
	h.AddPostStart(func([]string, int) {
		g.setStatus(id, state, StatusRunning)
	})
	h.AddStdOut(func(line string) {
		g.queue.Put(jobLine{job: id, state: state, line: line})
	})
	h.AddEnded(func(code int, _ string) {
		if code == 0 {
			g.setStatus(id, state, StatusEnded)
		} else {
			g.setStatus(id, state, StatusTerminated)
		}
	})
	h.AddPollTerminate(state.terminate.Load)

	return nil
}

// TerminateJob requests termination of the job with the given id.
func (g *Group) TerminateJob(id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownJob, id)
	}

	state.terminate.Store(true)

	return nil
}

// TerminateAll requests termination of every job.
func (g *Group) TerminateAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, state := range g.jobs {
		state.terminate.Store(true)
	}
}

// TerminationRequested reports whether termination of the job was requested.
func (g *Group) TerminationRequested(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.jobs[id]
	return ok && state.terminate.Load()
}

// PumpOutput moves queued output lines into the output buffers of their
// jobs until the queue is empty or maxTime has elapsed. A maxTime <= 0
// drains the queue completely. If initialWait > 0, PumpOutput blocks up
// to initialWait for the first line. It returns the number of lines moved.
func (g *Group) PumpOutput(maxTime, initialWait time.Duration) int {
	start := time.Now()
	first := true
	count := 0

	for {
		var item jobLine
		var ok bool

		if initialWait > 0 && first {
			item, ok = g.queue.Get(initialWait)
			first = false
		} else {
			item, ok = g.queue.TryGet()
		}

		if !ok {
			break
		}

		g.mu.Lock()
		if state, ok := g.jobs[item.job]; ok && state == item.state {
			state.output.Add(item.line)
			g.changedOutput[item.job] = struct{}{}
			count++
		}
		g.mu.Unlock()

		if maxTime > 0 && time.Since(start) >= maxTime {
			break
		}
	}

	return count
}

// Status returns the status of the job with the given id.
func (g *Group) Status(id int) (Status, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.jobs[id]
	if !ok {
		return 0, false
	}

	return state.status, true
}

// Output returns the output buffer of the job, or nil for unknown jobs.
func (g *Group) Output(id int) *Output {
	g.mu.Lock()
	defer g.mu.Unlock()

	if state, ok := g.jobs[id]; ok {
		return state.output
	}

	return nil
}

// Jobs returns the sorted ids of all tracked jobs.
func (g *Group) Jobs() []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int, 0, len(g.jobs))
	for id := range g.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

// ChangedStatusJobs returns the sorted ids of jobs whose status changed
// since the set was last cleared.
func (g *Group) ChangedStatusJobs(clear bool) []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return takeIDs(g.changedStatus, clear)
}

// ChangedOutputJobs returns the sorted ids of jobs that received output
// since the set was last cleared.
func (g *Group) ChangedOutputJobs(clear bool) []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return takeIDs(g.changedOutput, clear)
}

// AllEnded reports whether every tracked job is ENDED or TERMINATED.
func (g *Group) AllEnded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.allEndedLocked()
}

// Clear forgets all jobs. Unless force is set, it fails while any job
// has not ended. Callbacks of cleared jobs are ignored afterwards.
func (g *Group) Clear(force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && !g.allEndedLocked() {
		return ErrStillRunning
	}

	g.jobs = make(map[int]*jobState)
	g.changedStatus = make(map[int]struct{})
	g.changedOutput = make(map[int]struct{})

	return nil
}

func (g *Group) allEndedLocked() bool {
	for _, state := range g.jobs {
		if !state.status.Done() {
			return false
		}
	}

	return true
}

func (g *Group) setStatus(id int, state *jobState, status Status) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// ignore callbacks of jobs removed by Clear
	if current, ok := g.jobs[id]; !ok || current != state {
		return
	}

	// a job never returns to an earlier status
	if state.status.Done() || status <= state.status {
		return
	}

	g.log.Debug("job status changed",
		zap.Int("job", id),
		zap.Stringer("from", state.status),
		zap.Stringer("to", status),
	)

	state.status = status
	g.changedStatus[id] = struct{}{}
}

func takeIDs(set map[int]struct{}, clear bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if clear {
		for id := range set {
			delete(set, id)
		}
	}

	return ids
}
