package handler

import "sync"

type (
	// PreStartFunc is called with the command before the process is spawned.
	PreStartFunc func(cmd []string)

	// PostStartFunc is called with the command and pid once the process runs.
	PostStartFunc func(cmd []string, pid int)

	// StdOutFunc is called for every line the process writes to stdout or stderr.
	StdOutFunc func(line string)

	// EndedFunc is called with the exit code and error summary of the process.
	EndedFunc func(code int, msg string)

	// PollTerminateFunc reports whether the process should be terminated.
	PollTerminateFunc func() bool
)

// Handler is a set of callback lists an executor reports its lifecycle
// to. All callbacks registered for an event are invoked in registration
// order. A Handler is safe for concurrent use.
type Handler struct {
	mu sync.RWMutex

	preStart      []PreStartFunc
	postStart     []PostStartFunc
	stdOut        []StdOutFunc
	ended         []EndedFunc
	pollTerminate []PollTerminateFunc
}

// Funcs is a convenience to construct a Handler with one callback per event.
type Funcs struct {
	PreStart      PreStartFunc
	PostStart     PostStartFunc
	StdOut        StdOutFunc
	Ended         EndedFunc
	PollTerminate PollTerminateFunc
}

// New creates a Handler and registers the non-nil callbacks in funcs.
func New(funcs Funcs) *Handler {
	h := &Handler{}

	h.AddPreStart(funcs.PreStart)
	h.AddPostStart(funcs.PostStart)
	h.AddStdOut(funcs.StdOut)
	h.AddEnded(funcs.Ended)
	h.AddPollTerminate(funcs.PollTerminate)

	return h
}

func (h *Handler) AddPreStart(fn PreStartFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.preStart = append(h.preStart, fn)
}

func (h *Handler) AddPostStart(fn PostStartFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.postStart = append(h.postStart, fn)
}

func (h *Handler) AddStdOut(fn StdOutFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stdOut = append(h.stdOut, fn)
}

func (h *Handler) AddEnded(fn EndedFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.ended = append(h.ended, fn)
}

func (h *Handler) AddPollTerminate(fn PollTerminateFunc) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pollTerminate = append(h.pollTerminate, fn)
}

// HasPreStart reports whether a pre-start callback is registered.
func (h *Handler) HasPreStart() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.preStart) > 0
}

func (h *Handler) HasPostStart() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.postStart) > 0
}

func (h *Handler) HasStdOut() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.stdOut) > 0
}

func (h *Handler) HasEnded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.ended) > 0
}

func (h *Handler) HasPollTerminate() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.pollTerminate) > 0
}

// PreStart invokes all pre-start callbacks.
func (h *Handler) PreStart(cmd []string) {
	h.mu.RLock()
	fns := h.preStart
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(cmd)
	}
}

// PostStart invokes all post-start callbacks.
func (h *Handler) PostStart(cmd []string, pid int) {
	h.mu.RLock()
	fns := h.postStart
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(cmd, pid)
	}
}

// StdOut invokes all stdout callbacks with line.
func (h *Handler) StdOut(line string) {
	h.mu.RLock()
	fns := h.stdOut
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(line)
	}
}

// Ended invokes all ended callbacks.
func (h *Handler) Ended(code int, msg string) {
	h.mu.RLock()
	fns := h.ended
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(code, msg)
	}
}

// PollTerminate returns true as soon as one registered callback requests
// termination. Remaining callbacks are not consulted.
func (h *Handler) PollTerminate() bool {
	h.mu.RLock()
	fns := h.pollTerminate
	h.mu.RUnlock()

	for _, fn := range fns {
		if fn() {
			return true
		}
	}

	return false
}
