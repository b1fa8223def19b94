package group

import "fmt"

// Status is the bookkeeping status of a job in a group.
type Status int

const (
	StatusNotStarted Status = iota
	StatusStarting
	StatusRunning
	StatusEnded
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusStarting:
		return "STARTING"
	case StatusRunning:
		return "RUNNING"
	case StatusEnded:
		return "ENDED"
	case StatusTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Done reports whether s is a terminal status.
func (s Status) Done() bool {
	return s == StatusEnded || s == StatusTerminated
}
