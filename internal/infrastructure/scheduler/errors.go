package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when registering a task after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidTask is returned for a task without a name, function or interval
	ErrInvalidTask = errors.New("invalid scheduled task")

	// ErrDuplicateTask is returned when two tasks share a name
	ErrDuplicateTask = errors.New("scheduled task already registered")
)
