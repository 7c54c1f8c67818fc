package scheduler

import "errors"

var (
	// ErrAlreadyRunning is returned when starting a loop that is running
	ErrAlreadyRunning = errors.New("poll loop is already running")

	// ErrNotRunning is returned when stopping a loop that is not running
	ErrNotRunning = errors.New("poll loop is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid poll loop configuration")
)
