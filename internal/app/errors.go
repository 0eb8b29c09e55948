package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrRunNotFound         = errors.New("simulation run not found")
	ErrDuplicateSubmission = errors.New("duplicate simulation submission")
	ErrQueueFull           = errors.New("simulation queue full")
)
