// Package errs holds sentinel errors shared across packages.
package errs

import "errors"

var (
	ErrProbeTimeout   = errors.New("health probe timed out")
	ErrProbePanic     = errors.New("health probe panicked")
	ErrQueueFull      = errors.New("persistence queue full")
	ErrCircuitOpen    = errors.New("notifier circuit open")
	ErrAlreadyStarted = errors.New("monitor already started")
)
