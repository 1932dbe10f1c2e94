package pipe

import "errors"

// Sentinel errors for pipeline construction and usage
var (
	// ErrNoStages indicates Build was called on a chain without stages
	ErrNoStages = errors.New("pipeline has no stages")

	// ErrNilProcessor indicates a stage without a transform
	ErrNilProcessor = errors.New("stage processor cannot be nil")

	// ErrInvalidCapacity indicates a non-positive link capacity
	ErrInvalidCapacity = errors.New("link capacity must be positive")

	// ErrDuplicateStage indicates two stages share a name
	ErrDuplicateStage = errors.New("duplicate stage name")

	// ErrUnknownStage indicates a capacity override naming no stage of the chain
	ErrUnknownStage = errors.New("unknown stage")

	// ErrNotRunning indicates submit or receive outside the running state
	ErrNotRunning = errors.New("pipeline not running")

	// ErrAlreadyShutdown indicates Shutdown was called more than once
	ErrAlreadyShutdown = errors.New("pipeline already shut down")

	// ErrNilError indicates SubmitError was given a nil error
	ErrNilError = errors.New("cannot submit a nil error")
)
