package driver

import "time"

// Default run parameters.
const (
	DefaultEdits    = 1000
	DefaultWorkers  = 8
	DefaultMaxValue = 40
	DefaultTimeout  = 10 * time.Second
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// scoreTolerance absorbs float formatting differences between the service
// and the local recomputation.
const scoreTolerance = 1e-9
