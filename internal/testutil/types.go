package testutil

import "time"

// ExecutionRecord holds the start and end times of a single task execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}
