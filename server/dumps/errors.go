package dumps

import (
	"fmt"
)

// Message stored in the registry when the dump task terminates abnormally.
const crashedDumpMessage = "Unexpected error while performing dump."

// Returned when a dump is requested while another one is running.
type DumpAlreadyRunningError struct{}

// Returns the error message.
func (e *DumpAlreadyRunningError) Error() string {
	return "another dump is already in progress"
}

// Returned when the status of an unknown dump is requested.
type DumpNotFoundError struct {
	UID string
}

// Returns the error message.
func (e *DumpNotFoundError) Error() string {
	return fmt.Sprintf("dump %s not found", e.UID)
}

// Outcome of a dump task that returned an error.
type DumpTaskFailedError struct {
	Description string
	err         error
}

// Creates the error wrapping the task failure.
func newDumpTaskFailedError(err error) *DumpTaskFailedError {
	return &DumpTaskFailedError{Description: err.Error(), err: err}
}

// Returns the error message.
func (e *DumpTaskFailedError) Error() string {
	return e.Description
}

// Returns the error returned by the task.
func (e *DumpTaskFailedError) Unwrap() error {
	return e.err
}

// Outcome of a dump task that panicked or exited its goroutine without
// returning.
type DumpTaskCrashedError struct {
	// Recovered panic value. Nil when the task called runtime.Goexit.
	Recovered any
}

// Returns the error message.
func (e *DumpTaskCrashedError) Error() string {
	return crashedDumpMessage
}

// Returned by the handle when the actor no longer accepts requests.
type ActorStoppedError struct{}

// Returns the error message.
func (e *ActorStoppedError) Error() string {
	return "dump actor is stopped"
}
