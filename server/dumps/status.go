package dumps

import "time"

// Lifecycle state of a dump.
type DumpStatus string

const (
	DumpStatusInProgress DumpStatus = "in_progress"
	DumpStatusDone       DumpStatus = "done"
	DumpStatusFailed     DumpStatus = "failed"
)

// Status record of a single dump. It is reported to the callers as a copy;
// only the status registry mutates the stored instance.
type DumpInfo struct {
	UID        string     `json:"uid"`
	Status     DumpStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Creates a new in-progress record.
func newDumpInfo(uid string, startedAt time.Time) *DumpInfo {
	return &DumpInfo{
		UID:       uid,
		Status:    DumpStatusInProgress,
		StartedAt: startedAt,
	}
}

// Checks if the dump reached one of the terminal states.
func (i *DumpInfo) IsFinished() bool {
	return i.Status == DumpStatusDone || i.Status == DumpStatusFailed
}

// Transitions the record to the done state.
func (i *DumpInfo) done(finishedAt time.Time) {
	i.Status = DumpStatusDone
	i.FinishedAt = &finishedAt
}

// Transitions the record to the failed state.
func (i *DumpInfo) withError(message string, finishedAt time.Time) {
	i.Status = DumpStatusFailed
	i.Error = message
	i.FinishedAt = &finishedAt
}

// Returns an independent copy of the record.
func (i *DumpInfo) copy() *DumpInfo {
	c := *i
	if i.FinishedAt != nil {
		finishedAt := *i.FinishedAt
		c.FinishedAt = &finishedAt
	}
	return &c
}
