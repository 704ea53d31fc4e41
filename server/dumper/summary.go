package dumper

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Summary of the dump process execution.
type executionSummary struct {
	Timestamp time.Time
	Steps     []*executionSummaryStep
}

// Single step execution entry. It contains the step name and related
// error object (or nil if no error occurs).
type executionSummaryStep struct {
	Name     string
	Error    error
	Duration time.Duration
}

func newExecutionSummary(timestamp time.Time) *executionSummary {
	return &executionSummary{
		Timestamp: timestamp,
	}
}

// Specifies that the step has no error.
func (s *executionSummaryStep) IsSuccess() bool {
	return s.Error == nil
}

// Returns the first failed step or nil if all succeeded.
func (s *executionSummary) GetFailedStep() *executionSummaryStep {
	for _, step := range s.Steps {
		if !step.IsSuccess() {
			return step
		}
	}
	return nil
}

// Returns the error of the first failed step wrapped with the step name.
func (s *executionSummary) Err() error {
	failed := s.GetFailedStep()
	if failed == nil {
		return nil
	}
	return errors.WithMessagef(failed.Error, "dump step %s failed", failed.Name)
}

// Writes the summary to the log.
func (s *executionSummary) Log(uid string) {
	for _, step := range s.Steps {
		entry := log.WithFields(log.Fields{
			"uid":      uid,
			"step":     step.Name,
			"duration": step.Duration.String(),
		})
		if step.IsSuccess() {
			entry.Debug("Dump step succeeded")
		} else {
			entry.WithError(step.Error).Error("Dump step failed")
		}
	}
}
