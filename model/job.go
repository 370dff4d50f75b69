package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job and step lifecycle statuses. A job moves Starting -> Started and ends
// Completed or Failed; a step is created Starting, moves to Started when its
// worker runs, and ends Completed or Failed.
const (
	StatusStarting  = "starting"
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// StepExecution is the bookkeeping row for one partition worker. Counters
// are monotonically non-decreasing for the lifetime of the step.
type StepExecution struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ReadCount   int64     `json:"read_count"`
	WriteCount  int64     `json:"write_count"`
	SkipCount   int64     `json:"skip_count"`
	FilterCount int64     `json:"filter_count"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time,omitempty"`
}

// IsTerminal reports whether the step has finished, successfully or not.
func (s *StepExecution) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// JobExecution is the reporting envelope for one run of the validation job.
type JobExecution struct {
	ID             string           `json:"id"`
	JobName        string           `json:"job_name"`
	Status         string           `json:"status"`
	InputFile      string           `json:"input_file"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        time.Time        `json:"end_time,omitempty"`
	StepExecutions []*StepExecution `json:"step_executions"`
}

// NewJobExecution creates a job envelope in the starting state.
func NewJobExecution(jobName, inputFile string) *JobExecution {
	return &JobExecution{
		ID:        GenerateUUIDWithSuffix("job"),
		JobName:   jobName,
		Status:    StatusStarting,
		InputFile: inputFile,
		StartTime: time.Now(),
	}
}

// Step returns the step execution with the given name, or nil.
func (j *JobExecution) Step(name string) *StepExecution {
	for _, s := range j.StepExecutions {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy of the job execution. Stores hand out clones so
// callers never share counter state with a running worker.
func (j *JobExecution) Clone() *JobExecution {
	c := *j
	c.StepExecutions = make([]*StepExecution, len(j.StepExecutions))
	for i, s := range j.StepExecutions {
		sc := *s
		c.StepExecutions[i] = &sc
	}
	return &c
}
