/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package batchproc

import (
	"sort"
	"time"

	"github.com/kreasipositif/batchproc/model"
)

// StepStatusView is the per-partition slice of the status projection.
type StepStatusView struct {
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Read      int64      `json:"read"`
	Write     int64      `json:"write"`
	Skip      int64      `json:"skip"`
	Filter    int64      `json:"filter"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// AggregateStatusView sums the step counters of one job.
type AggregateStatusView struct {
	TotalPartitions int   `json:"total_partitions"`
	Completed       int   `json:"completed"`
	Running         int   `json:"running"`
	Failed          int   `json:"failed"`
	TotalRead       int64 `json:"total_read"`
	TotalWritten    int64 `json:"total_written"`
	TotalSkipped    int64 `json:"total_skipped"`
	TotalFiltered   int64 `json:"total_filtered"`
}

// JobStatusView is the pollable projection of a job execution.
type JobStatusView struct {
	JobID      string              `json:"job_id"`
	JobName    string              `json:"job_name"`
	Status     string              `json:"status"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    *time.Time          `json:"end_time,omitempty"`
	Elapsed    string              `json:"elapsed"`
	Aggregate  AggregateStatusView `json:"aggregate"`
	Partitions []StepStatusView    `json:"partitions"`
}

// ProjectStatus renders the job's current state for external polling.
// Partitions are sorted by name; running counts steps still in the started
// state.
func ProjectStatus(job *model.JobExecution) *JobStatusView {
	view := &JobStatusView{
		JobID:      job.ID,
		JobName:    job.JobName,
		Status:     job.Status,
		StartTime:  job.StartTime,
		Partitions: make([]StepStatusView, 0, len(job.StepExecutions)),
	}

	elapsedUntil := time.Now()
	if !job.EndTime.IsZero() {
		end := job.EndTime
		view.EndTime = &end
		elapsedUntil = end
	}
	view.Elapsed = elapsedUntil.Sub(job.StartTime).String()

	for _, step := range job.StepExecutions {
		stepView := StepStatusView{
			Name:   step.Name,
			Status: step.Status,
			Read:   step.ReadCount,
			Write:  step.WriteCount,
			Skip:   step.SkipCount,
			Filter: step.FilterCount,
		}
		if !step.StartTime.IsZero() {
			start := step.StartTime
			stepView.StartTime = &start
		}
		if !step.EndTime.IsZero() {
			end := step.EndTime
			stepView.EndTime = &end
		}
		view.Partitions = append(view.Partitions, stepView)

		view.Aggregate.TotalPartitions++
		view.Aggregate.TotalRead += step.ReadCount
		view.Aggregate.TotalWritten += step.WriteCount
		view.Aggregate.TotalSkipped += step.SkipCount
		view.Aggregate.TotalFiltered += step.FilterCount

		switch step.Status {
		case model.StatusCompleted:
			view.Aggregate.Completed++
		case model.StatusFailed:
			view.Aggregate.Failed++
		case model.StatusStarted:
			view.Aggregate.Running++
		}
	}

	sort.Slice(view.Partitions, func(i, j int) bool {
		return view.Partitions[i].Name < view.Partitions[j].Name
	})

	return view
}
