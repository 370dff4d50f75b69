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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/model"
)

// JobName identifies the single job shape this processor supports.
const JobName = "transactionValidationJob"

// StartJob creates a job execution for the given input file (empty means
// the configured default), persists it in the starting state and launches
// it on its own goroutine. Callers poll GetJobStatus to track progress.
func (b *Batchproc) StartJob(ctx context.Context, inputFile string) (*model.JobExecution, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if inputFile == "" {
		inputFile = cnf.Batch.InputFile
	}

	job := model.NewJobExecution(JobName, inputFile)
	if err := b.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("error persisting job execution: %w", err)
	}
	logrus.Infof("starting %s with inputFile=%q", JobName, inputFile)

	// snapshot before launch: ExecuteJob mutates job on its own goroutine
	initial := job.Clone()
	go func() {
		if err := b.ExecuteJob(context.Background(), job); err != nil {
			logrus.Errorf("job %s failed: %v", job.ID, err)
		}
	}()

	return initial, nil
}

// CreateAndExecuteJob persists a job execution and runs it to completion on
// the calling goroutine. The CLI one-shot runner uses this; the HTTP trigger
// goes through StartJob instead.
func (b *Batchproc) CreateAndExecuteJob(ctx context.Context, job *model.JobExecution) error {
	if err := b.store.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("error persisting job execution: %w", err)
	}
	return b.ExecuteJob(ctx, job)
}

// ExecuteJob runs a persisted job execution to completion: it counts the
// input's data lines, plans the partitions, fans one worker per partition
// out on its own goroutine, waits for all of them and aggregates the
// terminal status. The job completes only when every step completed; a
// failed step fails the job but never aborts its siblings.
func (b *Batchproc) ExecuteJob(ctx context.Context, job *model.JobExecution) error {
	ctx, span := tracer.Start(ctx, "Executing Validation Job")
	defer span.End()

	cnf, err := config.Fetch()
	if err != nil {
		return err
	}

	job.Status = model.StatusStarted
	if err := b.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("error updating job execution: %w", err)
	}

	totalLines, err := CountDataLines(job.InputFile)
	if err != nil {
		return b.finishJob(ctx, job, model.StatusFailed, err)
	}
	logrus.Infof("input file %q has %d data lines — using gridSize=%d",
		job.InputFile, totalLines, cnf.Batch.GridSize)

	partitions := PlanPartitions(totalLines, cnf.Batch.GridSize)

	workers := make([]*Worker, len(partitions))
	for i, partition := range partitions {
		workers[i] = NewWorker(job.ID, partition, job.InputFile, cnf.Batch.OutputFile,
			cnf.Batch.ChunkSize, b.validator, b.store)
		job.StepExecutions = append(job.StepExecutions, workers[i].Step())
	}

	errs := make([]error, len(workers))
	var wg sync.WaitGroup
	for i, worker := range workers {
		wg.Add(1)
		go func(i int, worker *Worker) {
			defer wg.Done()
			errs[i] = worker.Run(ctx)
		}(i, worker)
	}
	wg.Wait()

	status := model.StatusCompleted
	for _, err := range errs {
		if err != nil {
			status = model.StatusFailed
			break
		}
	}
	return b.finishJob(ctx, job, status, nil)
}

func (b *Batchproc) finishJob(ctx context.Context, job *model.JobExecution, status string, cause error) error {
	if cause != nil {
		logrus.Errorf("job %s failed: %v", job.ID, cause)
	}
	job.Status = status
	job.EndTime = time.Now()
	if err := b.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		logrus.Errorf("could not persist terminal state of job %s: %v", job.ID, err)
		if cause == nil {
			cause = err
		}
	}
	logrus.Infof("job %s finished with status %s", job.ID, job.Status)
	return cause
}

// GetJobStatus renders the status projection for one job execution.
func (b *Batchproc) GetJobStatus(ctx context.Context, jobID string) (*JobStatusView, error) {
	job, err := b.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return ProjectStatus(job), nil
}
