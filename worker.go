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
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/database"
	"github.com/kreasipositif/batchproc/model"
)

// Worker processes one partition: it repeatedly reads up to chunkSize
// records from its range, validates each, and writes the chunk to its own
// pair of output files. The worker owns its reader, validator reference and
// writer; nothing is shared with sibling workers except the process-wide
// bulkheads and the job store.
type Worker struct {
	jobID      string
	partition  model.Partition
	inputFile  string
	outputFile string
	chunkSize  int
	validator  *RecordValidator
	store      database.JobStore

	step *model.StepExecution
}

// NewWorker builds a worker for one partition of a job. The step execution
// row is created in the starting state and first persisted when Run begins.
func NewWorker(jobID string, partition model.Partition, inputFile, outputFile string,
	chunkSize int, validator *RecordValidator, store database.JobStore) *Worker {
	return &Worker{
		jobID:      jobID,
		partition:  partition,
		inputFile:  inputFile,
		outputFile: outputFile,
		chunkSize:  chunkSize,
		validator:  validator,
		store:      store,
		step: &model.StepExecution{
			Name:   partition.Name(),
			Status: model.StatusStarting,
		},
	}
}

// Step exposes the worker's bookkeeping row.
func (w *Worker) Step() *model.StepExecution {
	return w.step
}

// Run executes the read-validate-write loop until the assigned range is
// exhausted. Counters are persisted after every chunk. An interruption is
// honoured between chunks: the current chunk is completed and written, then
// the step fails. Reader or writer I/O failures fail the step; sibling
// partitions are unaffected.
func (w *Worker) Run(ctx context.Context) error {
	w.step.Status = model.StatusStarted
	w.step.StartTime = time.Now()
	if err := w.store.UpsertStep(ctx, w.jobID, w.step); err != nil {
		return w.fail(ctx, err)
	}

	reader, err := NewRangeReader(w.inputFile, w.partition)
	if err != nil {
		return w.fail(ctx, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	writer := NewDualWriter(w.outputFile, w.partition.Index)
	if err := writer.Open(); err != nil {
		return w.fail(ctx, err)
	}
	defer func() {
		_ = writer.Close()
	}()

	for {
		chunk, err := w.readChunk(reader)
		if err != nil {
			return w.fail(ctx, err)
		}
		if len(chunk) == 0 {
			break
		}

		for _, record := range chunk {
			w.validator.Validate(ctx, record)
		}
		if err := writer.Write(chunk); err != nil {
			return w.fail(ctx, err)
		}

		w.step.ReadCount += int64(len(chunk))
		w.step.WriteCount += int64(len(chunk))
		w.step.SkipCount = reader.Skipped()
		if err := w.store.UpsertStep(ctx, w.jobID, w.step); err != nil {
			return w.fail(ctx, err)
		}

		select {
		case <-ctx.Done():
			return w.fail(ctx, ctx.Err())
		default:
		}
	}

	w.step.Status = model.StatusCompleted
	w.step.EndTime = time.Now()
	if err := w.store.UpsertStep(ctx, w.jobID, w.step); err != nil {
		return err
	}

	logrus.Infof("step %s completed — read=%d written=%d skipped=%d",
		w.step.Name, w.step.ReadCount, w.step.WriteCount, w.step.SkipCount)
	return nil
}

func (w *Worker) readChunk(reader *RangeReader) ([]*model.TransactionRecord, error) {
	chunk := make([]*model.TransactionRecord, 0, w.chunkSize)
	for len(chunk) < w.chunkSize {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, record)
	}
	return chunk, nil
}

func (w *Worker) fail(ctx context.Context, cause error) error {
	logrus.Errorf("step %s failed: %v", w.step.Name, cause)
	w.step.Status = model.StatusFailed
	w.step.EndTime = time.Now()
	// persist the terminal state even when the run context is already gone
	if err := w.store.UpsertStep(context.WithoutCancel(ctx), w.jobID, w.step); err != nil {
		logrus.Errorf("could not persist failed step %s: %v", w.step.Name, err)
	}
	return cause
}
