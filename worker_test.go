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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasipositif/batchproc/database"
	"github.com/kreasipositif/batchproc/model"
)

func newWorkerTestStore(t *testing.T) (*database.MemoryStore, *model.JobExecution) {
	t.Helper()
	store := database.NewMemoryStore()
	job := model.NewJobExecution(JobName, "unused")
	require.NoError(t, store.CreateJob(context.Background(), job))
	return store, job
}

func TestWorkerProcessesItsPartition(t *testing.T) {
	inputFile := writeInputFile(t,
		"TRX-0001,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,a",
		"TRX-0002,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,b",
		"TRX-0003,1234567890,Budi,XENDIT,0987654321,Siti,BNI,IDR,500000,TRANSFER,c",
		"TRX-0004,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,d",
		"TRX-0005,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,e",
	)
	outputFile := filepath.Join(t.TempDir(), "out", "validation-results.csv")

	store, job := newWorkerTestStore(t)
	validator := newTestValidator(t, seededConfigChecker(), seededAccountChecker())

	worker := NewWorker(job.ID, model.Partition{Index: 0, StartLine: 2, EndLine: 6},
		inputFile, outputFile, 2, validator, store)
	require.NoError(t, worker.Run(context.Background()))

	step := worker.Step()
	assert.Equal(t, model.StatusCompleted, step.Status)
	assert.Equal(t, int64(5), step.ReadCount)
	assert.Equal(t, int64(5), step.WriteCount)
	assert.Zero(t, step.SkipCount)

	stored, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, stored.StepExecutions, 1)
	assert.Equal(t, model.StatusCompleted, stored.StepExecutions[0].Status)
	assert.Equal(t, int64(5), stored.StepExecutions[0].ReadCount)

	validRows := collectOutputRows(t, filepath.Dir(outputFile), "valid-p")
	invalidRows := collectOutputRows(t, filepath.Dir(outputFile), "invalid-p")
	assert.Len(t, validRows, 4)
	assert.Len(t, invalidRows, 1)
}

func TestWorkerCountsSkippedLines(t *testing.T) {
	inputFile := writeInputFile(t,
		"TRX-0001,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,a",
		"short,row",
		"TRX-0003,1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,c",
	)
	outputFile := filepath.Join(t.TempDir(), "out", "validation-results.csv")

	store, job := newWorkerTestStore(t)
	validator := newTestValidator(t, seededConfigChecker(), seededAccountChecker())

	worker := NewWorker(job.ID, model.Partition{Index: 0, StartLine: 2, EndLine: 4},
		inputFile, outputFile, 10, validator, store)
	require.NoError(t, worker.Run(context.Background()))

	step := worker.Step()
	assert.Equal(t, int64(2), step.ReadCount)
	assert.Equal(t, int64(2), step.WriteCount)
	assert.Equal(t, int64(1), step.SkipCount)
}

func TestWorkerFailsWhenInputMissing(t *testing.T) {
	store, job := newWorkerTestStore(t)
	validator := newTestValidator(t, seededConfigChecker(), seededAccountChecker())

	worker := NewWorker(job.ID, model.Partition{Index: 0, StartLine: 2, EndLine: 4},
		filepath.Join(t.TempDir(), "missing.csv"),
		filepath.Join(t.TempDir(), "out", "validation-results.csv"), 10, validator, store)

	assert.Error(t, worker.Run(context.Background()))
	assert.Equal(t, model.StatusFailed, worker.Step().Status)

	stored, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, stored.StepExecutions, 1)
	assert.Equal(t, model.StatusFailed, stored.StepExecutions[0].Status)
}

func TestWorkerHonoursInterruptionBetweenChunks(t *testing.T) {
	rows := make([]string, 6)
	for i := range rows {
		rows[i] = "TRX-000" + string(rune('1'+i)) + ",1234567890,Budi,BCA,0987654321,Siti,BNI,IDR,500000,TRANSFER,x"
	}
	inputFile := writeInputFile(t, rows...)
	outputDir := t.TempDir()
	outputFile := filepath.Join(outputDir, "validation-results.csv")

	store, job := newWorkerTestStore(t)
	validator := newTestValidator(t, seededConfigChecker(), seededAccountChecker())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(job.ID, model.Partition{Index: 0, StartLine: 2, EndLine: 7},
		inputFile, outputFile, 2, validator, store)
	err := worker.Run(ctx)
	assert.Error(t, err)

	step := worker.Step()
	assert.Equal(t, model.StatusFailed, step.Status)
	// the chunk in flight when the interruption was observed is still written
	assert.Equal(t, int64(2), step.WriteCount)

	written := len(collectOutputRows(t, outputDir, "valid-p")) + len(collectOutputRows(t, outputDir, "invalid-p"))
	assert.Equal(t, 2, written, "partial output files remain")
}
