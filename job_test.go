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
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/database"
	"github.com/kreasipositif/batchproc/mockservice"
	"github.com/kreasipositif/batchproc/model"
)

// mixedFixtureRows is the 13-row fixture: 5 rows pass every check, 8 fail
// at least one.
var mixedFixtureRows = []string{
	"TRX-T001,1234567890,Budi Santoso,BCA,0987654321,Siti Rahayu,BNI,IDR,500000,TRANSFER,ok",
	"TRX-T002,1122334455,Ahmad Wijaya,BRI,5544332211,Dewi Lestari,MANDIRI,IDR,20000,TRANSFER,ok",
	"TRX-T003,7788990011,Rina Kusuma,DANAMON,2233445566,Joko Susilo,BTN,IDR,150000,PAYMENT,ok",
	"TRX-T004,9900112233,Fitri Handayani,BSI,1234567890,Budi Santoso,BCA,IDR,60000,WITHDRAWAL,ok",
	"TRX-T005,0987654321,Siti Rahayu,BNI,1122334455,Ahmad Wijaya,BRI,IDR,10000,TRANSFER,boundary",
	"TRX-T006,1234567890,Budi Santoso,BCA,6677889900,Rudi,CIMB,IDR,200000,TRANSFER,inactive beneficiary",
	"TRX-T007,3344556677,Maya Putri,PERMATA,0987654321,Siti Rahayu,BNI,IDR,100000,TRANSFER,blocked source",
	"TRX-T008,4444555566,Andi Saputra,BNI,1234567890,Budi Santoso,BCA,IDR,100000,TRANSFER,inactive source",
	"TRX-T009,1234567890,Budi Santoso,XENDIT,0987654321,Siti,BNI,IDR,500000,TRANSFER,unknown source bank",
	"TRX-T010,1234567890,Budi Santoso,BCA,0987654321,Siti,GHOST,IDR,500000,TRANSFER,unknown beneficiary bank",
	"TRX-T011,1234567890,Budi Santoso,BCA,0987654321,Siti,BNI,IDR,5000,TRANSFER,below minimum",
	"TRX-T012,9999999999,Ghost,BRI,1122334455,Ahmad,BRI,IDR,100000,PAYMENT,unknown source account",
	"TRX-T013,1234567890,Budi Santoso,BCA,0987654321,Siti,BNI,IDR,abc,TRANSFER",
}

type jobTestEnv struct {
	processor *Batchproc
	store     *database.MemoryStore
	outputDir string
	inputFile string
}

func newJobTestEnv(t *testing.T, chunkSize, gridSize int, rows []string) *jobTestEnv {
	t.Helper()

	configServer := httptest.NewServer(mockservice.NewConfigService(nil, nil).Router())
	t.Cleanup(configServer.Close)
	accountServer := httptest.NewServer(mockservice.NewAccountService(nil, 0).Router())
	t.Cleanup(accountServer.Close)

	dir := t.TempDir()
	inputFile := filepath.Join(dir, "transactions.csv")
	content := testHeader + "\n"
	if len(rows) > 0 {
		content += strings.Join(rows, "\n") + "\n"
	}
	require.NoError(t, os.WriteFile(inputFile, []byte(content), 0o644))

	outputDir := filepath.Join(dir, "output")
	config.MockConfig(&config.Configuration{
		Batch: config.BatchConfig{
			InputFile:  inputFile,
			OutputFile: filepath.Join(outputDir, "validation-results.csv"),
			ChunkSize:  chunkSize,
			GridSize:   gridSize,
		},
		Downstream: config.DownstreamConfig{
			ConfigService:            config.ServiceEndpoint{BaseURL: configServer.URL},
			AccountValidationService: config.ServiceEndpoint{BaseURL: accountServer.URL},
		},
	})

	store := database.NewMemoryStore()
	processor, err := NewBatchproc(store)
	require.NoError(t, err)
	t.Cleanup(processor.Close)

	return &jobTestEnv{processor: processor, store: store, outputDir: outputDir, inputFile: inputFile}
}

// collectOutputRows gathers the data rows (headers excluded) of all valid
// or all invalid partition files in the output directory.
func collectOutputRows(t *testing.T, dir, prefix string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var rows []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
		rows = append(rows, lines[1:]...) // drop the header
	}
	return rows
}

func countFiles(t *testing.T, dir, prefix string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	n := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			n++
		}
	}
	return n
}

func TestExecuteJobMixedFixture(t *testing.T) {
	env := newJobTestEnv(t, 3, 2, mixedFixtureRows)

	job := model.NewJobExecution(JobName, env.inputFile)
	require.NoError(t, env.processor.CreateAndExecuteJob(context.Background(), job))

	stored, err := env.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.Len(t, stored.StepExecutions, 2)

	var totalRead, totalWritten int64
	for _, step := range stored.StepExecutions {
		assert.Equal(t, model.StatusCompleted, step.Status)
		totalRead += step.ReadCount
		totalWritten += step.WriteCount
	}
	assert.Equal(t, int64(13), totalRead)
	assert.Equal(t, int64(13), totalWritten)

	assert.Equal(t, 2, countFiles(t, env.outputDir, "valid-p"))
	assert.Equal(t, 2, countFiles(t, env.outputDir, "invalid-p"))

	validRows := collectOutputRows(t, env.outputDir, "valid-p")
	invalidRows := collectOutputRows(t, env.outputDir, "invalid-p")
	assert.Len(t, validRows, 5)
	assert.Len(t, invalidRows, 8)

	for _, row := range invalidRows {
		switch {
		case strings.HasPrefix(row, "TRX-T006,"):
			assert.Contains(t, row, "beneficiaryAccount '6677889900' is invalid (INACTIVE)")
		case strings.HasPrefix(row, "TRX-T009,"):
			assert.Contains(t, row, "sourceBankCode 'XENDIT' is not a recognised bank code")
		case strings.HasPrefix(row, "TRX-T011,"):
			assert.Contains(t, row, "amount 5000 is below the minimum for TRANSFER")
		case strings.HasPrefix(row, "TRX-T012,"):
			assert.Contains(t, row, "sourceAccount '9999999999' is invalid (NOT_FOUND)")
		case strings.HasPrefix(row, "TRX-T013,"):
			// 10-column row, malformed amount: parses with zero and fails the minimum check
			assert.Contains(t, row, "amount 0 is below the minimum for TRANSFER")
		}
	}
}

func TestExecuteJobEmptyInput(t *testing.T) {
	env := newJobTestEnv(t, 100, 10, nil)

	job := model.NewJobExecution(JobName, env.inputFile)
	require.NoError(t, env.processor.CreateAndExecuteJob(context.Background(), job))

	stored, err := env.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Empty(t, stored.StepExecutions)
	assert.Zero(t, countFiles(t, env.outputDir, "valid-p"))
}

func TestExecuteJobFewerRowsThanGrid(t *testing.T) {
	env := newJobTestEnv(t, 100, 10, mixedFixtureRows[:3])

	job := model.NewJobExecution(JobName, env.inputFile)
	require.NoError(t, env.processor.CreateAndExecuteJob(context.Background(), job))

	stored, err := env.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Len(t, stored.StepExecutions, 3)
	for _, step := range stored.StepExecutions {
		assert.Equal(t, int64(1), step.ReadCount)
	}
}

func TestExecuteJobMissingInputFails(t *testing.T) {
	env := newJobTestEnv(t, 100, 10, nil)

	job := model.NewJobExecution(JobName, filepath.Join(t.TempDir(), "missing.csv"))
	err := env.processor.CreateAndExecuteJob(context.Background(), job)
	assert.Error(t, err)

	stored, err := env.store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, stored.Status)
}

func TestExecuteJobRerunProducesSameOutput(t *testing.T) {
	env := newJobTestEnv(t, 3, 2, mixedFixtureRows)

	first := model.NewJobExecution(JobName, env.inputFile)
	require.NoError(t, env.processor.CreateAndExecuteJob(context.Background(), first))
	firstValid := collectOutputRows(t, env.outputDir, "valid-p")
	firstInvalid := collectOutputRows(t, env.outputDir, "invalid-p")

	// wipe the output directory so the rerun regenerates from scratch
	require.NoError(t, os.RemoveAll(env.outputDir))

	second := model.NewJobExecution(JobName, env.inputFile)
	require.NoError(t, env.processor.CreateAndExecuteJob(context.Background(), second))
	secondValid := collectOutputRows(t, env.outputDir, "valid-p")
	secondInvalid := collectOutputRows(t, env.outputDir, "invalid-p")

	sort.Strings(firstValid)
	sort.Strings(secondValid)
	sort.Strings(firstInvalid)
	sort.Strings(secondInvalid)
	assert.Equal(t, firstValid, secondValid)
	assert.Equal(t, firstInvalid, secondInvalid)
}

func TestStartJobIsAsynchronous(t *testing.T) {
	env := newJobTestEnv(t, 3, 2, mixedFixtureRows)

	job, err := env.processor.StartJob(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarting, job.Status)
	assert.Equal(t, env.inputFile, job.InputFile)

	assert.Eventually(t, func() bool {
		stored, err := env.store.GetJob(context.Background(), job.ID)
		return err == nil && stored.Status == model.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}
