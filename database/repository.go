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

// Package database persists job and step execution bookkeeping. The
// in-memory store backs tests and single-process runs; the postgres store
// makes the bookkeeping durable across restarts. Writes to a given step row
// are serialised by the store.
package database

import (
	"context"
	"errors"

	"github.com/kreasipositif/batchproc/model"
)

// ErrJobNotFound is returned when no job execution exists for an id.
var ErrJobNotFound = errors.New("job execution not found")

// JobStore is the bookkeeping collaborator of the job coordinator and the
// partition workers. The coordinator writes the job row; each worker writes
// only its own step row.
type JobStore interface {
	CreateJob(ctx context.Context, job *model.JobExecution) error
	UpdateJob(ctx context.Context, job *model.JobExecution) error
	GetJob(ctx context.Context, id string) (*model.JobExecution, error)
	UpsertStep(ctx context.Context, jobID string, step *model.StepExecution) error
}
