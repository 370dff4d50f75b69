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

package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/kreasipositif/batchproc/model"
)

// MemoryStore is the in-memory JobStore. It clones on the way in and out so
// no caller ever shares counter state with a running worker.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*model.JobExecution
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.JobExecution)}
}

func (m *MemoryStore) CreateJob(_ context.Context, job *model.JobExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[job.ID]; exists {
		return fmt.Errorf("job execution %s already exists", job.ID)
	}
	m.jobs[job.ID] = job.Clone()
	return nil
}

func (m *MemoryStore) UpdateJob(_ context.Context, job *model.JobExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.jobs[job.ID]
	if !exists {
		return ErrJobNotFound
	}
	clone := job.Clone()
	// steps are owned by UpsertStep; keep any rows the job envelope does
	// not carry yet
	for _, step := range stored.StepExecutions {
		if clone.Step(step.Name) == nil {
			clone.StepExecutions = append(clone.StepExecutions, step)
		}
	}
	m.jobs[job.ID] = clone
	return nil
}

func (m *MemoryStore) GetJob(_ context.Context, id string) (*model.JobExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

func (m *MemoryStore) UpsertStep(_ context.Context, jobID string, step *model.StepExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists := m.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	clone := *step
	if existing := job.Step(step.Name); existing != nil {
		*existing = clone
		return nil
	}
	job.StepExecutions = append(job.StepExecutions, &clone)
	return nil
}
