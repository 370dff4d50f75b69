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
	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/database"
	"github.com/kreasipositif/batchproc/downstream"
	"github.com/kreasipositif/batchproc/internal/bulkhead"
)

// Batchproc represents the main struct for the batch processor application.
// It holds the job store, the downstream clients and the two process-wide
// bulkheads that every partition worker shares.
type Batchproc struct {
	store          database.JobStore
	configBulkhead *bulkhead.Semaphore
	accountPool    *bulkhead.Pool
	validator      *RecordValidator
}

// NewBatchproc initializes a new instance of Batchproc with the provided
// job store. Downstream clients and bulkheads are built from the loaded
// configuration.
//
// Parameters:
// - store database.JobStore: The store for job/step bookkeeping.
//
// Returns:
// - *Batchproc: A pointer to the newly created Batchproc instance.
// - error: An error if the configuration could not be fetched.
func NewBatchproc(store database.JobStore) (*Batchproc, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	configClient := downstream.NewConfigClient(cnf.Downstream.ConfigService)
	accountClient := downstream.NewAccountClient(cnf.Downstream.AccountValidationService)
	return newBatchproc(store, configClient, accountClient, cnf), nil
}

func newBatchproc(store database.JobStore, configChecker ConfigChecker,
	accountChecker AccountChecker, cnf *config.Configuration) *Batchproc {
	configBulkhead := bulkhead.NewSemaphore("configService",
		cnf.Bulkhead.ConfigService.MaxConcurrentCalls, cnf.Bulkhead.ConfigService.MaxWait())
	accountPool := bulkhead.NewPool("accountValidation",
		cnf.Bulkhead.AccountPool.CorePoolSize, cnf.Bulkhead.AccountPool.MaxPoolSize,
		cnf.Bulkhead.AccountPool.QueueCapacity, cnf.Bulkhead.AccountPool.KeepAlive())

	return &Batchproc{
		store:          store,
		configBulkhead: configBulkhead,
		accountPool:    accountPool,
		validator:      NewRecordValidator(configChecker, accountChecker, configBulkhead, accountPool),
	}
}

// Close releases the account-validation worker pool.
func (b *Batchproc) Close() {
	b.accountPool.Close()
}
