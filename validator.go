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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/kreasipositif/batchproc/downstream"
	"github.com/kreasipositif/batchproc/internal/bulkhead"
	"github.com/kreasipositif/batchproc/model"
)

var tracer = otel.Tracer("batchproc")

// Validation failure reasons that are not tied to a specific field value.
const (
	reasonBulkheadFull = "validation could not be performed (bulkhead full)"
	reasonNoResults    = "account validation service returned no results"
	reasonInterrupted  = "validation interrupted"
)

// ConfigChecker answers the two config-service questions.
type ConfigChecker interface {
	IsBankCodeValid(ctx context.Context, bankCode string) bool
	IsAmountValid(ctx context.Context, transactionType string, amount decimal.Decimal) bool
}

// AccountChecker answers the bulk account-validation question.
type AccountChecker interface {
	ValidateBulk(ctx context.Context, pairs []downstream.AccountPair) []downstream.AccountResult
}

// RecordValidator runs the four validation checks for one record:
//
//  1. source bank code recognised (config service)
//  2. beneficiary bank code recognised (config service)
//  3. amount meets the minimum for the transaction type (config service)
//  4. both accounts valid (account-validation service, one bulk call)
//
// Checks 1-3 run sequentially on the calling goroutine, each holding a
// permit of the config semaphore bulkhead for the duration of its own call.
// Check 4 is dispatched to the account pool bulkhead before check 1 begins
// so the dominant-latency call overlaps the three short ones; its future is
// joined after check 3 returns.
//
// A failing check never short-circuits the rest: all failure reasons
// accumulate on the record in check order.
type RecordValidator struct {
	configClient   ConfigChecker
	accountClient  AccountChecker
	configBulkhead *bulkhead.Semaphore
	accountPool    *bulkhead.Pool
}

// NewRecordValidator wires a validator to its clients and bulkheads. The
// bulkheads are process-wide; validators on every partition worker share
// them.
func NewRecordValidator(configClient ConfigChecker, accountClient AccountChecker,
	configBulkhead *bulkhead.Semaphore, accountPool *bulkhead.Pool) *RecordValidator {
	return &RecordValidator{
		configClient:   configClient,
		accountClient:  accountClient,
		configBulkhead: configBulkhead,
		accountPool:    accountPool,
	}
}

// Validate attaches a verdict to the record. The record is mutated exactly
// once: either it keeps its clean verdict or all accumulated failure
// reasons are joined onto it.
func (v *RecordValidator) Validate(ctx context.Context, record *model.TransactionRecord) {
	ctx, span := tracer.Start(ctx, "Validating Transaction Record")
	defer span.End()

	var reasons []string

	// Dispatch the bulk account check before the config checks start.
	accountFuture, submitErr := v.accountPool.Submit(func(taskCtx context.Context) (interface{}, error) {
		return v.accountClient.ValidateBulk(taskCtx, []downstream.AccountPair{
			{AccountNumber: record.SourceAccount, BankCode: record.SourceBankCode},
			{AccountNumber: record.BeneficiaryAccount, BankCode: record.BeneficiaryBankCode},
		}), nil
	})

	v.checkBankCode(ctx, record.SourceBankCode, "sourceBankCode", &reasons)
	v.checkBankCode(ctx, record.BeneficiaryBankCode, "beneficiaryBankCode", &reasons)
	v.checkAmount(ctx, record, &reasons)
	v.checkAccounts(ctx, record, accountFuture, submitErr, &reasons)

	if len(reasons) > 0 {
		record.MarkInvalid(reasons)
		logrus.Debugf("record %s INVALID — %s", record.ReferenceID, record.ValidationErrors)
	} else {
		logrus.Debugf("record %s VALID", record.ReferenceID)
	}
}

func (v *RecordValidator) checkBankCode(ctx context.Context, bankCode, fieldName string, reasons *[]string) {
	valid := true
	err := v.configBulkhead.Do(ctx, func() error {
		valid = v.configClient.IsBankCodeValid(ctx, bankCode)
		return nil
	})

	switch {
	case errors.Is(err, bulkhead.ErrBulkheadFull):
		logrus.Warnf("config-service bulkhead full while validating %s", fieldName)
		*reasons = append(*reasons, reasonBulkheadFull)
	case errors.Is(err, bulkhead.ErrInterrupted):
		*reasons = append(*reasons, reasonInterrupted)
	case !valid:
		*reasons = append(*reasons, fmt.Sprintf("%s '%s' is not a recognised bank code", fieldName, bankCode))
	}
}

func (v *RecordValidator) checkAmount(ctx context.Context, record *model.TransactionRecord, reasons *[]string) {
	valid := true
	err := v.configBulkhead.Do(ctx, func() error {
		valid = v.configClient.IsAmountValid(ctx, record.TransactionType, record.Amount)
		return nil
	})

	switch {
	case errors.Is(err, bulkhead.ErrBulkheadFull):
		logrus.Warnf("config-service bulkhead full while validating amount for %s", record.ReferenceID)
		*reasons = append(*reasons, reasonBulkheadFull)
	case errors.Is(err, bulkhead.ErrInterrupted):
		*reasons = append(*reasons, reasonInterrupted)
	case !valid:
		*reasons = append(*reasons, fmt.Sprintf("amount %s is below the minimum for %s",
			record.Amount.String(), record.TransactionType))
	}
}

func (v *RecordValidator) checkAccounts(ctx context.Context, record *model.TransactionRecord,
	future *bulkhead.Future, submitErr error, reasons *[]string) {
	if submitErr != nil {
		logrus.Warnf("account-validation pool bulkhead full for ref %s: %v", record.ReferenceID, submitErr)
		*reasons = append(*reasons, reasonBulkheadFull)
		return
	}

	value, err := future.Get(ctx)
	if err != nil {
		if errors.Is(err, bulkhead.ErrInterrupted) {
			*reasons = append(*reasons, reasonInterrupted)
			return
		}
		logrus.Warnf("account validation failed for ref %s: %v", record.ReferenceID, err)
		*reasons = append(*reasons, fmt.Sprintf("account validation failed: %v", err))
		return
	}

	results, _ := value.([]downstream.AccountResult)
	if len(results) == 0 {
		*reasons = append(*reasons, reasonNoResults)
		return
	}

	// Index by account number; the bulk response may reorder or duplicate
	// results, and the first occurrence wins.
	indexed := make(map[string]downstream.AccountResult, len(results))
	for _, result := range results {
		if _, seen := indexed[result.AccountNumber]; !seen {
			indexed[result.AccountNumber] = result
		}
	}

	appendAccountReason(indexed, record.SourceAccount, "sourceAccount", reasons)
	appendAccountReason(indexed, record.BeneficiaryAccount, "beneficiaryAccount", reasons)
}

func appendAccountReason(indexed map[string]downstream.AccountResult, account, fieldName string, reasons *[]string) {
	result, found := indexed[account]
	if found && result.Valid {
		// Valid is authoritative even when the status is not ACTIVE.
		return
	}
	status := downstream.StatusNotFound
	if found && result.Status != "" {
		status = result.Status
	}
	*reasons = append(*reasons, fmt.Sprintf("%s '%s' is invalid (%s)", fieldName, account, status))
}
