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

package downstream

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/internal/request"
)

// MaxBulkAccounts is the largest number of account pairs the bulk endpoint
// accepts in one invocation.
const MaxBulkAccounts = 100

// Account lifecycle statuses returned by the account-validation service.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusBlocked  = "BLOCKED"
	StatusNotFound = "NOT_FOUND"
)

// AccountPair identifies one account to validate.
type AccountPair struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

// AccountResult is the per-account outcome of a bulk validation call. Valid
// is the authoritative field; Status carries the lifecycle detail.
type AccountResult struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	AccountName   string `json:"accountName,omitempty"`
	Valid         bool   `json:"valid"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

type bulkValidationRequest struct {
	Accounts []AccountPair `json:"accounts"`
}

type bulkValidationResponse struct {
	TotalRequested int             `json:"totalRequested"`
	TotalValid     int             `json:"totalValid"`
	TotalInvalid   int             `json:"totalInvalid"`
	Results        []AccountResult `json:"results"`
}

// AccountClient calls the account-validation-service bulk endpoint.
type AccountClient struct {
	baseURL string
	client  *http.Client
}

// NewAccountClient creates a client for the given account-validation-service
// endpoint.
func NewAccountClient(endpoint config.ServiceEndpoint) *AccountClient {
	return &AccountClient{
		baseURL: endpoint.BaseURL,
		client:  request.NewClient(endpoint.Timeout()),
	}
}

// ValidateBulk calls POST /api/v1/accounts/validate/bulk with up to
// MaxBulkAccounts pairs. Transport failures map to an empty result list;
// the validator treats that as "no results".
func (c *AccountClient) ValidateBulk(ctx context.Context, pairs []AccountPair) []AccountResult {
	if len(pairs) > MaxBulkAccounts {
		logrus.Warnf("bulk account-validation request truncated from %d to %d pairs", len(pairs), MaxBulkAccounts)
		pairs = pairs[:MaxBulkAccounts]
	}

	payload, err := request.ToJsonReq(bulkValidationRequest{Accounts: pairs})
	if err != nil {
		logrus.Warnf("bulk account-validation call failed: %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/accounts/validate/bulk", payload)
	if err != nil {
		logrus.Warnf("bulk account-validation call failed: %v", err)
		return nil
	}

	var response bulkValidationResponse
	if _, err := request.Call(c.client, req, &response); err != nil {
		logrus.Warnf("bulk account-validation call failed: %v", err)
		return nil
	}
	return response.Results
}
