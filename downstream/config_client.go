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

// Package downstream contains the typed HTTP facades for the two validation
// services the batch pipeline depends on. Both clients map transport
// failures to negative results so a record is never passed without being
// checked; the validator turns the negative result into a record-level
// error.
package downstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/internal/request"
)

// ConfigClient calls the config-service bank-code and transaction-limit
// validation endpoints.
type ConfigClient struct {
	baseURL string
	client  *http.Client
}

// NewConfigClient creates a client for the given config-service endpoint.
func NewConfigClient(endpoint config.ServiceEndpoint) *ConfigClient {
	return &ConfigClient{
		baseURL: endpoint.BaseURL,
		client:  request.NewClient(endpoint.Timeout()),
	}
}

type bankCodeValidationResponse struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
}

type amountValidationResponse struct {
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Valid           bool            `json:"valid"`
	Message         string          `json:"message,omitempty"`
}

// IsBankCodeValid calls GET /api/v1/config/bank-codes/{code}/validate.
// Transport failures map to false.
func (c *ConfigClient) IsBankCodeValid(ctx context.Context, bankCode string) bool {
	endpoint := fmt.Sprintf("%s/api/v1/config/bank-codes/%s/validate", c.baseURL, url.PathEscape(bankCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logrus.Warnf("bank-code validation call failed for code=%q: %v", bankCode, err)
		return false
	}

	var response bankCodeValidationResponse
	if _, err := request.Call(c.client, req, &response); err != nil {
		logrus.Warnf("bank-code validation call failed for code=%q: %v", bankCode, err)
		return false
	}
	return response.Valid
}

// IsAmountValid calls GET /api/v1/config/transaction-limits/{type}/validate.
// Transport failures map to false.
func (c *ConfigClient) IsAmountValid(ctx context.Context, transactionType string, amount decimal.Decimal) bool {
	endpoint := fmt.Sprintf("%s/api/v1/config/transaction-limits/%s/validate?amount=%s",
		c.baseURL, url.PathEscape(transactionType), url.QueryEscape(amount.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logrus.Warnf("amount validation call failed for type=%q, amount=%s: %v", transactionType, amount, err)
		return false
	}

	var response amountValidationResponse
	if _, err := request.Call(c.client, req, &response); err != nil {
		logrus.Warnf("amount validation call failed for type=%q, amount=%s: %v", transactionType, amount, err)
		return false
	}
	return response.Valid
}
