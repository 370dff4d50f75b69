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

package mockservice

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/downstream"
)

// maxBulkEntries caps one bulk request, matching the service contract.
const maxBulkEntries = 100

// MockAccountEntry seeds one account in the fictional bank core.
type MockAccountEntry struct {
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankCode      string `json:"bankCode"`
	Status        string `json:"status"`
}

// DefaultAccounts seeds the accounts of the fictional bank core.
func DefaultAccounts() []MockAccountEntry {
	return []MockAccountEntry{
		{AccountNumber: "1234567890", AccountName: "Budi Santoso", BankCode: "BCA", Status: "ACTIVE"},
		{AccountNumber: "0987654321", AccountName: "Siti Rahayu", BankCode: "BNI", Status: "ACTIVE"},
		{AccountNumber: "1122334455", AccountName: "Ahmad Wijaya", BankCode: "BRI", Status: "ACTIVE"},
		{AccountNumber: "5544332211", AccountName: "Dewi Lestari", BankCode: "MANDIRI", Status: "ACTIVE"},
		{AccountNumber: "6677889900", AccountName: "Rudi Hartono", BankCode: "CIMB", Status: "INACTIVE"},
		{AccountNumber: "3344556677", AccountName: "Maya Putri", BankCode: "PERMATA", Status: "BLOCKED"},
		{AccountNumber: "4444555566", AccountName: "Andi Saputra", BankCode: "BNI", Status: "INACTIVE"},
		{AccountNumber: "7788990011", AccountName: "Rina Kusuma", BankCode: "DANAMON", Status: "ACTIVE"},
		{AccountNumber: "2233445566", AccountName: "Joko Susilo", BankCode: "BTN", Status: "ACTIVE"},
		{AccountNumber: "9900112233", AccountName: "Fitri Handayani", BankCode: "BSI", Status: "ACTIVE"},
	}
}

// AccountService is the mock account-validation-service. Every call applies
// a configurable blocking delay to simulate downstream latency; the delay
// is applied once per request, not per account.
type AccountService struct {
	latency time.Duration
	index   map[string]MockAccountEntry
}

// NewAccountService creates the mock with the given seeds; nil seeds fall
// back to the defaults.
func NewAccountService(accounts []MockAccountEntry, latency time.Duration) *AccountService {
	if accounts == nil {
		accounts = DefaultAccounts()
	}
	index := make(map[string]MockAccountEntry, len(accounts))
	for _, entry := range accounts {
		index[accountKey(entry.AccountNumber, entry.BankCode)] = entry
	}
	logrus.Infof("mock account index built with %d entries", len(index))
	return &AccountService{latency: latency, index: index}
}

func accountKey(accountNumber, bankCode string) string {
	return accountNumber + ":" + strings.ToUpper(bankCode)
}

// Router builds the gin engine serving the account-validation contract.
func (s *AccountService) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.POST("/api/v1/accounts/validate", s.validateSingle)
	router.POST("/api/v1/accounts/validate/bulk", s.validateBulk)
	return router
}

type accountValidationRequest struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

type bulkAccountValidationRequest struct {
	Accounts []accountValidationRequest `json:"accounts"`
}

func (s *AccountService) validateSingle(c *gin.Context) {
	var request accountValidationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.applyLatency()
	c.JSON(http.StatusOK, s.validate(request.AccountNumber, request.BankCode))
}

func (s *AccountService) validateBulk(c *gin.Context) {
	var request bulkAccountValidationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(request.Accounts) > maxBulkEntries {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 100 accounts per request"})
		return
	}

	s.applyLatency()

	results := make([]downstream.AccountResult, 0, len(request.Accounts))
	totalValid := 0
	for _, entry := range request.Accounts {
		result := s.validate(entry.AccountNumber, entry.BankCode)
		if result.Valid {
			totalValid++
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{
		"totalRequested": len(results),
		"totalValid":     totalValid,
		"totalInvalid":   len(results) - totalValid,
		"results":        results,
	})
}

func (s *AccountService) validate(accountNumber, bankCode string) downstream.AccountResult {
	entry, found := s.index[accountKey(accountNumber, bankCode)]
	if !found {
		return downstream.AccountResult{
			AccountNumber: accountNumber,
			BankCode:      bankCode,
			Valid:         false,
			Status:        downstream.StatusNotFound,
			Reason:        "Account number '" + accountNumber + "' not found for bank '" + bankCode + "'.",
		}
	}

	status := strings.ToUpper(entry.Status)
	active := status == downstream.StatusActive
	result := downstream.AccountResult{
		AccountNumber: entry.AccountNumber,
		BankCode:      entry.BankCode,
		AccountName:   entry.AccountName,
		Valid:         active,
		Status:        status,
	}
	if !active {
		result.Reason = "Account is " + entry.Status + "."
	}
	return result
}

func (s *AccountService) applyLatency() {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
}
