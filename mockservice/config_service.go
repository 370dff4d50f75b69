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

// Package mockservice hosts in-process stand-ins for the two downstream
// validation services. They serve the same wire contract as the real
// services with seeded data, so the batch processor can run end-to-end on a
// laptop and in tests.
package mockservice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BankCodeEntry is one recognised bank code with its display name.
type BankCodeEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TransactionLimitEntry bounds the amount range of one transaction type.
type TransactionLimitEntry struct {
	TransactionType string          `json:"transactionType"`
	MinAmount       decimal.Decimal `json:"minAmount"`
	MaxAmount       decimal.Decimal `json:"maxAmount"`
	Currency        string          `json:"currency"`
}

// DefaultBankCodes seeds the recognised Indonesian bank codes.
func DefaultBankCodes() []BankCodeEntry {
	return []BankCodeEntry{
		{Code: "BCA", Name: "Bank Central Asia"},
		{Code: "BNI", Name: "Bank Negara Indonesia"},
		{Code: "BRI", Name: "Bank Rakyat Indonesia"},
		{Code: "MANDIRI", Name: "Bank Mandiri"},
		{Code: "CIMB", Name: "CIMB Niaga"},
		{Code: "DANAMON", Name: "Bank Danamon"},
		{Code: "PERMATA", Name: "Bank Permata"},
		{Code: "BTN", Name: "Bank Tabungan Negara"},
		{Code: "BSI", Name: "Bank Syariah Indonesia"},
		{Code: "OCBC", Name: "OCBC Indonesia"},
	}
}

// DefaultTransactionLimits seeds the per-type amount bounds.
func DefaultTransactionLimits() []TransactionLimitEntry {
	return []TransactionLimitEntry{
		{TransactionType: "TRANSFER", MinAmount: decimal.NewFromInt(10000), MaxAmount: decimal.NewFromInt(1000000000), Currency: "IDR"},
		{TransactionType: "PAYMENT", MinAmount: decimal.NewFromInt(1000), MaxAmount: decimal.NewFromInt(500000000), Currency: "IDR"},
		{TransactionType: "TOPUP", MinAmount: decimal.NewFromInt(10000), MaxAmount: decimal.NewFromInt(10000000), Currency: "IDR"},
		{TransactionType: "WITHDRAWAL", MinAmount: decimal.NewFromInt(50000), MaxAmount: decimal.NewFromInt(200000000), Currency: "IDR"},
	}
}

// ConfigService is the mock config-service.
type ConfigService struct {
	bankCodes []BankCodeEntry
	limits    []TransactionLimitEntry
}

// NewConfigService creates a mock config-service with the given seeds; nil
// seeds fall back to the defaults.
func NewConfigService(bankCodes []BankCodeEntry, limits []TransactionLimitEntry) *ConfigService {
	if bankCodes == nil {
		bankCodes = DefaultBankCodes()
	}
	if limits == nil {
		limits = DefaultTransactionLimits()
	}
	return &ConfigService{bankCodes: bankCodes, limits: limits}
}

// Router builds the gin engine serving the config-service contract.
func (s *ConfigService) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.GET("/api/v1/config/bank-codes", s.listBankCodes)
	router.GET("/api/v1/config/bank-codes/:code/validate", s.validateBankCode)
	router.GET("/api/v1/config/transaction-limits", s.listLimits)
	router.GET("/api/v1/config/transaction-limits/:type/validate", s.validateAmount)
	return router
}

func (s *ConfigService) listBankCodes(c *gin.Context) {
	c.JSON(http.StatusOK, s.bankCodes)
}

func (s *ConfigService) listLimits(c *gin.Context) {
	c.JSON(http.StatusOK, s.limits)
}

// validateBankCode checks the code against the seeded list. The check is
// case-insensitive, matching the original service behaviour.
func (s *ConfigService) validateBankCode(c *gin.Context) {
	code := c.Param("code")
	for _, entry := range s.bankCodes {
		if strings.EqualFold(entry.Code, code) {
			c.JSON(http.StatusOK, gin.H{"code": entry.Code, "valid": true, "name": entry.Name})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "valid": false})
}

func (s *ConfigService) validateAmount(c *gin.Context) {
	transactionType := c.Param("type")
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a decimal"})
		return
	}

	for _, limit := range s.limits {
		if !strings.EqualFold(limit.TransactionType, transactionType) {
			continue
		}
		response := gin.H{"transactionType": limit.TransactionType, "amount": amount}
		switch {
		case amount.LessThan(limit.MinAmount):
			response["valid"] = false
			response["message"] = "Amount " + amount.String() + " is below the minimum of " +
				limit.MinAmount.String() + " for type '" + limit.TransactionType + "'."
		case amount.GreaterThan(limit.MaxAmount):
			response["valid"] = false
			response["message"] = "Amount " + amount.String() + " exceeds the maximum of " +
				limit.MaxAmount.String() + " for type '" + limit.TransactionType + "'."
		default:
			response["valid"] = true
		}
		c.JSON(http.StatusOK, response)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactionType": transactionType,
		"amount":          amount,
		"valid":           false,
		"message":         "Transaction type '" + transactionType + "' is not configured.",
	})
}
