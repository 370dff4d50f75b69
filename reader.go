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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/model"
)

// Input column indices. The file carries 10 or 11 comma-separated fields;
// the trailing note column is optional.
const (
	colReferenceID = iota
	colSourceAccount
	colSourceAccountName
	colSourceBankCode
	colBeneficiaryAccount
	colBeneficiaryAccountName
	colBeneficiaryBankCode
	colCurrency
	colAmount
	colTransactionType
	colNote

	minColumns = 10
)

// RangeReader reads the transaction records of one partition's line range
// from the delimited input file. It is single-use and owned by exactly one
// worker; Read returns io.EOF once the assigned range is exhausted.
type RangeReader struct {
	file      *os.File
	scanner   *bufio.Scanner
	remaining int
	lineNum   int
	skipped   int64
}

// NewRangeReader opens the resource at path and positions it at the first
// line of the partition, skipping the header and all preceding lines.
func NewRangeReader(path string, partition model.Partition) (*RangeReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening input file %s: %w", path, err)
	}

	scanner := bufio.NewScanner(file)
	for line := 1; line < partition.StartLine; line++ {
		if !scanner.Scan() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error skipping to line %d: %w", partition.StartLine, err)
	}

	return &RangeReader{
		file:      file,
		scanner:   scanner,
		remaining: partition.Size(),
		lineNum:   partition.StartLine - 1,
	}, nil
}

// Read returns the next record in the assigned range. Lines that cannot be
// split into at least 10 columns are skipped with a warning and do not
// count as reads; a malformed amount is not fatal and parses as zero so the
// minimum-amount check fails naturally downstream. io.EOF signals the end
// of the range.
func (r *RangeReader) Read() (*model.TransactionRecord, error) {
	for r.remaining > 0 {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return nil, fmt.Errorf("error reading line %d: %w", r.lineNum+1, err)
			}
			return nil, io.EOF
		}
		r.remaining--
		r.lineNum++

		fields := strings.Split(r.scanner.Text(), ",")
		if len(fields) < minColumns {
			logrus.Warnf("skipping line %d: expected at least %d columns, got %d", r.lineNum, minColumns, len(fields))
			r.skipped++
			continue
		}
		return mapRecord(fields), nil
	}
	return nil, io.EOF
}

// Skipped reports how many unparseable lines were passed over so far.
func (r *RangeReader) Skipped() int64 {
	return r.skipped
}

func (r *RangeReader) Close() error {
	return r.file.Close()
}

func mapRecord(fields []string) *model.TransactionRecord {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	amount, err := decimal.NewFromString(fields[colAmount])
	if err != nil {
		amount = decimal.Zero
	}

	note := ""
	if len(fields) > colNote {
		note = fields[colNote]
	}

	return &model.TransactionRecord{
		ReferenceID:            fields[colReferenceID],
		SourceAccount:          fields[colSourceAccount],
		SourceAccountName:      fields[colSourceAccountName],
		SourceBankCode:         fields[colSourceBankCode],
		BeneficiaryAccount:     fields[colBeneficiaryAccount],
		BeneficiaryAccountName: fields[colBeneficiaryAccountName],
		BeneficiaryBankCode:    fields[colBeneficiaryBankCode],
		Currency:               fields[colCurrency],
		Amount:                 amount,
		TransactionType:        fields[colTransactionType],
		Note:                   note,
		Valid:                  true,
	}
}

// CountDataLines counts the data rows of the input file: total lines minus
// one for the header. An empty file has zero data lines.
func CountDataLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("error opening input file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	lines := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error counting lines in %s: %w", path, err)
	}

	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil
}
