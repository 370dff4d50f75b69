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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasipositif/batchproc/model"
)

func testRecord(ref string, valid bool) *model.TransactionRecord {
	r := &model.TransactionRecord{
		ReferenceID:            ref,
		SourceAccount:          "1234567890",
		SourceAccountName:      "Budi Santoso",
		SourceBankCode:         "BCA",
		BeneficiaryAccount:     "0987654321",
		BeneficiaryAccountName: "Siti Rahayu",
		BeneficiaryBankCode:    "BNI",
		Currency:               "IDR",
		Amount:                 decimal.NewFromInt(500000),
		TransactionType:        "TRANSFER",
		Valid:                  true,
	}
	if !valid {
		r.MarkInvalid([]string{"sourceBankCode 'BCA' is not a recognised bank code"})
	}
	return r
}

func findOutputFiles(t *testing.T, dir string) (valid, invalid string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "valid-p"):
			valid = filepath.Join(dir, e.Name())
		case strings.HasPrefix(e.Name(), "invalid-p"):
			invalid = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, valid, "valid output file missing")
	require.NotEmpty(t, invalid, "invalid output file missing")
	return valid, invalid
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func TestDualWriterSplitsRecords(t *testing.T) {
	dir := t.TempDir()
	writer := NewDualWriter(filepath.Join(dir, "validation-results.csv"), 0)
	require.NoError(t, writer.Open())

	chunk := []*model.TransactionRecord{
		testRecord("TRX-0001", true),
		testRecord("TRX-0002", false),
		testRecord("TRX-0003", true),
	}
	require.NoError(t, writer.Write(chunk))
	require.NoError(t, writer.Close())

	validCount, invalidCount := writer.Counts()
	assert.Equal(t, int64(2), validCount)
	assert.Equal(t, int64(1), invalidCount)

	validPath, invalidPath := findOutputFiles(t, dir)

	validLines := readLines(t, validPath)
	require.Len(t, validLines, 3)
	assert.Equal(t, strings.Join(model.ValidHeader, ","), validLines[0])
	assert.True(t, strings.HasPrefix(validLines[1], "TRX-0001,"))
	assert.True(t, strings.HasPrefix(validLines[2], "TRX-0003,"))

	invalidLines := readLines(t, invalidPath)
	require.Len(t, invalidLines, 2)
	assert.Equal(t, strings.Join(model.InvalidHeader, ","), invalidLines[0])
	assert.True(t, strings.HasPrefix(invalidLines[1], "TRX-0002,"))
	assert.Contains(t, invalidLines[1], "sourceBankCode 'BCA' is not a recognised bank code")
}

func TestDualWriterFileNaming(t *testing.T) {
	dir := t.TempDir()
	writer := NewDualWriter(filepath.Join(dir, "validation-results.csv"), 7)
	require.NoError(t, writer.Open())
	require.NoError(t, writer.Close())

	validPath, invalidPath := findOutputFiles(t, dir)
	assert.Regexp(t, `valid-p7-\d+\.csv$`, validPath)
	assert.Regexp(t, `invalid-p7-\d+\.csv$`, invalidPath)
}

func TestDualWriterPreservesChunkOrder(t *testing.T) {
	dir := t.TempDir()
	writer := NewDualWriter(filepath.Join(dir, "validation-results.csv"), 0)
	require.NoError(t, writer.Open())

	var chunk []*model.TransactionRecord
	for _, ref := range []string{"TRX-0005", "TRX-0001", "TRX-0009", "TRX-0003"} {
		chunk = append(chunk, testRecord(ref, true))
	}
	require.NoError(t, writer.Write(chunk))
	require.NoError(t, writer.Close())

	validPath, _ := findOutputFiles(t, dir)
	lines := readLines(t, validPath)
	require.Len(t, lines, 5)
	for i, ref := range []string{"TRX-0005", "TRX-0001", "TRX-0009", "TRX-0003"} {
		assert.True(t, strings.HasPrefix(lines[i+1], ref+","))
	}
}

func TestDualWriterHeadersOnlyWhenNoRecords(t *testing.T) {
	dir := t.TempDir()
	writer := NewDualWriter(filepath.Join(dir, "validation-results.csv"), 0)
	require.NoError(t, writer.Open())
	require.NoError(t, writer.Write(nil))
	require.NoError(t, writer.Close())

	validPath, invalidPath := findOutputFiles(t, dir)
	assert.Len(t, readLines(t, validPath), 1)
	assert.Len(t, readLines(t, invalidPath), 1)
}

func TestDualWriterCloseWithoutOpen(t *testing.T) {
	writer := NewDualWriter(filepath.Join(t.TempDir(), "validation-results.csv"), 0)
	assert.NoError(t, writer.Close())
}
