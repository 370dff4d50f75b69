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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/model"
)

// DualWriter streams one partition's records into two output files: records
// with a clean verdict go to valid-p<i>-<ms>.csv, the rest to
// invalid-p<i>-<ms>.csv. Fields are written unquoted; the input contract
// guarantees they contain no delimiter, quote or line break characters.
//
// A DualWriter is owned by exactly one worker and lives for one step
// execution.
type DualWriter struct {
	outputDir      string
	partitionIndex int

	validFile   *os.File
	invalidFile *os.File
	validBuf    *bufio.Writer
	invalidBuf  *bufio.Writer

	validCount   int64
	invalidCount int64
}

// NewDualWriter creates a writer for the given partition. The directory of
// outputFile is used as the output directory, matching the configured
// output path convention.
func NewDualWriter(outputFile string, partitionIndex int) *DualWriter {
	return &DualWriter{
		outputDir:      filepath.Dir(outputFile),
		partitionIndex: partitionIndex,
	}
}

// Open creates both output files, truncating any previous content, and
// writes their header lines. File names carry the partition index and the
// Unix millisecond timestamp at open.
func (w *DualWriter) Open() error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory %s: %w", w.outputDir, err)
	}

	suffix := fmt.Sprintf("p%d-%d", w.partitionIndex, time.Now().UnixMilli())

	validFile, err := os.Create(filepath.Join(w.outputDir, fmt.Sprintf("valid-%s.csv", suffix)))
	if err != nil {
		return fmt.Errorf("error creating valid output file: %w", err)
	}
	invalidFile, err := os.Create(filepath.Join(w.outputDir, fmt.Sprintf("invalid-%s.csv", suffix)))
	if err != nil {
		_ = validFile.Close()
		return fmt.Errorf("error creating invalid output file: %w", err)
	}

	w.validFile = validFile
	w.invalidFile = invalidFile
	w.validBuf = bufio.NewWriter(validFile)
	w.invalidBuf = bufio.NewWriter(invalidFile)

	if err := w.writeLine(w.validBuf, model.ValidHeader); err != nil {
		return err
	}
	if err := w.writeLine(w.invalidBuf, model.InvalidHeader); err != nil {
		return err
	}

	logrus.Infof("partition %d output — valid: valid-%s.csv  |  invalid: invalid-%s.csv",
		w.partitionIndex, suffix, suffix)
	return nil
}

// Write appends each record of the chunk to its output stream, preserving
// the chunk's input order within each stream.
func (w *DualWriter) Write(chunk []*model.TransactionRecord) error {
	for _, record := range chunk {
		if record.Valid {
			if err := w.writeLine(w.validBuf, record.ValidRow()); err != nil {
				return err
			}
			w.validCount++
		} else {
			if err := w.writeLine(w.invalidBuf, record.InvalidRow()); err != nil {
				return err
			}
			w.invalidCount++
		}
	}
	return nil
}

func (w *DualWriter) writeLine(buf *bufio.Writer, fields []string) error {
	if _, err := buf.WriteString(strings.Join(fields, ",")); err != nil {
		return fmt.Errorf("error writing output row: %w", err)
	}
	if err := buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("error writing output row: %w", err)
	}
	return nil
}

// Counts returns how many records went to the valid and invalid streams.
func (w *DualWriter) Counts() (valid, invalid int64) {
	return w.validCount, w.invalidCount
}

// Close flushes and closes both streams and logs the final summary pair.
// It is safe to call on a writer whose Open failed part-way.
func (w *DualWriter) Close() error {
	var firstErr error

	for _, buf := range []*bufio.Writer{w.validBuf, w.invalidBuf} {
		if buf == nil {
			continue
		}
		if err := buf.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, file := range []*os.File{w.validFile, w.invalidFile} {
		if file == nil {
			continue
		}
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	logrus.Infof("partition %d complete — %d valid records, %d invalid records",
		w.partitionIndex, w.validCount, w.invalidCount)
	return firstErr
}
