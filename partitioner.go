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
	"github.com/sirupsen/logrus"

	"github.com/kreasipositif/batchproc/model"
)

// PlanPartitions splits the data lines of the input file into up to gridSize
// contiguous, disjoint line ranges whose union covers exactly lines
// 2..totalLines+1 (line 1 is the header).
//
// Each partition holds ceil(totalLines/gridSize) lines except possibly the
// last one. When totalLines < gridSize the plan has totalLines partitions of
// one line each; zero data lines yield an empty plan. The output is
// deterministic for a fixed (totalLines, gridSize).
func PlanPartitions(totalLines, gridSize int) []model.Partition {
	if totalLines <= 0 || gridSize < 1 {
		logrus.Infof("created 0 partitions for %d data lines (gridSize requested: %d)", totalLines, gridSize)
		return nil
	}

	linesPerPartition := (totalLines + gridSize - 1) / gridSize
	partitions := make([]model.Partition, 0, gridSize)

	for i := 0; i < gridSize; i++ {
		// +1 offset because line 1 is the header; data starts at line 2
		startLine := i*linesPerPartition + 2
		if startLine > totalLines+1 {
			break // no more data
		}
		endLine := startLine + linesPerPartition - 1
		if endLine > totalLines+1 {
			endLine = totalLines + 1
		}

		partitions = append(partitions, model.Partition{
			Index:     i,
			StartLine: startLine,
			EndLine:   endLine,
		})
		logrus.Debugf("partition-%d — lines %d-%d", i, startLine, endLine)
	}

	logrus.Infof("created %d partitions for %d data lines (gridSize requested: %d)",
		len(partitions), totalLines, gridSize)
	return partitions
}
