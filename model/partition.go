package model

import "fmt"

// Partition is a contiguous range of data lines assigned to one worker.
// Lines are 1-based; line 1 is the header, so StartLine is always >= 2.
type Partition struct {
	Index     int `json:"partition_index"`
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Name returns the step name for this partition, e.g. "partition-3".
func (p Partition) Name() string {
	return fmt.Sprintf("partition-%d", p.Index)
}

// Size returns the number of data lines covered by this partition.
func (p Partition) Size() int {
	return p.EndLine - p.StartLine + 1
}
