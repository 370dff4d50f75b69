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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/kreasipositif/batchproc/model"
)

// runCommands executes one validation job synchronously from the CLI and
// prints the final status projection.
func runCommands(b *batchprocInstance) *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one validation job to completion and print its status",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			resolved := inputFile
			if resolved == "" {
				resolved = b.cnf.Batch.InputFile
			}

			job := model.NewJobExecution("transactionValidationJob", resolved)
			if err := b.processor.CreateAndExecuteJob(ctx, job); err != nil {
				log.Printf("job finished with error: %v", err)
			}

			status, err := b.processor.GetJobStatus(ctx, job.ID)
			if err != nil {
				log.Fatal(err)
			}
			rendered, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(string(rendered))
		},
	}

	cmd.Flags().StringVar(&inputFile, "input-file", "", "input file override")
	return cmd
}
