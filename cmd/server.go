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
	"log"

	"github.com/spf13/cobra"

	"github.com/kreasipositif/batchproc/api"
)

// serverCommands starts the HTTP trigger surface: job submission and status
// polling.
func serverCommands(b *batchprocInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "start the batch processor HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			router := api.NewAPI(b.processor).Router()
			port := b.cnf.Server.Port
			log.Printf("Starting server on http://localhost:%s", port)
			if err := router.Run(":" + port); err != nil {
				log.Fatal(err)
			}
		},
	}
	return cmd
}
