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
	"time"

	"github.com/spf13/cobra"

	"github.com/kreasipositif/batchproc/mockservice"
)

// mockServiceCommands serves the two seeded downstream mocks so the batch
// processor can run end-to-end without the real services.
func mockServiceCommands(b *batchprocInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-services",
		Short: "serve the mock config-service and account-validation-service",
		Run: func(cmd *cobra.Command, args []string) {
			latency := time.Duration(b.cnf.MockServices.LatencyMs) * time.Millisecond

			configRouter := mockservice.NewConfigService(nil, nil).Router()
			accountRouter := mockservice.NewAccountService(nil, latency).Router()

			errs := make(chan error, 2)
			go func() {
				log.Printf("Starting mock config-service on http://localhost:%s", b.cnf.MockServices.ConfigPort)
				errs <- configRouter.Run(":" + b.cnf.MockServices.ConfigPort)
			}()
			go func() {
				log.Printf("Starting mock account-validation-service on http://localhost:%s", b.cnf.MockServices.AccountPort)
				errs <- accountRouter.Run(":" + b.cnf.MockServices.AccountPort)
			}()
			log.Fatal(<-errs)
		},
	}
	return cmd
}
