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
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	batchproc "github.com/kreasipositif/batchproc"
	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/database"
)

// Batchproc represents the CLI application, encapsulating the root Cobra command.
type Batchproc struct {
	cmd *cobra.Command
}

// batchprocInstance holds the processor instance and its configuration for
// use by the subcommands.
type batchprocInstance struct {
	processor *batchproc.Batchproc
	cnf       *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the processor before
// running any command.
func preRun(app *batchprocInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		processor, err := setupBatchproc(cnf)
		if err != nil {
			log.Fatal(err)
		}

		app.processor = processor
		app.cnf = cnf
		return nil
	}
}

// setupBatchproc creates the processor with a durable job store when a data
// source is configured, and an in-memory store otherwise.
func setupBatchproc(cfg *config.Configuration) (*batchproc.Batchproc, error) {
	var store database.JobStore
	if cfg.DataSource.Dns != "" {
		db, err := database.NewDataSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("error getting datasource: %v", err)
		}
		store = db
	} else {
		logrus.Warn("no data source configured, job bookkeeping is in-memory only")
		store = database.NewMemoryStore()
	}

	processor, err := batchproc.NewBatchproc(store)
	if err != nil {
		return nil, fmt.Errorf("error creating batchproc: %v", err)
	}
	return processor, nil
}

// NewCLI creates the command-line interface for the batch processor.
func NewCLI() *Batchproc {
	var configFile string
	b := &batchprocInstance{}

	var rootCmd = &cobra.Command{
		Use:   "batchproc",
		Short: "Partitioned transaction validation batch processor",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./batchproc.json", "Configuration file for the batch processor")
	rootCmd.PersistentPreRunE = preRun(b, &configFile)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(mockServiceCommands(b))
	rootCmd.AddCommand(runCommands(b))

	return &Batchproc{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Batchproc) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
