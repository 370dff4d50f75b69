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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "8080"

	DefaultChunkSize = 100
	DefaultGridSize  = 10
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Port string `json:"port" envconfig:"BATCHPROC_SERVER_PORT"`
}

type BatchConfig struct {
	InputFile  string `json:"input_file" envconfig:"BATCHPROC_INPUT_FILE"`
	OutputFile string `json:"output_file" envconfig:"BATCHPROC_OUTPUT_FILE"`
	ChunkSize  int    `json:"chunk_size" envconfig:"BATCHPROC_CHUNK_SIZE"`
	GridSize   int    `json:"grid_size" envconfig:"BATCHPROC_GRID_SIZE"`
}

type ServiceEndpoint struct {
	BaseURL   string `json:"base_url"`
	TimeoutMs int    `json:"timeout_ms"`
}

// Timeout returns the endpoint's HTTP timeout. Zero means no timeout.
func (s ServiceEndpoint) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

type DownstreamConfig struct {
	ConfigService            ServiceEndpoint `json:"config_service" envconfig:"BATCHPROC_CONFIG_SERVICE"`
	AccountValidationService ServiceEndpoint `json:"account_validation_service" envconfig:"BATCHPROC_ACCOUNT_VALIDATION_SERVICE"`
}

// SemaphoreBulkheadConfig bounds concurrent inline calls to one downstream.
type SemaphoreBulkheadConfig struct {
	MaxConcurrentCalls int `json:"max_concurrent_calls"`
	MaxWaitMs          int `json:"max_wait_ms"`
}

func (s SemaphoreBulkheadConfig) MaxWait() time.Duration {
	return time.Duration(s.MaxWaitMs) * time.Millisecond
}

// PoolBulkheadConfig bounds the dedicated worker pool that runs the
// account-validation bulk calls.
type PoolBulkheadConfig struct {
	CorePoolSize  int `json:"core_pool_size"`
	MaxPoolSize   int `json:"max_pool_size"`
	QueueCapacity int `json:"queue_capacity"`
	KeepAliveMs   int `json:"keep_alive_ms"`
}

func (p PoolBulkheadConfig) KeepAlive() time.Duration {
	return time.Duration(p.KeepAliveMs) * time.Millisecond
}

type BulkheadConfig struct {
	ConfigService     SemaphoreBulkheadConfig `json:"config_service"`
	AccountValidation SemaphoreBulkheadConfig `json:"account_validation"`
	AccountPool       PoolBulkheadConfig      `json:"account_pool"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"BATCHPROC_DATA_SOURCE_DNS"`
}

type MockServicesConfig struct {
	ConfigPort  string `json:"config_port" envconfig:"BATCHPROC_MOCK_CONFIG_PORT"`
	AccountPort string `json:"account_port" envconfig:"BATCHPROC_MOCK_ACCOUNT_PORT"`
	LatencyMs   int    `json:"latency_ms" envconfig:"BATCHPROC_MOCK_LATENCY_MS"`
}

type Configuration struct {
	ProjectName  string             `json:"project_name" envconfig:"BATCHPROC_PROJECT_NAME"`
	Server       ServerConfig       `json:"server"`
	Batch        BatchConfig        `json:"batch"`
	Downstream   DownstreamConfig   `json:"downstream"`
	Bulkhead     BulkheadConfig     `json:"bulkhead"`
	DataSource   DataSourceConfig   `json:"data_source"`
	MockServices MockServicesConfig `json:"mock_services"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("batchproc", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called batchproc.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Batchproc Server"
	}

	if cnf.Batch.InputFile == "" {
		log.Println("Error: Batch input file is empty. It's a required field.")
		return errors.New("batch input file is required")
	}

	if cnf.Batch.OutputFile == "" {
		log.Println("Error: Batch output file is empty. It's a required field.")
		return errors.New("batch output file is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Batch.InputFile = strings.TrimSpace(cnf.Batch.InputFile)
	cnf.Batch.OutputFile = strings.TrimSpace(cnf.Batch.OutputFile)
	cnf.Downstream.ConfigService.BaseURL = strings.TrimSpace(cnf.Downstream.ConfigService.BaseURL)
	cnf.Downstream.AccountValidationService.BaseURL = strings.TrimSpace(cnf.Downstream.AccountValidationService.BaseURL)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Batch.ChunkSize <= 0 {
		cnf.Batch.ChunkSize = DefaultChunkSize
	}
	if cnf.Batch.GridSize <= 0 {
		cnf.Batch.GridSize = DefaultGridSize
	}

	cnf.Bulkhead.applyDefaults()

	if cnf.MockServices.ConfigPort == "" {
		cnf.MockServices.ConfigPort = "8081"
	}
	if cnf.MockServices.AccountPort == "" {
		cnf.MockServices.AccountPort = "8082"
	}

	return nil
}

// applyDefaults mirrors the resilience settings the downstream contract was
// sized for: 20 permits with a 500ms bounded wait on each semaphore
// bulkhead, and a 10..20 worker pool with a queue of 200 for the
// account-validation pool.
func (b *BulkheadConfig) applyDefaults() {
	if b.ConfigService.MaxConcurrentCalls <= 0 {
		b.ConfigService.MaxConcurrentCalls = 20
	}
	if b.ConfigService.MaxWaitMs <= 0 {
		b.ConfigService.MaxWaitMs = 500
	}
	if b.AccountValidation.MaxConcurrentCalls <= 0 {
		b.AccountValidation.MaxConcurrentCalls = 20
	}
	if b.AccountValidation.MaxWaitMs <= 0 {
		b.AccountValidation.MaxWaitMs = 500
	}
	if b.AccountPool.CorePoolSize <= 0 {
		b.AccountPool.CorePoolSize = 10
	}
	if b.AccountPool.MaxPoolSize <= 0 {
		b.AccountPool.MaxPoolSize = 20
	}
	if b.AccountPool.MaxPoolSize < b.AccountPool.CorePoolSize {
		b.AccountPool.MaxPoolSize = b.AccountPool.CorePoolSize
	}
	if b.AccountPool.QueueCapacity <= 0 {
		b.AccountPool.QueueCapacity = 200
	}
	if b.AccountPool.KeepAliveMs <= 0 {
		b.AccountPool.KeepAliveMs = 20
	}
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.Bulkhead.applyDefaults()
	if mockConfig.Batch.ChunkSize <= 0 {
		mockConfig.Batch.ChunkSize = DefaultChunkSize
	}
	if mockConfig.Batch.GridSize <= 0 {
		mockConfig.Batch.GridSize = DefaultGridSize
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
