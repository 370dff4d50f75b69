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
package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StartJob is the request body of POST /api/v1/batch/start. InputFile
// overrides the configured default when present.
type StartJob struct {
	InputFile string `json:"input_file"`
}

func (s *StartJob) ValidateStartJob() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.InputFile, validation.By(func(value interface{}) error {
			path, _ := value.(string)
			if path != "" && strings.TrimSpace(path) == "" {
				return validation.NewError("validation_blank", "input_file must not be blank")
			}
			return nil
		})),
	)
}

// StartJobResponse echoes the accepted job.
type StartJobResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	InputFile string `json:"input_file"`
	StartTime string `json:"start_time"`
}
