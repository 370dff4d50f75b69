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
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	model2 "github.com/kreasipositif/batchproc/api/model"
	"github.com/kreasipositif/batchproc/database"

	"github.com/gin-gonic/gin"
)

// StartJob handles launching a new transaction validation job.
// It binds the incoming JSON request, validates it, creates the job and
// returns immediately with the job in its initial state; callers poll
// GetJobStatus to track progress.
//
// Responses:
// - 400 Bad Request: If there's an error in binding JSON or validating the request.
// - 200 OK: If the job was accepted.
func (a Api) StartJob(c *gin.Context) {
	var newJob model2.StartJob
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&newJob); err != nil {
			logrus.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
	}

	if err := newJob.ValidateStartJob(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	job, err := a.processor.StartJob(c.Request.Context(), newJob.InputFile)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start job: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model2.StartJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		InputFile: job.InputFile,
		StartTime: job.StartTime.Format(time.RFC3339),
	})
}

// GetJobStatus renders the status projection of one job execution.
//
// Responses:
// - 404 Not Found: If no job exists for the id.
// - 200 OK: The projection with aggregate and per-partition counters.
func (a Api) GetJobStatus(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id"})
		return
	}

	status, err := a.processor.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job execution not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}
