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

package database

import (
	"context"
	"database/sql"
	"errors"
	"log"

	_ "github.com/lib/pq"

	"github.com/kreasipositif/batchproc/config"
	"github.com/kreasipositif/batchproc/model"
)

// PostgresStore is the durable JobStore. Per-row writes serialise on the
// database; each worker only touches its own step row so there is no
// contention between partitions.
type PostgresStore struct {
	Conn *sql.DB
}

// NewDataSource connects to the configured postgres instance and ensures
// the bookkeeping tables exist.
func NewDataSource(configuration *config.Configuration) (*PostgresStore, error) {
	db, err := ConnectDB(configuration.DataSource.Dns)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{Conn: db}, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createJobTables(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func createJobTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS batch_jobs (
			job_id TEXT PRIMARY KEY,
			job_name TEXT NOT NULL,
			status TEXT NOT NULL,
			input_file TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS batch_step_executions (
			job_id TEXT NOT NULL REFERENCES batch_jobs(job_id),
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			read_count BIGINT NOT NULL DEFAULT 0,
			write_count BIGINT NOT NULL DEFAULT 0,
			skip_count BIGINT NOT NULL DEFAULT 0,
			filter_count BIGINT NOT NULL DEFAULT 0,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			PRIMARY KEY (job_id, name)
		);
	`)
	return err
}

func (p *PostgresStore) CreateJob(ctx context.Context, job *model.JobExecution) error {
	_, err := p.Conn.ExecContext(ctx, `
		INSERT INTO batch_jobs (job_id, job_name, status, input_file, start_time)
		VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.JobName, job.Status, job.InputFile, job.StartTime)
	return err
}

func (p *PostgresStore) UpdateJob(ctx context.Context, job *model.JobExecution) error {
	endTime := sql.NullTime{Time: job.EndTime, Valid: !job.EndTime.IsZero()}
	result, err := p.Conn.ExecContext(ctx, `
		UPDATE batch_jobs SET status = $2, end_time = $3 WHERE job_id = $1`,
		job.ID, job.Status, endTime)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (p *PostgresStore) GetJob(ctx context.Context, id string) (*model.JobExecution, error) {
	job := &model.JobExecution{}
	var endTime sql.NullTime
	err := p.Conn.QueryRowContext(ctx, `
		SELECT job_id, job_name, status, input_file, start_time, end_time
		FROM batch_jobs WHERE job_id = $1`, id).
		Scan(&job.ID, &job.JobName, &job.Status, &job.InputFile, &job.StartTime, &endTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		job.EndTime = endTime.Time
	}

	rows, err := p.Conn.QueryContext(ctx, `
		SELECT name, status, read_count, write_count, skip_count, filter_count, start_time, end_time
		FROM batch_step_executions WHERE job_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		step := &model.StepExecution{}
		var stepStart, stepEnd sql.NullTime
		if err := rows.Scan(&step.Name, &step.Status, &step.ReadCount, &step.WriteCount,
			&step.SkipCount, &step.FilterCount, &stepStart, &stepEnd); err != nil {
			return nil, err
		}
		if stepStart.Valid {
			step.StartTime = stepStart.Time
		}
		if stepEnd.Valid {
			step.EndTime = stepEnd.Time
		}
		job.StepExecutions = append(job.StepExecutions, step)
	}
	return job, rows.Err()
}

func (p *PostgresStore) UpsertStep(ctx context.Context, jobID string, step *model.StepExecution) error {
	startTime := sql.NullTime{Time: step.StartTime, Valid: !step.StartTime.IsZero()}
	endTime := sql.NullTime{Time: step.EndTime, Valid: !step.EndTime.IsZero()}
	_, err := p.Conn.ExecContext(ctx, `
		INSERT INTO batch_step_executions
			(job_id, name, status, read_count, write_count, skip_count, filter_count, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id, name) DO UPDATE SET
			status = EXCLUDED.status,
			read_count = EXCLUDED.read_count,
			write_count = EXCLUDED.write_count,
			skip_count = EXCLUDED.skip_count,
			filter_count = EXCLUDED.filter_count,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time`,
		jobID, step.Name, step.Status, step.ReadCount, step.WriteCount,
		step.SkipCount, step.FilterCount, startTime, endTime)
	return err
}
