package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Upsert writes the latest snapshot of a job at its position in the campaign.
func (r *JobRepositoryPG) Upsert(ctx context.Context, campaignID string, position int, job domain.GenerationJob) error {
	params, err := json.Marshal(job.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertGenerationJob,
		job.ID,
		campaignID,
		position,
		string(job.Type),
		string(job.Status),
		job.Prompt,
		params,
		job.Progress,
		job.RetryCount,
		job.MaxRetries,
		job.ResultURL,
		job.ErrorMessage,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

// ListByCampaign returns the jobs of a campaign in position order.
func (r *JobRepositoryPG) ListByCampaign(ctx context.Context, campaignID string) ([]domain.GenerationJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListGenerationJobs, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		var (
			job         domain.GenerationJob
			jobType     string
			status      string
			params      []byte
			startedAt   *time.Time
			completedAt *time.Time
		)
		if err := rows.Scan(
			&job.ID,
			&jobType,
			&status,
			&job.Prompt,
			&params,
			&job.Progress,
			&job.RetryCount,
			&job.MaxRetries,
			&job.ResultURL,
			&job.ErrorMessage,
			&job.CreatedAt,
			&startedAt,
			&completedAt,
		); err != nil {
			return nil, err
		}
		job.Type = domain.JobType(jobType)
		job.Status = domain.JobStatus(status)
		job.StartedAt = startedAt
		job.CompletedAt = completedAt
		if len(params) > 0 {
			if err := json.Unmarshal(params, &job.Parameters); err != nil {
				return nil, fmt.Errorf("decode parameters of job %s: %w", job.ID, err)
			}
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
