package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schedkit/schedkit/pkg/scheduler"
	"github.com/schedkit/schedkit/pkg/targeting"
)

// Postgres implements the scheduler and targeting repository interfaces on a
// pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an established pool. The caller owns the pool lifecycle.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// --- scheduler.Repository ---

func (p *Postgres) CreateJob(ctx context.Context, rec *scheduler.JobRecord) error {
	const q = `
		INSERT INTO scheduled_jobs (
			id, name, job_key, job_type, display_name, description,
			schedule, timezone, enabled, config, last_run_at, next_run_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := p.pool.Exec(ctx, q,
		rec.ID, rec.Name, rec.JobKey, rec.JobType, rec.DisplayName, rec.Description,
		rec.Schedule, rec.Timezone, rec.Enabled, rec.Config, rec.LastRunAt, rec.NextRunAt,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("job %q: %w", rec.Name, ErrDuplicateName)
		}
		return fmt.Errorf("create job %q: %w", rec.Name, err)
	}
	return nil
}

func (p *Postgres) GetJobByName(ctx context.Context, name string) (*scheduler.JobRecord, error) {
	const q = `
		SELECT id, name, job_key, job_type, display_name, description,
			schedule, timezone, enabled, config, last_run_at, next_run_at,
			created_at, updated_at
		FROM scheduled_jobs WHERE name = $1`
	rec := &scheduler.JobRecord{}
	err := p.pool.QueryRow(ctx, q, name).Scan(
		&rec.ID, &rec.Name, &rec.JobKey, &rec.JobType, &rec.DisplayName, &rec.Description,
		&rec.Schedule, &rec.Timezone, &rec.Enabled, &rec.Config, &rec.LastRunAt, &rec.NextRunAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("job %q: %w", name, scheduler.ErrJobNotFound)
		}
		return nil, fmt.Errorf("get job %q: %w", name, err)
	}
	return rec, nil
}

func (p *Postgres) ListJobs(ctx context.Context) ([]*scheduler.JobRecord, error) {
	const q = `
		SELECT id, name, job_key, job_type, display_name, description,
			schedule, timezone, enabled, config, last_run_at, next_run_at,
			created_at, updated_at
		FROM scheduled_jobs ORDER BY name`
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*scheduler.JobRecord
	for rows.Next() {
		rec := &scheduler.JobRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Name, &rec.JobKey, &rec.JobType, &rec.DisplayName, &rec.Description,
			&rec.Schedule, &rec.Timezone, &rec.Enabled, &rec.Config, &rec.LastRunAt, &rec.NextRunAt,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

func (p *Postgres) UpdateJob(ctx context.Context, rec *scheduler.JobRecord) error {
	const q = `
		UPDATE scheduled_jobs SET
			job_key = $2, job_type = $3, display_name = $4, description = $5,
			schedule = $6, timezone = $7, enabled = $8, config = $9,
			last_run_at = $10, next_run_at = $11, updated_at = $12
		WHERE id = $1`
	tag, err := p.pool.Exec(ctx, q,
		rec.ID, rec.JobKey, rec.JobType, rec.DisplayName, rec.Description,
		rec.Schedule, rec.Timezone, rec.Enabled, rec.Config,
		rec.LastRunAt, rec.NextRunAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update job %q: %w", rec.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %q: %w", rec.Name, scheduler.ErrJobNotFound)
	}
	return nil
}

func (p *Postgres) CreateExecution(ctx context.Context, exec *scheduler.Execution) error {
	const q = `
		INSERT INTO job_executions (
			id, job_id, status, started_at, completed_at, duration_ms,
			result, users_affected, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := p.pool.Exec(ctx, q,
		exec.ID, exec.JobID, exec.Status, exec.StartedAt, exec.CompletedAt, exec.DurationMS,
		exec.Result, exec.UsersAffected, exec.Error,
	)
	if err != nil {
		return fmt.Errorf("create execution %s: %w", exec.ID, err)
	}
	return nil
}

func (p *Postgres) GetExecution(ctx context.Context, id uuid.UUID) (*scheduler.Execution, error) {
	const q = `
		SELECT id, job_id, status, started_at, completed_at, duration_ms,
			result, users_affected, error
		FROM job_executions WHERE id = $1`
	exec := &scheduler.Execution{}
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&exec.ID, &exec.JobID, &exec.Status, &exec.StartedAt, &exec.CompletedAt, &exec.DurationMS,
		&exec.Result, &exec.UsersAffected, &exec.Error,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("execution %s: %w", id, scheduler.ErrExecutionNotFound)
		}
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return exec, nil
}

func (p *Postgres) UpdateExecution(ctx context.Context, exec *scheduler.Execution) error {
	const q = `
		UPDATE job_executions SET
			status = $2, completed_at = $3, duration_ms = $4,
			result = $5, users_affected = $6, error = $7
		WHERE id = $1`
	tag, err := p.pool.Exec(ctx, q,
		exec.ID, exec.Status, exec.CompletedAt, exec.DurationMS,
		exec.Result, exec.UsersAffected, exec.Error,
	)
	if err != nil {
		return fmt.Errorf("update execution %s: %w", exec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("execution %s: %w", exec.ID, scheduler.ErrExecutionNotFound)
	}
	return nil
}

// --- targeting.RuleRepository ---

func (p *Postgres) ListTargetUsers(ctx context.Context, jobID uuid.UUID, mode targeting.Mode) ([]int64, error) {
	const q = `SELECT user_id FROM job_target_users WHERE job_id = $1 AND mode = $2`
	return p.listInt64(ctx, q, jobID, string(mode))
}

func (p *Postgres) ListTargetPacks(ctx context.Context, jobID uuid.UUID) ([]string, error) {
	const q = `SELECT pack_id FROM job_target_packs WHERE job_id = $1`
	rows, err := p.pool.Query(ctx, q, jobID)
	if err != nil {
		return nil, fmt.Errorf("list target packs: %w", err)
	}
	defer rows.Close()

	var packs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pack id: %w", err)
		}
		packs = append(packs, id)
	}
	return packs, rows.Err()
}

// --- targeting.Directory ---

func (p *Postgres) ListUserIDs(ctx context.Context) ([]int64, error) {
	return p.listInt64(ctx, `SELECT id FROM users`)
}

func (p *Postgres) ListPackMembers(ctx context.Context, packID string) ([]int64, error) {
	return p.listInt64(ctx, `SELECT user_id FROM pack_members WHERE pack_id = $1`, packID)
}

func (p *Postgres) listInt64(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
