package repository

import (
	"context"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

const jobColumns = `id, institute_id, title, description, subjects, status, application_count, created_at, updated_at, version`

func scanJob(row scanner) (*domain.Job, error) {
	var job domain.Job
	dst := []any{
		&job.ID,
		&job.InstituteID,
		&job.Title,
		&job.Description,
		&job.Subjects,
		&job.Status,
		&job.ApplicationCount,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return &job, nil
}

func getJob(ctx context.Context, q querier, id int64, forUpdate bool) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	job, err := scanJob(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return job, nil
}

func (r *Repository) listJobs(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *Repository) ListJobsByInstitute(ctx context.Context, instituteID string) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE institute_id = $1 ORDER BY created_at DESC, id DESC`
	return r.listJobs(ctx, query, instituteID)
}

func (r *Repository) ListActiveJobs(ctx context.Context, limit int) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = 'active' ORDER BY created_at DESC, id DESC`
	if limit <= 0 {
		return r.listJobs(ctx, query)
	}
	return r.listJobs(ctx, query+` LIMIT $1`, limit)
}

func (t *pgTx) InsertJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			institute_id,
			title,
			description,
			subjects,
			status,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, application_count, version
	`

	params := []any{
		job.InstituteID,
		job.Title,
		job.Description,
		job.Subjects,
		string(job.Status),
		job.CreatedAt,
		job.UpdatedAt,
	}
	dst := []any{&job.ID, &job.ApplicationCount, &job.Version}
	return t.tx.QueryRowContext(ctx, query, params...).Scan(dst...)
}

func (t *pgTx) UpdateJobStatus(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET
			status = $1,
			updated_at = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING application_count, version
	`

	params := []any{string(job.Status), job.UpdatedAt, job.ID, job.Version}
	if err := t.tx.QueryRowContext(ctx, query, params...).Scan(&job.ApplicationCount, &job.Version); err != nil {
		return staleVersion(err)
	}

	return nil
}

func (t *pgTx) AdjustJobApplicationCount(ctx context.Context, jobID int64, delta int) error {
	query := `UPDATE jobs SET application_count = application_count + $1 WHERE id = $2`

	res, err := t.tx.ExecContext(ctx, query, delta, jobID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}

	return nil
}
