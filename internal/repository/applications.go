package repository

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

const applicationsJobCandidateKey = "applications_job_id_candidate_id_key"

// The history is aggregated into a JSON array so one statement loads the
// application together with its ordered status changes.
const applicationColumns = `
	a.id, a.job_id, a.candidate_id, a.institute_id, a.status, a.cover_letter, a.applied_at, a.updated_at, a.version,
	COALESCE((
		SELECT json_agg(json_build_object('status', h.status, 'changedBy', h.changed_by, 'timestamp', h.changed_at) ORDER BY h.id)
		FROM application_status_history h
		WHERE h.application_id = a.id
	), '[]')
`

func scanApplication(row scanner) (*domain.Application, error) {
	var (
		app     domain.Application
		history []byte
	)
	dst := []any{
		&app.ID,
		&app.JobID,
		&app.CandidateID,
		&app.InstituteID,
		&app.Status,
		&app.CoverLetter,
		&app.AppliedAt,
		&app.UpdatedAt,
		&app.Version,
		&history,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(history, &app.StatusHistory); err != nil {
		return nil, errors.Wrapf(err, "decode status history of application %d", app.ID)
	}
	return &app, nil
}

func getApplication(ctx context.Context, q querier, id int64) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.id = $1`

	app, err := scanApplication(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return app, nil
}

func findApplication(ctx context.Context, q querier, jobID int64, candidateID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE a.job_id = $1 AND a.candidate_id = $2`

	app, err := scanApplication(q.QueryRowContext(ctx, query, jobID, candidateID))
	if err != nil {
		return nil, notFound(err)
	}
	return app, nil
}

func (r *Repository) listApplications(ctx context.Context, where string, arg any) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications a WHERE ` + where + ` ORDER BY a.applied_at DESC, a.id DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *Repository) ListApplicationsByCandidate(ctx context.Context, candidateID string) ([]*domain.Application, error) {
	return r.listApplications(ctx, `a.candidate_id = $1`, candidateID)
}

func (r *Repository) ListApplicationsByInstitute(ctx context.Context, instituteID string) ([]*domain.Application, error) {
	return r.listApplications(ctx, `a.institute_id = $1`, instituteID)
}

func (r *Repository) ListApplicationsByJob(ctx context.Context, jobID int64) ([]*domain.Application, error) {
	return r.listApplications(ctx, `a.job_id = $1`, jobID)
}

func insertStatusChange(ctx context.Context, q querier, applicationID int64, change domain.StatusChange) error {
	query := `
		INSERT INTO application_status_history (application_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.ExecContext(ctx, query, applicationID, string(change.Status), change.ChangedBy, change.Timestamp); err != nil {
		return errors.Wrapf(err, "record status %s of application %d", change.Status, applicationID)
	}
	return nil
}

func (t *pgTx) InsertApplication(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (
			job_id,
			candidate_id,
			institute_id,
			status,
			cover_letter,
			applied_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version
	`

	params := []any{
		app.JobID,
		app.CandidateID,
		app.InstituteID,
		string(app.Status),
		app.CoverLetter,
		app.AppliedAt,
		app.UpdatedAt,
	}
	if err := t.tx.QueryRowContext(ctx, query, params...).Scan(&app.ID, &app.Version); err != nil {
		if violatesConstraint(err, applicationsJobCandidateKey) {
			return domain.ErrDuplicateApplication
		}
		return err
	}

	for _, change := range app.StatusHistory {
		if err := insertStatusChange(ctx, t.tx, app.ID, change); err != nil {
			return err
		}
	}

	return nil
}

func (t *pgTx) UpdateApplicationStatus(ctx context.Context, app *domain.Application, change domain.StatusChange) error {
	query := `
		UPDATE applications
		SET
			status = $1,
			updated_at = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	params := []any{string(change.Status), change.Timestamp, app.ID, app.Version}
	if err := t.tx.QueryRowContext(ctx, query, params...).Scan(&app.Version); err != nil {
		return staleVersion(err)
	}

	if err := insertStatusChange(ctx, t.tx, app.ID, change); err != nil {
		return err
	}

	app.Status = change.Status
	app.UpdatedAt = change.Timestamp
	app.StatusHistory = append(app.StatusHistory, change)
	return nil
}

func (t *pgTx) DeleteApplication(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
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
