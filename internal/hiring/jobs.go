package hiring

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 20000
)

type JobInput struct {
	Title       string
	Description string
	Subjects    []string
	Publish     bool // create directly in the active state
}

func (in JobInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Validationf("job title is required")
	}
	if len(title) > maxTitleLength {
		return domain.Validationf("job title exceeds %d characters", maxTitleLength)
	}
	if len(in.Description) > maxDescriptionLength {
		return domain.Validationf("job description exceeds %d characters", maxDescriptionLength)
	}
	return nil
}

// CreateJob posts a job for the institute, consuming one postJob quota unit
// in the same transaction as the insert.
func (e *Engine) CreateJob(ctx context.Context, instituteID string, in JobInput) (*domain.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := e.clock()
	job := &domain.Job{
		InstituteID: instituteID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Subjects:    domain.NormalizeSkills(in.Subjects),
		Status:      domain.JobStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Publish {
		job.Status = domain.JobStatusActive
	}

	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		_, decision, err := e.checkAndConsume(ctx, tx, instituteID, domain.ActionPostJob)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return decision.Err()
		}
		return tx.InsertJob(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateStats(ctx, instituteID)
	return job, nil
}

func (e *Engine) PublishJob(ctx context.Context, jobID int64, actorID string) (*domain.Job, error) {
	return e.changeJobStatus(ctx, jobID, actorID, domain.JobStatusActive)
}

func (e *Engine) CloseJob(ctx context.Context, jobID int64, actorID string) (*domain.Job, error) {
	return e.changeJobStatus(ctx, jobID, actorID, domain.JobStatusClosed)
}

func (e *Engine) changeJobStatus(ctx context.Context, jobID int64, actorID string, to domain.JobStatus) (*domain.Job, error) {
	var job *domain.Job
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		job, err = tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return errors.Wrapf(err, "load job %d", jobID)
		}
		if job.InstituteID != actorID {
			return domain.ErrNotAuthorized
		}
		if !job.Status.CanTransitionTo(to) {
			return errors.Wrapf(domain.ErrInvalidTransition, "job %d from %s to %s", jobID, job.Status, to)
		}

		job.Status = to
		job.UpdatedAt = e.clock()
		return tx.UpdateJobStatus(ctx, job)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateStats(ctx, job.InstituteID)
	return job, nil
}

func (e *Engine) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, errors.Wrapf(err, "load job %d", jobID)
	}
	return job, nil
}

func (e *Engine) ListInstituteJobs(ctx context.Context, instituteID string) ([]*domain.Job, error) {
	return e.store.ListJobsByInstitute(ctx, instituteID)
}

// ListActiveJobs returns open postings, newest first.
func (e *Engine) ListActiveJobs(ctx context.Context) ([]*domain.Job, error) {
	return e.store.ListActiveJobs(ctx, e.opts.ActiveJobsLimit)
}
