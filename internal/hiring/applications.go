package hiring

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

const maxCoverLetterLength = 5000

// Apply creates the candidate's application to an active job. The quota
// consumption, the insert and the job counter update commit together.
func (e *Engine) Apply(ctx context.Context, jobID int64, candidateID, coverLetter string) (*domain.Application, error) {
	if candidateID == "" {
		return nil, domain.Validationf("candidate id is required")
	}
	if len(coverLetter) > maxCoverLetterLength {
		return nil, domain.Validationf("cover letter exceeds %d characters", maxCoverLetterLength)
	}

	var app *domain.Application
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		job, err := tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return errors.Wrapf(err, "load job %d", jobID)
		}

		// (jobId, candidateId) is unique; the store constraint backs this check
		if _, err := tx.FindApplication(ctx, jobID, candidateID); err == nil {
			return domain.ErrDuplicateApplication
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if job.Status != domain.JobStatusActive {
			return errors.Wrapf(domain.ErrJobNotActive, "job %d is %s", jobID, job.Status)
		}

		_, decision, err := e.checkAndConsume(ctx, tx, candidateID, domain.ActionSubmitApplication)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return decision.Err()
		}

		now := e.clock()
		app = &domain.Application{
			JobID:       jobID,
			CandidateID: candidateID,
			InstituteID: job.InstituteID,
			Status:      domain.StatusApplied,
			StatusHistory: []domain.StatusChange{
				{Status: domain.StatusApplied, ChangedBy: candidateID, Timestamp: now},
			},
			CoverLetter: coverLetter,
			AppliedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertApplication(ctx, app); err != nil {
			return err
		}

		return tx.AdjustJobApplicationCount(ctx, jobID, 1)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateStats(ctx, app.CandidateID, app.InstituteID)
	return app, nil
}

type TransitionRequest struct {
	ApplicationID int64
	To            domain.ApplicationStatus
	ActorID       string
	// ExpectedVersion is the version the actor based the decision on. Zero
	// means "whatever is current", which enables bounded automatic retries.
	ExpectedVersion int32
}

// Transition moves an application along the status graph on behalf of the
// owning institute and dispatches the candidate notification.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (*domain.Application, error) {
	if !req.To.Valid() {
		return nil, domain.Validationf("unknown status %q", req.To)
	}

	attempts := 1
	if req.ExpectedVersion == 0 {
		attempts += e.opts.MaxConflictRetries
	}

	var (
		app          *domain.Application
		notification *domain.Notification
		err          error
	)
	for i := 0; i < attempts; i++ {
		app, notification, err = e.transitionOnce(ctx, req)
		if !errors.Is(err, domain.ErrConflict) || i == attempts-1 {
			break
		}
		e.logger.Debug("transition conflict, retrying", "application", req.ApplicationID, "attempt", i+1)
	}
	if err != nil {
		return nil, err
	}

	e.invalidateStats(ctx, app.CandidateID, app.InstituteID)
	if notification != nil {
		e.queueStatusMail(ctx, notification)
	}
	return app, nil
}

func (e *Engine) transitionOnce(ctx context.Context, req TransitionRequest) (*domain.Application, *domain.Notification, error) {
	var (
		app          *domain.Application
		notification *domain.Notification
	)
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		app, err = tx.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			return errors.Wrapf(err, "load application %d", req.ApplicationID)
		}
		if app.InstituteID != req.ActorID {
			return domain.ErrNotAuthorized
		}
		if req.ExpectedVersion != 0 && app.Version != req.ExpectedVersion {
			return errors.Wrapf(domain.ErrConflict, "application %d is at version %d, not %d", app.ID, app.Version, req.ExpectedVersion)
		}
		if !app.Status.CanTransitionTo(req.To) {
			return errors.Wrapf(domain.ErrInvalidTransition, "application %d from %s to %s", app.ID, app.Status, req.To)
		}

		change := domain.StatusChange{Status: req.To, ChangedBy: req.ActorID, Timestamp: e.clock()}
		if err := tx.UpdateApplicationStatus(ctx, app, change); err != nil {
			return err
		}

		notification, _, err = e.dispatch(ctx, tx, app.CandidateID, app.ID, req.To)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return app, notification, nil
}

// Withdraw deletes the candidate's own application. Consumed quota is not refunded.
func (e *Engine) Withdraw(ctx context.Context, applicationID int64, candidateID string) error {
	var app *domain.Application
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		app, err = tx.GetApplication(ctx, applicationID)
		if err != nil {
			return errors.Wrapf(err, "load application %d", applicationID)
		}
		if app.CandidateID != candidateID {
			return domain.ErrNotAuthorized
		}
		if err := tx.DeleteApplication(ctx, applicationID); err != nil {
			return err
		}
		return tx.AdjustJobApplicationCount(ctx, app.JobID, -1)
	})
	if err != nil {
		return err
	}

	e.invalidateStats(ctx, app.CandidateID, app.InstituteID)
	return nil
}

// GetApplicationView returns the application with its display context to the
// candidate or the owning institute.
func (e *Engine) GetApplicationView(ctx context.Context, applicationID int64, actorID string) (*domain.ApplicationView, error) {
	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, errors.Wrapf(err, "load application %d", applicationID)
	}
	if actorID != app.CandidateID && actorID != app.InstituteID {
		return nil, domain.ErrNotAuthorized
	}

	url, err := e.files.ResumeURL(ctx, app.CandidateID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve resume of %s", app.CandidateID)
	}

	return &domain.ApplicationView{Application: app, ResumeURL: url}, nil
}

func (e *Engine) ListCandidateApplications(ctx context.Context, candidateID string) ([]*domain.Application, error) {
	return e.store.ListApplicationsByCandidate(ctx, candidateID)
}

func (e *Engine) ListInstituteApplications(ctx context.Context, instituteID string) ([]*domain.Application, error) {
	return e.store.ListApplicationsByInstitute(ctx, instituteID)
}

// ListJobApplications returns the applications of a job to its owner.
func (e *Engine) ListJobApplications(ctx context.Context, jobID int64, actorID string) ([]*domain.Application, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.InstituteID != actorID {
		return nil, domain.ErrNotAuthorized
	}
	return e.store.ListApplicationsByJob(ctx, jobID)
}
