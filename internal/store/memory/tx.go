package memory

import (
	"context"

	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

type tx struct {
	st *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	return t.st.getAccount(id)
}

// GetAccountForUpdate needs no row lock: the whole transaction holds the store lock.
func (t *tx) GetAccountForUpdate(_ context.Context, id string) (*domain.Account, error) {
	return t.st.getAccount(id)
}

func (t *tx) UpdateAccountEntitlement(_ context.Context, acc *domain.Account) error {
	stored, ok := t.st.accounts[acc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != acc.Version {
		return domain.ErrConflict
	}

	stored.EntitlementTier = acc.EntitlementTier
	stored.QuotaUsed = acc.QuotaUsed
	stored.QuotaLimit = acc.QuotaLimit
	stored.QuotaResetAt = acc.QuotaResetAt
	stored.Version++
	t.st.accounts[acc.ID] = stored

	acc.Version = stored.Version
	return nil
}

func (t *tx) SetResumePath(_ context.Context, accountID, path string) error {
	stored, ok := t.st.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.ResumePath = path
	stored.Version++
	t.st.accounts[accountID] = stored
	return nil
}

func (t *tx) GetJob(_ context.Context, id int64) (*domain.Job, error) {
	return t.st.getJob(id)
}

func (t *tx) GetJobForUpdate(_ context.Context, id int64) (*domain.Job, error) {
	return t.st.getJob(id)
}

func (t *tx) InsertJob(_ context.Context, job *domain.Job) error {
	t.st.nextJobID++
	job.ID = t.st.nextJobID
	job.Version = 1
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	t.st.jobs[job.ID] = *copyJob(*job)
	return nil
}

func (t *tx) UpdateJobStatus(_ context.Context, job *domain.Job) error {
	stored, ok := t.st.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != job.Version {
		return domain.ErrConflict
	}

	stored.Status = job.Status
	stored.UpdatedAt = job.UpdatedAt
	stored.Version++
	t.st.jobs[job.ID] = stored

	job.Version = stored.Version
	job.ApplicationCount = stored.ApplicationCount
	return nil
}

func (t *tx) AdjustJobApplicationCount(_ context.Context, jobID int64, delta int) error {
	stored, ok := t.st.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.ApplicationCount += delta
	t.st.jobs[jobID] = stored
	return nil
}

func (t *tx) GetApplication(_ context.Context, id int64) (*domain.Application, error) {
	return t.st.getApplication(id)
}

func (t *tx) FindApplication(_ context.Context, jobID int64, candidateID string) (*domain.Application, error) {
	return t.st.findApplication(jobID, candidateID)
}

func (t *tx) InsertApplication(_ context.Context, app *domain.Application) error {
	key := pairKey{jobID: app.JobID, candidateID: app.CandidateID}
	if _, exists := t.st.pairs[key]; exists {
		return domain.ErrDuplicateApplication
	}

	t.st.nextApplicationID++
	app.ID = t.st.nextApplicationID
	app.Version = 1
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = app.AppliedAt
	}
	t.st.applications[app.ID] = *copyApplication(*app)
	t.st.pairs[key] = app.ID
	return nil
}

func (t *tx) UpdateApplicationStatus(_ context.Context, app *domain.Application, change domain.StatusChange) error {
	stored, ok := t.st.applications[app.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != app.Version {
		return domain.ErrConflict
	}

	history := make([]domain.StatusChange, 0, len(stored.StatusHistory)+1)
	history = append(history, stored.StatusHistory...)
	history = append(history, change)

	stored.Status = change.Status
	stored.StatusHistory = history
	stored.UpdatedAt = change.Timestamp
	stored.Version++
	t.st.applications[app.ID] = stored

	*app = *copyApplication(stored)
	return nil
}

func (t *tx) DeleteApplication(_ context.Context, id int64) error {
	stored, ok := t.st.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(t.st.applications, id)
	delete(t.st.pairs, pairKey{jobID: stored.JobID, candidateID: stored.CandidateID})
	return nil
}

func (t *tx) InsertNotification(_ context.Context, n *domain.Notification) (bool, error) {
	if _, exists := t.st.dedupe[n.DedupeKey]; exists {
		return false, nil
	}

	t.st.nextNotificationID++
	n.ID = t.st.nextNotificationID
	t.st.notifications[n.ID] = *n
	t.st.dedupe[n.DedupeKey] = n.ID
	return true, nil
}

func (t *tx) MarkNotificationRead(_ context.Context, id int64, recipientID string) (*domain.Notification, error) {
	stored, ok := t.st.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if stored.RecipientID != recipientID {
		return nil, domain.ErrNotAuthorized
	}
	stored.Read = true
	t.st.notifications[id] = stored
	return &stored, nil
}
