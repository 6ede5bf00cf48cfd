// Package store declares the persistence contracts the hiring engine runs against.
//
// Implementations must translate missing rows to domain.ErrNotFound, failed
// version checks to domain.ErrConflict and (jobId, candidateId) uniqueness
// violations to domain.ErrDuplicateApplication.
package store

import (
	"context"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

// Reader holds the read operations available both inside and outside a transaction.
type Reader interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetJob(ctx context.Context, id int64) (*domain.Job, error)
	GetApplication(ctx context.Context, id int64) (*domain.Application, error)
	FindApplication(ctx context.Context, jobID int64, candidateID string) (*domain.Application, error)
}

// Tx is a unit of work. Changes become visible only when the surrounding
// Transactionally call returns nil.
type Tx interface {
	Reader

	// GetAccountForUpdate locks the account row until the transaction ends.
	GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error)
	// UpdateAccountEntitlement persists tier and quota fields if acc.Version
	// still matches, and bumps acc.Version.
	UpdateAccountEntitlement(ctx context.Context, acc *domain.Account) error
	SetResumePath(ctx context.Context, accountID, path string) error

	GetJobForUpdate(ctx context.Context, id int64) (*domain.Job, error)
	InsertJob(ctx context.Context, job *domain.Job) error
	// UpdateJobStatus persists job.Status if job.Version still matches.
	UpdateJobStatus(ctx context.Context, job *domain.Job) error
	AdjustJobApplicationCount(ctx context.Context, jobID int64, delta int) error

	InsertApplication(ctx context.Context, app *domain.Application) error
	// UpdateApplicationStatus applies change if app.Version still matches and
	// appends it to the status history.
	UpdateApplicationStatus(ctx context.Context, app *domain.Application, change domain.StatusChange) error
	DeleteApplication(ctx context.Context, id int64) error

	// InsertNotification returns false without error when the dedupe key already exists.
	InsertNotification(ctx context.Context, n *domain.Notification) (bool, error)
	MarkNotificationRead(ctx context.Context, id int64, recipientID string) (*domain.Notification, error)
}

type Store interface {
	Reader

	Transactionally(ctx context.Context, fn func(tx Tx) error) error

	// CreateAccount inserts acc unless an account with the same id exists, in
	// which case the stored account is returned.
	CreateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error)

	ListJobsByInstitute(ctx context.Context, instituteID string) ([]*domain.Job, error)
	ListActiveJobs(ctx context.Context, limit int) ([]*domain.Job, error)

	ListApplicationsByCandidate(ctx context.Context, candidateID string) ([]*domain.Application, error)
	ListApplicationsByInstitute(ctx context.Context, instituteID string) ([]*domain.Application, error)
	ListApplicationsByJob(ctx context.Context, jobID int64) ([]*domain.Application, error)

	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	CountUnreadNotifications(ctx context.Context, recipientID string) (int, error)
}
