// Package memory is an in-process implementation of store.Store.
//
// Transactions are serialized behind a single lock and run against a copy of
// the data set that replaces the committed copy only when the callback
// succeeds. Store-level reads must not be called from inside a transaction
// callback; use the Tx instead.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

type pairKey struct {
	jobID       int64
	candidateID string
}

type state struct {
	accounts      map[string]domain.Account
	jobs          map[int64]domain.Job
	applications  map[int64]domain.Application
	notifications map[int64]domain.Notification
	dedupe        map[string]int64
	pairs         map[pairKey]int64

	nextJobID          int64
	nextApplicationID  int64
	nextNotificationID int64
}

func newState() *state {
	return &state{
		accounts:      make(map[string]domain.Account),
		jobs:          make(map[int64]domain.Job),
		applications:  make(map[int64]domain.Application),
		notifications: make(map[int64]domain.Notification),
		dedupe:        make(map[string]int64),
		pairs:         make(map[pairKey]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:           make(map[string]domain.Account, len(s.accounts)),
		jobs:               make(map[int64]domain.Job, len(s.jobs)),
		applications:       make(map[int64]domain.Application, len(s.applications)),
		notifications:      make(map[int64]domain.Notification, len(s.notifications)),
		dedupe:             make(map[string]int64, len(s.dedupe)),
		pairs:              make(map[pairKey]int64, len(s.pairs)),
		nextJobID:          s.nextJobID,
		nextApplicationID:  s.nextApplicationID,
		nextNotificationID: s.nextNotificationID,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.dedupe {
		c.dedupe[k] = v
	}
	for k, v := range s.pairs {
		c.pairs[k] = v
	}
	return c
}

func copyApplication(app domain.Application) *domain.Application {
	app.StatusHistory = append([]domain.StatusChange(nil), app.StatusHistory...)
	return &app
}

func copyJob(job domain.Job) *domain.Job {
	job.Subjects = append(domain.Skills{}, job.Subjects...)
	return &job
}

func (s *state) getAccount(id string) (*domain.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &acc, nil
}

func (s *state) getJob(id int64) (*domain.Job, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(job), nil
}

func (s *state) getApplication(id int64) (*domain.Application, error) {
	app, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyApplication(app), nil
}

func (s *state) findApplication(jobID int64, candidateID string) (*domain.Application, error) {
	id, ok := s.pairs[pairKey{jobID: jobID, candidateID: candidateID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.getApplication(id)
}

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) Transactionally(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}

	s.st = work
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getAccount(id)
}

func (s *Store) GetJob(_ context.Context, id int64) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getJob(id)
}

func (s *Store) GetApplication(_ context.Context, id int64) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getApplication(id)
}

func (s *Store) FindApplication(_ context.Context, jobID int64, candidateID string) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.findApplication(jobID, candidateID)
}

func (s *Store) CreateAccount(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.st.accounts[acc.ID]; ok {
		return &existing, nil
	}

	created := *acc
	created.Version = 1
	s.st.accounts[acc.ID] = created
	return &created, nil
}

func (s *Store) ListJobsByInstitute(_ context.Context, instituteID string) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0)
	for _, job := range s.st.jobs {
		if job.InstituteID == instituteID {
			jobs = append(jobs, copyJob(job))
		}
	}
	sortJobs(jobs)
	return jobs, nil
}

func (s *Store) ListActiveJobs(_ context.Context, limit int) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0)
	for _, job := range s.st.jobs {
		if job.Status == domain.JobStatusActive {
			jobs = append(jobs, copyJob(job))
		}
	}
	sortJobs(jobs)
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *Store) listApplications(match func(domain.Application) bool) []*domain.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := make([]*domain.Application, 0)
	for _, app := range s.st.applications {
		if match(app) {
			apps = append(apps, copyApplication(app))
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
	return apps
}

func (s *Store) ListApplicationsByCandidate(_ context.Context, candidateID string) ([]*domain.Application, error) {
	return s.listApplications(func(app domain.Application) bool { return app.CandidateID == candidateID }), nil
}

func (s *Store) ListApplicationsByInstitute(_ context.Context, instituteID string) ([]*domain.Application, error) {
	return s.listApplications(func(app domain.Application) bool { return app.InstituteID == instituteID }), nil
}

func (s *Store) ListApplicationsByJob(_ context.Context, jobID int64) ([]*domain.Application, error) {
	return s.listApplications(func(app domain.Application) bool { return app.JobID == jobID }), nil
}

func (s *Store) ListNotifications(_ context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]*domain.Notification, 0)
	for _, n := range s.st.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		n := n
		notifications = append(notifications, &n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].ID > notifications[j].ID
	})
	return notifications, nil
}

func (s *Store) CountUnreadNotifications(_ context.Context, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.st.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func sortJobs(jobs []*domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
