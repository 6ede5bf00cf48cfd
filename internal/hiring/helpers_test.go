package hiring_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/cache"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
	"github.com/teachhire/marketplace/backend/internal/store/memory"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	err      error
}

func (m *recordingMailer) Publish(_ context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []domain.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MailMessage(nil), m.messages...)
}

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	cache  *cache.Memory
	mail   *recordingMailer
	engine *hiring.Engine
	now    time.Time
}

func testOptions() hiring.Options {
	return hiring.Options{
		CandidateFreeQuota: 5,
		InstituteFreeQuota: 2,
		QuotaPeriodMonths:  1,
		MaxConflictRetries: 3,
		ActiveJobsLimit:    50,
		PremiumPlanIDs:     []string{"premium_monthly"},
		ResumeBaseURL:      "https://files.example.com/resumes/",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		cache: cache.NewMemory(time.Hour, time.Hour),
		mail:  &recordingMailer{},
		now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.engine = hiring.New(f.store, testOptions(),
		hiring.WithMailPublisher(f.mail),
		hiring.WithStatsCache(f.cache),
		hiring.WithEventDeduper(f.cache),
		hiring.WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) candidate(t *testing.T, id string) *domain.Account {
	t.Helper()
	acc, err := f.engine.EnsureAccount(f.ctx, id, domain.RoleCandidate, id+"@example.com")
	require.NoError(t, err)
	return acc
}

func (f *fixture) institute(t *testing.T, id string) *domain.Account {
	t.Helper()
	acc, err := f.engine.EnsureAccount(f.ctx, id, domain.RoleInstitute, id+"@example.com")
	require.NoError(t, err)
	return acc
}

func (f *fixture) activeJob(t *testing.T, instituteID string) *domain.Job {
	t.Helper()
	job, err := f.engine.CreateJob(f.ctx, instituteID, hiring.JobInput{Title: "Physics teacher", Publish: true})
	require.NoError(t, err)
	return job
}

// premium lifts the account's quota so tests can create many records.
func (f *fixture) premium(t *testing.T, id string) {
	t.Helper()
	_, err := f.engine.ApplyEntitlementUpgrade(f.ctx, id, domain.TierPremium)
	require.NoError(t, err)
}

// applied returns an application of a fresh candidate to job.
func (f *fixture) applied(t *testing.T, job *domain.Job, candidateID string) *domain.Application {
	t.Helper()
	f.candidate(t, candidateID)
	app, err := f.engine.Apply(f.ctx, job.ID, candidateID, "")
	require.NoError(t, err)
	return app
}

func (f *fixture) move(t *testing.T, app *domain.Application, to ...domain.ApplicationStatus) *domain.Application {
	t.Helper()
	for _, status := range to {
		var err error
		app, err = f.engine.Transition(f.ctx, hiring.TransitionRequest{
			ApplicationID: app.ID,
			To:            status,
			ActorID:       app.InstituteID,
		})
		require.NoError(t, err)
	}
	return app
}
