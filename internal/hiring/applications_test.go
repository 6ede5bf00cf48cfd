package hiring_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
	"github.com/teachhire/marketplace/backend/internal/store"
	"github.com/teachhire/marketplace/backend/internal/store/memory"
)

func TestApply(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	f.candidate(t, "cand1")

	app, err := f.engine.Apply(f.ctx, job.ID, "cand1", "I have taught physics for six years.")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	assert.Equal(t, "inst1", app.InstituteID)
	require.Len(t, app.StatusHistory, 1)
	assert.Equal(t, domain.StatusApplied, app.StatusHistory[0].Status)
	assert.Equal(t, f.now, app.AppliedAt)

	t.Run("duplicate pair", func(t *testing.T) {
		_, err := f.engine.Apply(f.ctx, job.ID, "cand1", "")
		assert.ErrorIs(t, err, domain.ErrDuplicateApplication)

		acc, err := f.engine.GetAccount(f.ctx, "cand1")
		require.NoError(t, err)
		assert.Equal(t, 1, acc.QuotaUsed, "a rejected create must not consume quota")
	})

	t.Run("application count matches applications", func(t *testing.T) {
		f.applied(t, job, "cand2")
		f.applied(t, job, "cand3")

		stored, err := f.engine.GetJob(f.ctx, job.ID)
		require.NoError(t, err)
		apps, err := f.engine.ListJobApplications(f.ctx, job.ID, "inst1")
		require.NoError(t, err)
		assert.Equal(t, 3, stored.ApplicationCount)
		assert.Len(t, apps, stored.ApplicationCount)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := f.engine.Apply(f.ctx, 999, "cand1", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("closed job", func(t *testing.T) {
		_, err := f.engine.CloseJob(f.ctx, job.ID, "inst1")
		require.NoError(t, err)
		f.candidate(t, "cand4")

		_, err = f.engine.Apply(f.ctx, job.ID, "cand4", "")
		assert.ErrorIs(t, err, domain.ErrJobNotActive)
	})

	t.Run("institutes cannot apply", func(t *testing.T) {
		f.institute(t, "inst2")
		other := f.activeJob(t, "inst2")

		_, err := f.engine.Apply(f.ctx, other.ID, "inst1", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})
}

type failingInsertStore struct {
	*memory.Store
}

func (s failingInsertStore) Transactionally(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.Transactionally(ctx, func(tx store.Tx) error {
		return fn(failingInsertTx{Tx: tx})
	})
}

type failingInsertTx struct {
	store.Tx
}

func (failingInsertTx) InsertApplication(context.Context, *domain.Application) error {
	return errors.New("write failed")
}

func TestApplyIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	f.candidate(t, "cand1")

	engine := hiring.New(failingInsertStore{Store: f.store}, testOptions())
	_, err := engine.Apply(f.ctx, job.ID, "cand1", "")
	require.Error(t, err)

	acc, err := f.store.GetAccount(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, 0, acc.QuotaUsed)

	stored, err := f.store.GetJob(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ApplicationCount)
}

// pathTo lists the transitions that bring a new application into status.
var pathTo = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.StatusApplied:     nil,
	domain.StatusUnderReview: {domain.StatusUnderReview},
	domain.StatusShortlisted: {domain.StatusShortlisted},
	domain.StatusInterview:   {domain.StatusShortlisted, domain.StatusInterview},
	domain.StatusHired:       {domain.StatusShortlisted, domain.StatusInterview, domain.StatusHired},
	domain.StatusRejected:    {domain.StatusRejected},
}

func TestTransitionGraph(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")

	for _, from := range domain.AllApplicationStatuses {
		for _, to := range domain.AllApplicationStatuses {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				app := f.applied(t, job, fmt.Sprintf("cand_%s_%s", from, to))
				app = f.move(t, app, pathTo[from]...)
				require.Equal(t, from, app.Status)

				moved, err := f.engine.Transition(f.ctx, hiring.TransitionRequest{
					ApplicationID: app.ID,
					To:            to,
					ActorID:       "inst1",
				})
				if !from.CanTransitionTo(to) {
					assert.ErrorIs(t, err, domain.ErrInvalidTransition)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, to, moved.Status)
				assert.Len(t, moved.StatusHistory, len(pathTo[from])+2)
				assert.Equal(t, to, moved.StatusHistory[len(moved.StatusHistory)-1].Status)
			})
		}
	}
}

func TestTransitionAuthorization(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	f.institute(t, "inst2")
	job := f.activeJob(t, "inst1")
	app := f.applied(t, job, "cand1")

	for _, actor := range []string{"inst2", "cand1"} {
		_, err := f.engine.Transition(f.ctx, hiring.TransitionRequest{
			ApplicationID: app.ID,
			To:            domain.StatusShortlisted,
			ActorID:       actor,
		})
		assert.ErrorIs(t, err, domain.ErrNotAuthorized, actor)
	}

	_, err := f.engine.Transition(f.ctx, hiring.TransitionRequest{
		ApplicationID: app.ID,
		To:            domain.ApplicationStatus("archived"),
		ActorID:       "inst1",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStaleTransitionConflicts(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	app := f.move(t, f.applied(t, job, "cand1"), domain.StatusShortlisted)

	// both reviewers read the shortlisted application
	readByA, err := f.engine.GetApplicationView(f.ctx, app.ID, "inst1")
	require.NoError(t, err)
	readByB, err := f.engine.GetApplicationView(f.ctx, app.ID, "inst1")
	require.NoError(t, err)

	_, err = f.engine.Transition(f.ctx, hiring.TransitionRequest{
		ApplicationID:   app.ID,
		To:              domain.StatusRejected,
		ActorID:         "inst1",
		ExpectedVersion: readByB.Version,
	})
	require.NoError(t, err)

	_, err = f.engine.Transition(f.ctx, hiring.TransitionRequest{
		ApplicationID:   app.ID,
		To:              domain.StatusInterview,
		ActorID:         "inst1",
		ExpectedVersion: readByA.Version,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.store.GetApplication(f.ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, stored.Status)
}

func TestConcurrentTransitionsHaveOneWinner(t *testing.T) {
	for _, withVersion := range []bool{false, true} {
		t.Run(fmt.Sprintf("expected version %v", withVersion), func(t *testing.T) {
			f := newFixture(t)
			f.institute(t, "inst1")
			job := f.activeJob(t, "inst1")
			app := f.move(t, f.applied(t, job, "cand1"), domain.StatusShortlisted, domain.StatusInterview)

			var version int32
			if withVersion {
				version = app.Version
			}

			// hired and rejected are both reachable from interview but not from each other
			targets := []domain.ApplicationStatus{domain.StatusHired, domain.StatusRejected}
			const n = 8
			errs := make([]error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = f.engine.Transition(f.ctx, hiring.TransitionRequest{
						ApplicationID:   app.ID,
						To:              targets[i%len(targets)],
						ActorID:         "inst1",
						ExpectedVersion: version,
					})
				}(i)
			}
			wg.Wait()

			var winner domain.ApplicationStatus
			wins := 0
			for i, err := range errs {
				if err == nil {
					wins++
					winner = targets[i%len(targets)]
					continue
				}
				assert.True(t, errors.IsAny(err, domain.ErrInvalidTransition, domain.ErrConflict), "unexpected error %v", err)
			}
			require.Equal(t, 1, wins)

			stored, err := f.store.GetApplication(f.ctx, app.ID)
			require.NoError(t, err)
			assert.Equal(t, winner, stored.Status)
			require.Len(t, stored.StatusHistory, len(app.StatusHistory)+1)
			assert.Equal(t, winner, stored.StatusHistory[len(stored.StatusHistory)-1].Status)
			assert.Equal(t, app.Version+1, stored.Version)

			notifications, err := f.engine.ListNotifications(f.ctx, "cand1", false)
			require.NoError(t, err)
			assert.Len(t, notifications, 3, "shortlisted, interview and the winning status")
		})
	}
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	app := f.applied(t, job, "cand1")
	f.candidate(t, "cand2")

	err := f.engine.Withdraw(f.ctx, app.ID, "cand2")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, f.engine.Withdraw(f.ctx, app.ID, "cand1"))

	stored, err := f.engine.GetJob(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ApplicationCount)

	_, err = f.engine.GetApplicationView(f.ctx, app.ID, "cand1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Apply(f.ctx, job.ID, "cand1", "")
	require.NoError(t, err, "withdrawing frees the pair")

	acc, err := f.engine.GetAccount(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, 2, acc.QuotaUsed, "withdrawal does not refund quota")
}

func TestApplicationViewAndResume(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	f.institute(t, "inst2")
	job := f.activeJob(t, "inst1")
	app := f.applied(t, job, "cand1")

	view, err := f.engine.GetApplicationView(f.ctx, app.ID, "inst1")
	require.NoError(t, err)
	assert.Empty(t, view.ResumeURL)

	require.NoError(t, f.engine.SetResumePath(f.ctx, "cand1", "cand1/cv 2026.pdf"))

	view, err = f.engine.GetApplicationView(f.ctx, app.ID, "cand1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/resumes/cand1/cv%202026.pdf", view.ResumeURL)

	_, err = f.engine.GetApplicationView(f.ctx, app.ID, "inst2")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	for _, bad := range []string{"", "/etc/passwd", "../other/cv.pdf", "https://evil.example.com/cv.pdf"} {
		assert.ErrorIs(t, f.engine.SetResumePath(f.ctx, "cand1", bad), domain.ErrValidation, bad)
	}
	assert.ErrorIs(t, f.engine.SetResumePath(f.ctx, "inst1", "inst1/cv.pdf"), domain.ErrNotAuthorized)
}
