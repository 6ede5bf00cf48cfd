package hiring_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/cache"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
)

func TestSuccessRateRounding(t *testing.T) {
	apps := func(statuses ...domain.ApplicationStatus) []*domain.Application {
		out := make([]*domain.Application, len(statuses))
		for i, s := range statuses {
			out[i] = &domain.Application{Status: s}
		}
		return out
	}

	tests := []struct {
		name string
		apps []*domain.Application
		want int
	}{
		{"no applications", nil, 0},
		{"one of three", apps(domain.StatusShortlisted, domain.StatusApplied, domain.StatusRejected), 33},
		{"two of three", apps(domain.StatusShortlisted, domain.StatusShortlisted, domain.StatusApplied), 67},
		{"all", apps(domain.StatusShortlisted), 100},
		{"hired is not shortlisted", apps(domain.StatusHired, domain.StatusApplied), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hiring.CandidateStats(tt.apps).SuccessRate)
		})
	}
}

func TestCandidateStatsFollowWrites(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	f.premium(t, "inst1")
	f.candidate(t, "cand1")
	job1 := f.activeJob(t, "inst1")
	job2 := f.activeJob(t, "inst1")

	app1, err := f.engine.Apply(f.ctx, job1.ID, "cand1", "")
	require.NoError(t, err)
	_, err = f.engine.Apply(f.ctx, job2.ID, "cand1", "")
	require.NoError(t, err)
	f.move(t, app1, domain.StatusShortlisted)

	first, err := f.engine.ComputeCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	second, err := f.engine.ComputeCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.CandidateStats{TotalApplied: 2, Shortlisted: 1, SuccessRate: 50}, first)

	f.move(t, &domain.Application{ID: app1.ID, InstituteID: "inst1"}, domain.StatusRejected)

	after, err := f.engine.ComputeCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateStats{TotalApplied: 2, Rejected: 1, SuccessRate: 0}, after)
}

func TestRecomputedStatsReplaceStaleCache(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	f.applied(t, job, "cand1")

	stale := domain.CandidateStats{TotalApplied: 9, Hired: 9}
	require.NoError(t, f.cache.SetCandidateStats(f.ctx, "cand1", stale))

	fresh, err := f.engine.ComputeCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateStats{TotalApplied: 1}, fresh, "a stale memo is never served")

	cached, ok, err := f.cache.GetCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fresh, cached)
}

func TestInstituteStats(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	f.premium(t, "inst1")
	job := f.activeJob(t, "inst1")
	_, err := f.engine.CreateJob(f.ctx, "inst1", hiring.JobInput{Title: "Chemistry teacher"})
	require.NoError(t, err)

	f.move(t, f.applied(t, job, "cand1"), domain.StatusShortlisted, domain.StatusInterview)
	f.move(t, f.applied(t, job, "cand2"), domain.StatusShortlisted)
	f.move(t, f.applied(t, job, "cand3"), domain.StatusRejected)
	f.applied(t, job, "cand4")

	stats, err := f.engine.ComputeInstituteStats(f.ctx, "inst1")
	require.NoError(t, err)
	assert.Equal(t, domain.InstituteStats{
		TotalJobs:         2,
		ActiveJobs:        1,
		TotalApplications: 4,
		Shortlisted:       1,
		Interviews:        1,
		Rejected:          1,
		SuccessRate:       25,
	}, stats)

	_, ok, err := f.cache.GetInstituteStats(f.ctx, "inst1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.engine.CloseJob(f.ctx, job.ID, "inst1")
	require.NoError(t, err)
	_, ok, err = f.cache.GetInstituteStats(f.ctx, "inst1")
	require.NoError(t, err)
	assert.False(t, ok, "job writes invalidate the snapshot")
}

// racingCache commits a transition between the stats computation and the
// memo write, leaving a stale snapshot in the cache.
type racingCache struct {
	*cache.Memory
	race func()
}

func (c *racingCache) SetCandidateStats(ctx context.Context, candidateID string, stats domain.CandidateStats) error {
	if c.race != nil {
		race := c.race
		c.race = nil
		race()
	}
	return c.Memory.SetCandidateStats(ctx, candidateID, stats)
}

func TestStatsNeverDivergeFromRecomputation(t *testing.T) {
	f := newFixture(t)
	f.institute(t, "inst1")
	job := f.activeJob(t, "inst1")
	app := f.applied(t, job, "cand1")

	memo := &racingCache{Memory: cache.NewMemory(time.Hour, time.Hour)}
	memo.race = func() { f.move(t, app, domain.StatusShortlisted) }
	engine := hiring.New(f.store, testOptions(),
		hiring.WithStatsCache(memo),
		hiring.WithClock(func() time.Time { return f.now }),
	)

	direct := func() domain.CandidateStats {
		apps, err := f.store.ListApplicationsByCandidate(f.ctx, "cand1")
		require.NoError(t, err)
		return hiring.CandidateStats(apps)
	}

	first, err := engine.ComputeCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateStats{TotalApplied: 1}, first)

	stale, ok, err := memo.GetCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, stale, "the memo write lost the race")

	for i := 0; i < 2; i++ {
		served, err := engine.ComputeCandidateStats(f.ctx, "cand1")
		require.NoError(t, err)
		assert.Equal(t, direct(), served)
		assert.Equal(t, domain.CandidateStats{TotalApplied: 1, Shortlisted: 1, SuccessRate: 100}, served)
	}

	healed, _, err := memo.GetCandidateStats(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, direct(), healed)
}
