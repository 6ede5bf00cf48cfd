package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

func newTestRedis(t *testing.T, ttl, eventTTL time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl, eventTTL, time.Second), mr
}

func TestRedisStats(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute, time.Hour)

	_, ok, err := r.GetCandidateStats(ctx, "cand1")
	require.NoError(t, err)
	assert.False(t, ok)

	candidate := domain.CandidateStats{TotalApplied: 3, Shortlisted: 1, SuccessRate: 33}
	institute := domain.InstituteStats{TotalJobs: 2, ActiveJobs: 1, TotalApplications: 4, Shortlisted: 1, SuccessRate: 25}
	require.NoError(t, r.SetCandidateStats(ctx, "cand1", candidate))
	require.NoError(t, r.SetInstituteStats(ctx, "inst1", institute))

	assert.True(t, mr.Exists("stats_candidate_cand1"))
	assert.True(t, mr.Exists("stats_institute_inst1"))
	assert.Equal(t, time.Minute, mr.TTL("stats_candidate_cand1"))

	got, ok, err := r.GetCandidateStats(ctx, "cand1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, candidate, got)

	gotInstitute, ok, err := r.GetInstituteStats(ctx, "inst1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, institute, gotInstitute)

	mr.FastForward(2 * time.Minute)
	_, ok, err = r.GetCandidateStats(ctx, "cand1")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")
}

func TestRedisInvalidateDropsBothKeyFamilies(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute, time.Hour)

	// an account id can appear as either role, so both keys go
	require.NoError(t, r.SetCandidateStats(ctx, "acc1", domain.CandidateStats{TotalApplied: 1}))
	require.NoError(t, r.SetInstituteStats(ctx, "acc1", domain.InstituteStats{TotalJobs: 1}))
	require.NoError(t, r.SetCandidateStats(ctx, "acc2", domain.CandidateStats{TotalApplied: 2}))
	require.NoError(t, r.SetInstituteStats(ctx, "other", domain.InstituteStats{TotalJobs: 5}))

	require.NoError(t, r.Invalidate(ctx, "acc1", "acc2"))
	require.NoError(t, r.Invalidate(ctx))

	assert.False(t, mr.Exists("stats_candidate_acc1"))
	assert.False(t, mr.Exists("stats_institute_acc1"))
	assert.False(t, mr.Exists("stats_candidate_acc2"))
	assert.True(t, mr.Exists("stats_institute_other"))
}

func TestRedisZeroTTLSkipsWrites(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, 0, time.Hour)

	require.NoError(t, r.SetCandidateStats(ctx, "cand1", domain.CandidateStats{TotalApplied: 1}))
	require.NoError(t, r.SetInstituteStats(ctx, "inst1", domain.InstituteStats{TotalJobs: 1}))

	assert.Empty(t, mr.Keys())
}

func TestRedisUnreadableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute, time.Hour)

	require.NoError(t, mr.Set("stats_candidate_cand1", "{not json"))

	_, ok, err := r.GetCandidateStats(ctx, "cand1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisFirstSeen(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t, time.Minute, time.Hour)

	first, err := r.FirstSeen(ctx, "payment_event_evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := r.FirstSeen(ctx, "payment_event_evt_1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := r.FirstSeen(ctx, "payment_event_evt_2")
	require.NoError(t, err)
	assert.True(t, other)

	assert.Equal(t, time.Hour, mr.TTL("event_payment_event_evt_1"))

	mr.FastForward(2 * time.Hour)
	afterTTL, err := r.FirstSeen(ctx, "payment_event_evt_1")
	require.NoError(t, err)
	assert.True(t, afterTTL, "the event is forgotten once its TTL passes")
}
