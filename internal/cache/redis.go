// Package cache memoizes stats snapshots and records processed external events.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

func candidateKey(id string) string { return fmt.Sprintf("stats_candidate_%s", id) }
func instituteKey(id string) string { return fmt.Sprintf("stats_institute_%s", id) }
func eventKey(key string) string { return fmt.Sprintf("event_%s", key) }

type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	eventTTL  time.Duration
	opTimeout time.Duration
}

func NewRedis(client *redis.Client, ttl, eventTTL, opTimeout time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, eventTTL: eventTTL, opTimeout: opTimeout}
}

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *Redis) getJSON(ctx context.Context, key string, v any) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrapf(err, "get %s", key)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// an unreadable entry counts as a miss
		return false, nil
	}
	return true, nil
}

func (r *Redis) setJSON(ctx context.Context, key string, v any) error {
	if r.ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return errors.Wrapf(r.client.Set(ctx, key, data, r.ttl).Err(), "set %s", key)
}

func (r *Redis) GetCandidateStats(ctx context.Context, candidateID string) (domain.CandidateStats, bool, error) {
	var stats domain.CandidateStats
	ok, err := r.getJSON(ctx, candidateKey(candidateID), &stats)
	return stats, ok, err
}

func (r *Redis) SetCandidateStats(ctx context.Context, candidateID string, stats domain.CandidateStats) error {
	return r.setJSON(ctx, candidateKey(candidateID), stats)
}

func (r *Redis) GetInstituteStats(ctx context.Context, instituteID string) (domain.InstituteStats, bool, error) {
	var stats domain.InstituteStats
	ok, err := r.getJSON(ctx, instituteKey(instituteID), &stats)
	return stats, ok, err
}

func (r *Redis) SetInstituteStats(ctx context.Context, instituteID string, stats domain.InstituteStats) error {
	return r.setJSON(ctx, instituteKey(instituteID), stats)
}

func (r *Redis) Invalidate(ctx context.Context, accountIDs ...string) error {
	if len(accountIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(accountIDs)*2)
	for _, id := range accountIDs {
		keys = append(keys, candidateKey(id), instituteKey(id))
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return errors.Wrap(r.client.Del(ctx, keys...).Err(), "invalidate stats")
}

func (r *Redis) FirstSeen(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	first, err := r.client.SetNX(ctx, eventKey(key), 1, r.eventTTL).Result()
	if err != nil {
		return false, errors.Wrapf(err, "record event %s", key)
	}
	return first, nil
}
