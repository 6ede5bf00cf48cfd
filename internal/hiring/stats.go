package hiring

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

// successRate is round(shortlisted / total * 100), defined as 0 for no applications.
func successRate(shortlisted, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(shortlisted) / float64(total) * 100))
}

// CandidateStats derives the candidate rollup from the applications' current status.
func CandidateStats(apps []*domain.Application) domain.CandidateStats {
	var s domain.CandidateStats
	for _, app := range apps {
		s.TotalApplied++
		switch app.Status {
		case domain.StatusShortlisted:
			s.Shortlisted++
		case domain.StatusInterview:
			s.Interviews++
		case domain.StatusRejected:
			s.Rejected++
		case domain.StatusHired:
			s.Hired++
		}
	}
	s.SuccessRate = successRate(s.Shortlisted, s.TotalApplied)
	return s
}

// InstituteStats derives the institute rollup from its jobs and the applications they received.
func InstituteStats(jobs []*domain.Job, apps []*domain.Application) domain.InstituteStats {
	var s domain.InstituteStats
	for _, job := range jobs {
		s.TotalJobs++
		if job.Status == domain.JobStatusActive {
			s.ActiveJobs++
		}
	}
	for _, app := range apps {
		s.TotalApplications++
		switch app.Status {
		case domain.StatusShortlisted:
			s.Shortlisted++
		case domain.StatusInterview:
			s.Interviews++
		case domain.StatusRejected:
			s.Rejected++
		case domain.StatusHired:
			s.Hired++
		}
	}
	s.SuccessRate = successRate(s.Shortlisted, s.TotalApplications)
	return s
}

// ComputeCandidateStats recomputes from the stored applications on every
// call. The memo only ever receives recomputed values; when it disagrees the
// recomputed value replaces it and is what the caller gets.
func (e *Engine) ComputeCandidateStats(ctx context.Context, candidateID string) (domain.CandidateStats, error) {
	apps, err := e.store.ListApplicationsByCandidate(ctx, candidateID)
	if err != nil {
		return domain.CandidateStats{}, errors.Wrapf(err, "list applications of %s", candidateID)
	}
	stats := CandidateStats(apps)

	if e.cache != nil {
		cached, ok, err := e.cache.GetCandidateStats(ctx, candidateID)
		if err != nil {
			e.logger.Warn("failed to read stats cache", "account", candidateID, "error", err)
		}
		if !ok || cached != stats {
			if ok {
				e.logger.Debug("stale candidate stats replaced", "account", candidateID)
			}
			e.storeCandidateStats(ctx, candidateID, stats)
		}
	}

	return stats, nil
}

func (e *Engine) ComputeInstituteStats(ctx context.Context, instituteID string) (domain.InstituteStats, error) {
	jobs, err := e.store.ListJobsByInstitute(ctx, instituteID)
	if err != nil {
		return domain.InstituteStats{}, errors.Wrapf(err, "list jobs of %s", instituteID)
	}
	apps, err := e.store.ListApplicationsByInstitute(ctx, instituteID)
	if err != nil {
		return domain.InstituteStats{}, errors.Wrapf(err, "list applications of %s", instituteID)
	}
	stats := InstituteStats(jobs, apps)

	if e.cache != nil {
		cached, ok, err := e.cache.GetInstituteStats(ctx, instituteID)
		if err != nil {
			e.logger.Warn("failed to read stats cache", "account", instituteID, "error", err)
		}
		if !ok || cached != stats {
			if ok {
				e.logger.Debug("stale institute stats replaced", "account", instituteID)
			}
			e.storeInstituteStats(ctx, instituteID, stats)
		}
	}

	return stats, nil
}

func (e *Engine) storeCandidateStats(ctx context.Context, id string, stats domain.CandidateStats) {
	if err := e.cache.SetCandidateStats(ctx, id, stats); err != nil {
		e.logger.Warn("failed to write stats cache", "account", id, "error", err)
		e.invalidateStats(ctx, id)
	}
}

func (e *Engine) storeInstituteStats(ctx context.Context, id string, stats domain.InstituteStats) {
	if err := e.cache.SetInstituteStats(ctx, id, stats); err != nil {
		e.logger.Warn("failed to write stats cache", "account", id, "error", err)
		e.invalidateStats(ctx, id)
	}
}
