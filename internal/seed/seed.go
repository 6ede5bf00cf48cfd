// Package seed fills a store with demo institutes, candidates, jobs and
// applications. Everything goes through the hiring engine so the seeded data
// obeys quotas, the status graph and the notification rules.
package seed

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
	"github.com/teachhire/marketplace/backend/internal/utils"
)

type Options struct {
	Institutes int
	Candidates int
	EmailHost  string
}

type Summary struct {
	Institutes   int
	Candidates   int
	Jobs         int
	Applications int
	Transitions  int
}

type Seeder struct {
	engine *hiring.Engine
	logger *slog.Logger
}

func New(engine *hiring.Engine, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{engine: engine, logger: logger}
}

// Accounts registers n accounts of the given role and returns their ids.
func (s *Seeder) Accounts(ctx context.Context, role domain.Role, n int, emailHost string) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var name string
		if role == domain.RoleInstitute {
			name = utils.GenerateRandomInstituteName()
		} else {
			name = utils.GenerateRandomPersonName()
		}

		id := "seed_" + string(role) + "_" + utils.GenerateRandomID(4, 4)
		if _, err := s.engine.EnsureAccount(ctx, id, role, utils.GenerateEmail(name, emailHost)); err != nil {
			return ids, errors.Wrapf(err, "ensure %s %s", role, id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Jobs posts active jobs for every institute until its quota runs out.
func (s *Seeder) Jobs(ctx context.Context, instituteIDs []string) ([]*domain.Job, error) {
	var jobs []*domain.Job
	for _, id := range instituteIDs {
		for {
			posting := utils.GenerateRandomJobPosting()
			job, err := s.engine.CreateJob(ctx, id, hiring.JobInput{
				Title:       posting.Title,
				Description: posting.Description,
				Subjects:    posting.Subjects,
				Publish:     true,
			})
			if errors.Is(err, domain.ErrQuotaExhausted) {
				break
			}
			if err != nil {
				return jobs, errors.Wrapf(err, "create job for %s", id)
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Applications lets every candidate apply to a random subset of jobs and moves
// each application along a random review path.
func (s *Seeder) Applications(ctx context.Context, candidateIDs []string, jobs []*domain.Job) (applications, transitions int, err error) {
	if len(jobs) == 0 {
		return 0, 0, nil
	}

	for _, candidateID := range candidateIDs {
		name := utils.GenerateRandomPersonName()
		for _, job := range utils.GenerateRandomSubset(jobs) {
			app, err := s.engine.Apply(ctx, job.ID, candidateID, utils.GenerateRandomCoverLetter(name))
			if errors.Is(err, domain.ErrQuotaExhausted) {
				break
			}
			if err != nil {
				return applications, transitions, errors.Wrapf(err, "apply %s to job %d", candidateID, job.ID)
			}
			applications++

			for _, status := range utils.GenerateRandomReviewPath() {
				if _, err := s.engine.Transition(ctx, hiring.TransitionRequest{
					ApplicationID: app.ID,
					To:            status,
					ActorID:       job.InstituteID,
				}); err != nil {
					return applications, transitions, errors.Wrapf(err, "move application %d to %s", app.ID, status)
				}
				transitions++
			}
		}
	}
	return applications, transitions, nil
}

// Run seeds a complete marketplace.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary

	institutes, err := s.Accounts(ctx, domain.RoleInstitute, opts.Institutes, opts.EmailHost)
	summary.Institutes = len(institutes)
	if err != nil {
		return summary, err
	}
	s.logger.Info("seeded institutes", "count", summary.Institutes)

	candidates, err := s.Accounts(ctx, domain.RoleCandidate, opts.Candidates, opts.EmailHost)
	summary.Candidates = len(candidates)
	if err != nil {
		return summary, err
	}
	s.logger.Info("seeded candidates", "count", summary.Candidates)

	jobs, err := s.Jobs(ctx, institutes)
	summary.Jobs = len(jobs)
	if err != nil {
		return summary, err
	}
	s.logger.Info("seeded jobs", "count", summary.Jobs)

	// shuffle so candidates do not all pile onto the first institute
	rand.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })

	summary.Applications, summary.Transitions, err = s.Applications(ctx, candidates, jobs)
	if err != nil {
		return summary, err
	}
	s.logger.Info("seeded applications", "count", summary.Applications, "transitions", summary.Transitions)

	return summary, nil
}
