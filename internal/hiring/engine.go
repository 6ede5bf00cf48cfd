// Package hiring implements the hiring workflow: the entitlement ledger, the
// job registry, the application state machine, the notification dispatcher
// and the stats aggregator.
//
// Every mutating operation runs as a single store transaction. Side effects
// that leave the process (mail, cache invalidation) happen after commit.
package hiring

import (
	"context"
	"log/slog"
	"time"

	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

// MailPublisher queues outbound mail.
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

// StatsCache memoizes stats snapshots. A miss is reported with ok == false.
type StatsCache interface {
	GetCandidateStats(ctx context.Context, candidateID string) (stats domain.CandidateStats, ok bool, err error)
	SetCandidateStats(ctx context.Context, candidateID string, stats domain.CandidateStats) error
	GetInstituteStats(ctx context.Context, instituteID string) (stats domain.InstituteStats, ok bool, err error)
	SetInstituteStats(ctx context.Context, instituteID string, stats domain.InstituteStats) error
	Invalidate(ctx context.Context, accountIDs ...string) error
}

// EventDeduper records processed external event ids.
type EventDeduper interface {
	// FirstSeen records key and reports whether it had not been recorded before.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// FileStore resolves where a candidate's resume can be downloaded.
// An empty URL means the candidate has not uploaded one.
type FileStore interface {
	ResumeURL(ctx context.Context, candidateID string) (string, error)
}

type Options struct {
	CandidateFreeQuota int
	InstituteFreeQuota int
	QuotaPeriodMonths  int
	MaxConflictRetries int
	ActiveJobsLimit    int
	PremiumPlanIDs     []string
	ResumeBaseURL      string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CandidateFreeQuota: cfg.Hiring.CandidateFreeQuota,
		InstituteFreeQuota: cfg.Hiring.InstituteFreeQuota,
		QuotaPeriodMonths:  cfg.Hiring.QuotaPeriodMonths,
		MaxConflictRetries: cfg.Hiring.MaxConflictRetries,
		ActiveJobsLimit:    cfg.Hiring.ActiveJobsLimit,
		PremiumPlanIDs:     cfg.Payment.PremiumPlanIDs,
		ResumeBaseURL:      cfg.Files.ResumeBaseURL,
	}
}

type Option func(*Engine)

func WithMailPublisher(p MailPublisher) Option {
	return func(e *Engine) { e.mail = p }
}

func WithStatsCache(c StatsCache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithEventDeduper(d EventDeduper) Option {
	return func(e *Engine) { e.events = d }
}

func WithFileStore(f FileStore) Option {
	return func(e *Engine) { e.files = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	store  store.Store
	opts   Options
	mail   MailPublisher
	cache  StatsCache
	events EventDeduper
	files  FileStore
	logger *slog.Logger
	now    func() time.Time
}

func New(st store.Store, opts Options, options ...Option) *Engine {
	if opts.QuotaPeriodMonths <= 0 {
		opts.QuotaPeriodMonths = 1
	}
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}

	e := &Engine{
		store:  st,
		opts:   opts,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range options {
		o(e)
	}

	if e.files == nil {
		e.files = NewPathFileStore(st, opts.ResumeBaseURL)
	}

	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// invalidateStats drops memoized stats of the given accounts. Failures only
// cost freshness until the cache TTL expires, so they are logged.
func (e *Engine) invalidateStats(ctx context.Context, accountIDs ...string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, accountIDs...); err != nil {
		e.logger.Warn("failed to invalidate stats cache", "accounts", accountIDs, "error", err)
	}
}

func (e *Engine) publish(ctx context.Context, msg domain.MailMessage) {
	if e.mail == nil || msg.To == "" {
		return
	}
	if err := e.mail.Publish(ctx, msg); err != nil {
		e.logger.Error("failed to queue mail", "type", msg.Type, "error", err)
	}
}
