// Package repository is the PostgreSQL implementation of store.Store.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/teachhire/marketplace/backend/internal/config"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

var _ store.Store = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// Migrate creates missing tables and indexes. It is safe to run on every start.
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

func (r *Repository) Transactionally(ctx context.Context, fn func(tx store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()
	return getAccount(ctx, r.dbpool, id, false)
}

func (r *Repository) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()
	return getJob(ctx, r.dbpool, id, false)
}

func (r *Repository) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()
	return getApplication(ctx, r.dbpool, id)
}

func (r *Repository) FindApplication(ctx context.Context, jobID int64, candidateID string) (*domain.Application, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()
	return findApplication(ctx, r.dbpool, jobID, candidateID)
}

// pgTx runs every statement on the transaction, whose context already
// carries the transaction timeout.
type pgTx struct {
	tx *sql.Tx
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return getAccount(ctx, t.tx, id, false)
}

func (t *pgTx) GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return getAccount(ctx, t.tx, id, true)
}

func (t *pgTx) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	return getJob(ctx, t.tx, id, false)
}

func (t *pgTx) GetJobForUpdate(ctx context.Context, id int64) (*domain.Job, error) {
	return getJob(ctx, t.tx, id, true)
}

func (t *pgTx) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	return getApplication(ctx, t.tx, id)
}

func (t *pgTx) FindApplication(ctx context.Context, jobID int64, candidateID string) (*domain.Application, error) {
	return findApplication(ctx, t.tx, jobID, candidateID)
}

// notFound translates a missing row.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// staleVersion translates a versioned write that matched no row. The row was
// read earlier in the same transaction, so a miss means someone else won.
func staleVersion(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrConflict
	}
	return err
}

func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
