package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

const accountColumns = `id, role, email, entitlement_tier, quota_used, quota_limit, quota_reset_at, suspended, resume_path, created_at, version`

func scanAccount(row scanner) (*domain.Account, error) {
	var acc domain.Account
	dst := []any{
		&acc.ID,
		&acc.Role,
		&acc.Email,
		&acc.EntitlementTier,
		&acc.QuotaUsed,
		&acc.QuotaLimit,
		&acc.QuotaResetAt,
		&acc.Suspended,
		&acc.ResumePath,
		&acc.CreatedAt,
		&acc.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return &acc, nil
}

func getAccount(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	acc, err := scanAccount(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return acc, nil
}

func (r *Repository) CreateAccount(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (
			id,
			role,
			email,
			entitlement_tier,
			quota_used,
			quota_limit,
			quota_reset_at,
			suspended,
			resume_path,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + accountColumns

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		acc.ID,
		string(acc.Role),
		acc.Email,
		string(acc.EntitlementTier),
		acc.QuotaUsed,
		acc.QuotaLimit,
		acc.QuotaResetAt,
		acc.Suspended,
		acc.ResumePath,
		acc.CreatedAt,
	}

	created, err := scanAccount(r.dbpool.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		// the account already exists
		return getAccount(ctx, r.dbpool, acc.ID, false)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "insert account %s", acc.ID)
	}
	return created, nil
}

func (t *pgTx) UpdateAccountEntitlement(ctx context.Context, acc *domain.Account) error {
	query := `
		UPDATE accounts
		SET
			entitlement_tier = $1,
			quota_used = $2,
			quota_limit = $3,
			quota_reset_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	params := []any{
		string(acc.EntitlementTier),
		acc.QuotaUsed,
		acc.QuotaLimit,
		acc.QuotaResetAt,
		acc.ID,
		acc.Version,
	}
	if err := t.tx.QueryRowContext(ctx, query, params...).Scan(&acc.Version); err != nil {
		return staleVersion(err)
	}

	return nil
}

func (t *pgTx) SetResumePath(ctx context.Context, accountID, path string) error {
	query := `UPDATE accounts SET resume_path = $1, version = version + 1 WHERE id = $2`

	res, err := t.tx.ExecContext(ctx, query, path, accountID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrNotFound
	}

	return nil
}
