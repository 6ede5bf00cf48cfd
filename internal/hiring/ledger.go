package hiring

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

type DenyReason string

const (
	ReasonQuotaExhausted   DenyReason = "QuotaExhausted"
	ReasonAccountSuspended DenyReason = "AccountSuspended"
)

// Decision is the outcome of an entitlement check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Err converts a denial into its typed error; it returns nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonAccountSuspended:
		return domain.ErrAccountSuspended
	default:
		return errors.WithHint(domain.ErrQuotaExhausted, "upgrade to premium for unlimited usage")
	}
}

// addMonths moves t by months, clamping the day to the last day of the
// target month. Jan 31 plus one month is Feb 28, not Mar 3.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// nextReset is the first period boundary after now. Boundaries are counted
// from anchor so clamped month ends do not drift.
func nextReset(anchor, now time.Time, months int) time.Time {
	for k := 1; ; k++ {
		if t := addMonths(anchor, k*months); now.Before(t) {
			return t
		}
	}
}

// resetAnchor is the account's creation time. Accounts without one are
// anchored on their current reset time.
func resetAnchor(acc *domain.Account, now time.Time) time.Time {
	switch {
	case !acc.CreatedAt.IsZero():
		return acc.CreatedAt
	case !acc.QuotaResetAt.IsZero():
		return acc.QuotaResetAt
	default:
		return now
	}
}

// applyQuotaReset zeroes the usage once the reset time has passed and moves
// the reset time to the next period boundary after now.
func applyQuotaReset(acc *domain.Account, now time.Time, months int) bool {
	if acc.QuotaResetAt.IsZero() {
		acc.QuotaResetAt = nextReset(resetAnchor(acc, now), now, months)
		return true
	}
	if now.Before(acc.QuotaResetAt) {
		return false
	}
	acc.QuotaResetAt = nextReset(resetAnchor(acc, now), now, months)
	acc.QuotaUsed = 0
	return true
}

// decide evaluates acc after the lazy reset has been applied. Suspension
// denies every account, premium included.
func decide(acc *domain.Account) Decision {
	switch {
	case acc.Suspended:
		return Decision{Reason: ReasonAccountSuspended}
	case acc.EntitlementTier == domain.TierPremium, acc.QuotaLimit == domain.UnlimitedQuota:
		return Decision{Allowed: true}
	case acc.QuotaUsed >= acc.QuotaLimit:
		return Decision{Reason: ReasonQuotaExhausted}
	default:
		return Decision{Allowed: true}
	}
}

func (e *Engine) defaultQuota(role domain.Role) int {
	if role == domain.RoleInstitute {
		return e.opts.InstituteFreeQuota
	}
	return e.opts.CandidateFreeQuota
}

// checkAndConsume decides and, when allowed, consumes one unit of quota
// inside tx. The consumption commits or rolls back with the caller's action.
func (e *Engine) checkAndConsume(ctx context.Context, tx store.Tx, accountID string, action domain.Action) (*domain.Account, Decision, error) {
	acc, err := tx.GetAccountForUpdate(ctx, accountID)
	if err != nil {
		return nil, Decision{}, errors.Wrapf(err, "load account %s", accountID)
	}
	if acc.Role != action.Role() {
		return nil, Decision{}, errors.Wrapf(domain.ErrNotAuthorized, "%s accounts cannot %s", acc.Role, action)
	}

	changed := applyQuotaReset(acc, e.clock(), e.opts.QuotaPeriodMonths)

	decision := decide(acc)
	if !decision.Allowed {
		return acc, decision, nil
	}

	if acc.EntitlementTier != domain.TierPremium && acc.QuotaLimit != domain.UnlimitedQuota {
		acc.QuotaUsed++
		changed = true
	}

	if changed {
		if err := tx.UpdateAccountEntitlement(ctx, acc); err != nil {
			return nil, Decision{}, errors.Wrapf(err, "consume quota of %s", accountID)
		}
	}

	return acc, decision, nil
}

// CheckAndConsume consumes one unit of quota for action in its own transaction.
func (e *Engine) CheckAndConsume(ctx context.Context, accountID string, action domain.Action) (Decision, error) {
	var decision Decision
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		_, decision, err = e.checkAndConsume(ctx, tx, accountID, action)
		return err
	})
	return decision, err
}

// EnsureAccount creates the account on first login and returns the stored
// account on every later call.
func (e *Engine) EnsureAccount(ctx context.Context, accountID string, role domain.Role, email string) (*domain.Account, error) {
	if accountID == "" {
		return nil, domain.Validationf("account id is required")
	}
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}

	now := e.clock()
	acc := &domain.Account{
		ID:              accountID,
		Role:            role,
		Email:           email,
		EntitlementTier: domain.TierFree,
		QuotaLimit:      e.defaultQuota(role),
		QuotaResetAt:    addMonths(now, e.opts.QuotaPeriodMonths),
		CreatedAt:       now,
	}

	stored, err := e.store.CreateAccount(ctx, acc)
	if err != nil {
		return nil, errors.Wrapf(err, "create account %s", accountID)
	}
	return stored, nil
}

// GetAccount returns the account with any due quota reset applied to the
// returned value. The reset itself is persisted by the next consuming action.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, errors.Wrapf(err, "load account %s", accountID)
	}
	applyQuotaReset(acc, e.clock(), e.opts.QuotaPeriodMonths)
	return acc, nil
}

// ApplyEntitlementUpgrade moves the account to tier. Usage is kept; only the
// limit changes.
func (e *Engine) ApplyEntitlementUpgrade(ctx context.Context, accountID string, tier domain.Tier) (*domain.Account, error) {
	if !tier.Valid() {
		return nil, domain.Validationf("unknown tier %q", tier)
	}

	var acc *domain.Account
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		acc, err = tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return errors.Wrapf(err, "load account %s", accountID)
		}

		acc.EntitlementTier = tier
		if tier == domain.TierPremium {
			acc.QuotaLimit = domain.UnlimitedQuota
		} else {
			acc.QuotaLimit = e.defaultQuota(acc.Role)
		}
		applyQuotaReset(acc, e.clock(), e.opts.QuotaPeriodMonths)

		return tx.UpdateAccountEntitlement(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("entitlement updated", "account", accountID, "tier", tier)
	return acc, nil
}
