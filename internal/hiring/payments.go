package hiring

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

// PaymentEvent is a verified "payment completed" event from the payment processor.
type PaymentEvent struct {
	ID        string
	AccountID string
	PlanID    string
}

func (e *Engine) tierForPlan(planID string) (domain.Tier, error) {
	if slices.Contains(e.opts.PremiumPlanIDs, planID) {
		return domain.TierPremium, nil
	}
	return "", domain.Validationf("unknown plan %q", planID)
}

// ApplyPaymentEvent upgrades the paying account. The upgrade is idempotent,
// so redelivered events are applied again; only the confirmation mail is
// deduplicated by event id.
func (e *Engine) ApplyPaymentEvent(ctx context.Context, event PaymentEvent) (*domain.Account, error) {
	if event.ID == "" || event.AccountID == "" {
		return nil, domain.Validationf("payment event requires an id and an account id")
	}

	tier, err := e.tierForPlan(event.PlanID)
	if err != nil {
		return nil, err
	}

	acc, err := e.ApplyEntitlementUpgrade(ctx, event.AccountID, tier)
	if err != nil {
		return nil, errors.Wrapf(err, "apply payment %s", event.ID)
	}

	first := true
	if e.events != nil {
		first, err = e.events.FirstSeen(ctx, "payment_event_"+event.ID)
		if err != nil {
			e.logger.Warn("failed to record payment event", "event", event.ID, "error", err)
			first = true
		}
	}

	if first {
		e.publish(ctx, domain.MailMessage{
			Type: domain.MailEntitlementUpgraded,
			To:   acc.Email,
			Data: domain.EntitlementUpgradedMailData{Tier: tier},
		})
	}

	return acc, nil
}
