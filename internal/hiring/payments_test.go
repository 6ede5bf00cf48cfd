package hiring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
)

func TestApplyPaymentEvent(t *testing.T) {
	f := newFixture(t)
	f.candidate(t, "cand1")
	_, err := f.engine.CheckAndConsume(f.ctx, "cand1", domain.ActionSubmitApplication)
	require.NoError(t, err)

	event := hiring.PaymentEvent{ID: "evt_1", AccountID: "cand1", PlanID: "premium_monthly"}
	acc, err := f.engine.ApplyPaymentEvent(f.ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, acc.EntitlementTier)
	assert.Equal(t, domain.UnlimitedQuota, acc.QuotaLimit)
	assert.Equal(t, 1, acc.QuotaUsed, "usage survives the upgrade")

	again, err := f.engine.ApplyPaymentEvent(f.ctx, event)
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, again.EntitlementTier)

	sent := f.mail.sent()
	require.Len(t, sent, 1, "redelivered events must not mail twice")
	assert.Equal(t, domain.MailEntitlementUpgraded, sent[0].Type)
	assert.Equal(t, "cand1@example.com", sent[0].To)

	decision, err := f.engine.CheckAndConsume(f.ctx, "cand1", domain.ActionSubmitApplication)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	stored, err := f.engine.GetAccount(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QuotaUsed)
}

func TestApplyPaymentEventRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.candidate(t, "cand1")

	_, err := f.engine.ApplyPaymentEvent(f.ctx, hiring.PaymentEvent{ID: "evt_1", AccountID: "cand1", PlanID: "gold"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.engine.ApplyPaymentEvent(f.ctx, hiring.PaymentEvent{AccountID: "cand1", PlanID: "premium_monthly"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.engine.ApplyPaymentEvent(f.ctx, hiring.PaymentEvent{ID: "evt_2", AccountID: "ghost", PlanID: "premium_monthly"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	acc, err := f.engine.GetAccount(f.ctx, "cand1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, acc.EntitlementTier)
}
