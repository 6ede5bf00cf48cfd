package domain

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationTransitionTable(t *testing.T) {
	allowed := map[ApplicationStatus][]ApplicationStatus{
		StatusApplied:     {StatusUnderReview, StatusShortlisted, StatusRejected},
		StatusUnderReview: {StatusShortlisted, StatusRejected},
		StatusShortlisted: {StatusInterview, StatusRejected},
		StatusInterview:   {StatusHired, StatusRejected},
	}

	for _, from := range AllApplicationStatuses {
		for _, to := range AllApplicationStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, StatusHired.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusInterview.Terminal())
	assert.False(t, ApplicationStatus("archived").Valid())
	assert.False(t, ApplicationStatus("archived").CanTransitionTo(StatusRejected))
}

func TestNotifies(t *testing.T) {
	assert.False(t, StatusApplied.Notifies())
	assert.False(t, StatusUnderReview.Notifies())
	assert.True(t, StatusShortlisted.Notifies())
	assert.True(t, StatusInterview.Notifies())
	assert.True(t, StatusHired.Notifies())
	assert.True(t, StatusRejected.Notifies())
}

func TestJobTransitions(t *testing.T) {
	assert.True(t, JobStatusDraft.CanTransitionTo(JobStatusActive))
	assert.True(t, JobStatusActive.CanTransitionTo(JobStatusClosed))
	assert.False(t, JobStatusDraft.CanTransitionTo(JobStatusClosed))
	assert.False(t, JobStatusClosed.CanTransitionTo(JobStatusActive))
	assert.False(t, JobStatusActive.CanTransitionTo(JobStatusDraft))
}

func TestDedupeKey(t *testing.T) {
	assert.Equal(t, "42_shortlisted", DedupeKey(42, StatusShortlisted))
}

func TestParseSkills(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		s, err := ParseSkills([]byte(`[" Math ", "physics", "math", ""]`))
		require.NoError(t, err)
		assert.Equal(t, Skills{"Math", "physics"}, s)
	})

	t.Run("comma separated string", func(t *testing.T) {
		s, err := ParseSkills([]byte(`"Chemistry,  biology , ,Chemistry"`))
		require.NoError(t, err)
		assert.Equal(t, Skills{"Chemistry", "biology"}, s)
	})

	t.Run("null", func(t *testing.T) {
		s, err := ParseSkills([]byte(`null`))
		require.NoError(t, err)
		assert.Empty(t, s)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := ParseSkills([]byte(`{"a": 1}`))
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("marshals nil as empty list", func(t *testing.T) {
		b, err := json.Marshal(struct {
			S Skills `json:"s"`
		}{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"s": []}`, string(b))
	})
}

func TestQuotaRemaining(t *testing.T) {
	acc := &Account{EntitlementTier: TierFree, QuotaLimit: 5, QuotaUsed: 4}
	assert.Equal(t, 1, acc.QuotaRemaining())
	acc.QuotaUsed = 7
	assert.Equal(t, 0, acc.QuotaRemaining())
	acc.EntitlementTier = TierPremium
	assert.Equal(t, UnlimitedQuota, acc.QuotaRemaining())
}

func TestIsRoutine(t *testing.T) {
	assert.True(t, IsRoutine(errors.Wrap(ErrQuotaExhausted, "apply")))
	assert.True(t, IsRoutine(ErrInvalidTransition))
	assert.False(t, IsRoutine(errors.New("connection reset")))
}
