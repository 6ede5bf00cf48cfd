package domain

import "time"

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleInstitute Role = "institute"
)

func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleInstitute
}

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// UnlimitedQuota is stored as the quota limit of premium accounts.
const UnlimitedQuota = -1

type Action string

const (
	ActionPostJob           Action = "postJob"
	ActionSubmitApplication Action = "submitApplication"
)

// Role returns the account role allowed to perform the action.
func (a Action) Role() Role {
	if a == ActionPostJob {
		return RoleInstitute
	}
	return RoleCandidate
}

type Account struct {
	ID              string    `json:"id"`
	Role            Role      `json:"role"`
	Email           string    `json:"email"`
	EntitlementTier Tier      `json:"entitlementTier"`
	QuotaUsed       int       `json:"quotaUsed"`
	QuotaLimit      int       `json:"quotaLimit"`
	QuotaResetAt    time.Time `json:"quotaResetAt"`
	Suspended       bool      `json:"suspended"`
	ResumePath      string    `json:"resumePath,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}

// QuotaRemaining returns -1 for unbounded accounts.
func (a *Account) QuotaRemaining() int {
	if a.EntitlementTier == TierPremium || a.QuotaLimit == UnlimitedQuota {
		return UnlimitedQuota
	}
	if a.QuotaUsed >= a.QuotaLimit {
		return 0
	}
	return a.QuotaLimit - a.QuotaUsed
}
