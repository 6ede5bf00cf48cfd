package domain

import "time"

type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterview   ApplicationStatus = "interview"
	StatusHired       ApplicationStatus = "hired"
	StatusRejected    ApplicationStatus = "rejected"
)

// applicationTransitions is the complete status graph; any pair not listed is rejected.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusApplied:     {StatusUnderReview, StatusShortlisted, StatusRejected},
	StatusUnderReview: {StatusShortlisted, StatusRejected},
	StatusShortlisted: {StatusInterview, StatusRejected},
	StatusInterview:   {StatusHired, StatusRejected},
	StatusHired:       {},
	StatusRejected:    {},
}

// AllApplicationStatuses lists the states in workflow order.
var AllApplicationStatuses = []ApplicationStatus{
	StatusApplied,
	StatusUnderReview,
	StatusShortlisted,
	StatusInterview,
	StatusHired,
	StatusRejected,
}

func (s ApplicationStatus) Valid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

func (s ApplicationStatus) Terminal() bool {
	return s.Valid() && len(applicationTransitions[s]) == 0
}

func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Notifies reports whether entering s produces a candidate notification.
func (s ApplicationStatus) Notifies() bool {
	switch s {
	case StatusShortlisted, StatusInterview, StatusHired, StatusRejected:
		return true
	}
	return false
}

type StatusChange struct {
	Status    ApplicationStatus `json:"status"`
	ChangedBy string            `json:"changedBy"`
	Timestamp time.Time         `json:"timestamp"`
}

type Application struct {
	ID            int64             `json:"id"`
	JobID         int64             `json:"jobID"`
	CandidateID   string            `json:"candidateID"`
	InstituteID   string            `json:"instituteID"`
	Status        ApplicationStatus `json:"status"`
	StatusHistory []StatusChange    `json:"statusHistory"`
	CoverLetter   string            `json:"coverLetter,omitempty"`
	AppliedAt     time.Time         `json:"appliedAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Version       int32             `json:"version"`
}

// ApplicationView is an application assembled with its display context.
type ApplicationView struct {
	*Application
	ResumeURL string `json:"resumeURL,omitempty"`
}
