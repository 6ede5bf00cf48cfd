package domain

import "time"

type JobStatus string

const (
	JobStatusDraft  JobStatus = "draft"
	JobStatusActive JobStatus = "active"
	JobStatusClosed JobStatus = "closed"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusDraft:  {JobStatusActive},
	JobStatusActive: {JobStatusClosed},
	JobStatusClosed: {},
}

func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

func (s JobStatus) CanTransitionTo(to JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Job struct {
	ID               int64     `json:"id"`
	InstituteID      string    `json:"instituteID"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Subjects         Skills    `json:"subjects"`
	Status           JobStatus `json:"status"`
	ApplicationCount int       `json:"applicationCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Version          int32     `json:"version"`
}
