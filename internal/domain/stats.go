package domain

type CandidateStats struct {
	TotalApplied int `json:"totalApplied"`
	Shortlisted  int `json:"shortlisted"`
	Interviews   int `json:"interviews"`
	Rejected     int `json:"rejected"`
	Hired        int `json:"hired"`
	SuccessRate  int `json:"successRate"`
}

type InstituteStats struct {
	TotalJobs         int `json:"totalJobs"`
	ActiveJobs        int `json:"activeJobs"`
	TotalApplications int `json:"totalApplications"`
	Shortlisted       int `json:"shortlisted"`
	Interviews        int `json:"interviews"`
	Rejected          int `json:"rejected"`
	Hired             int `json:"hired"`
	SuccessRate       int `json:"successRate"`
}
