package handler

import (
	"net/http"

	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
)

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	var req struct {
		Title       string        `json:"title" validate:"required,max=200"`
		Description string        `json:"description" validate:"max=20000"`
		Subjects    domain.Skills `json:"subjects"`
		Publish     bool          `json:"publish"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job, err := h.engine.CreateJob(r.Context(), acc.ID, hiring.JobInput{
		Title:       req.Title,
		Description: req.Description,
		Subjects:    req.Subjects,
		Publish:     req.Publish,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.createdResponse(w, r, "job created", job)
}

func (h *Handler) GetActiveJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.engine.ListActiveJobs(r.Context())
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "jobs fetched", jobs)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)
	h.successResponse(w, r, "job fetched", job)
}

func (h *Handler) PublishJob(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	job := r.Context().Value(JobCtx).(*domain.Job)

	published, err := h.engine.PublishJob(r.Context(), job.ID, acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "job published", published)
}

func (h *Handler) CloseJob(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	job := r.Context().Value(JobCtx).(*domain.Job)

	closed, err := h.engine.CloseJob(r.Context(), job.ID, acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "job closed", closed)
}

func (h *Handler) GetJobApplications(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	job := r.Context().Value(JobCtx).(*domain.Job)

	apps, err := h.engine.ListJobApplications(r.Context(), job.ID, acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "applications fetched", apps)
}

func (h *Handler) ApplyToJob(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		CoverLetter string `json:"coverLetter" validate:"max=5000"`
	}

	if r.ContentLength != 0 {
		if err := h.readJSON(w, r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	app, err := h.engine.Apply(r.Context(), job.ID, acc.ID, req.CoverLetter)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.createdResponse(w, r, "application submitted", app)
}
