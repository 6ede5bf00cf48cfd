package handler

import (
	"net/http"

	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/hiring"
)

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	id, err := idParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	view, err := h.engine.GetApplicationView(r.Context(), id, acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "application fetched", view)
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	id, err := idParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req struct {
		Status  string `json:"status" validate:"required,oneof=applied under_review shortlisted interview hired rejected"`
		Version int32  `json:"version" validate:"gte=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	app, err := h.engine.Transition(r.Context(), hiring.TransitionRequest{
		ApplicationID:   id,
		To:              domain.ApplicationStatus(req.Status),
		ActorID:         acc.ID,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "application status updated", app)
}

func (h *Handler) WithdrawApplication(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	id, err := idParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.engine.Withdraw(r.Context(), id, acc.ID); err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "application withdrawn", nil)
}
