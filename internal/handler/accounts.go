package handler

import (
	"net/http"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

type accountResponse struct {
	*domain.Account
	QuotaRemaining int `json:"quotaRemaining"`
}

func newAccountResponse(acc *domain.Account) accountResponse {
	return accountResponse{Account: acc, QuotaRemaining: acc.QuotaRemaining()}
}

func (h *Handler) EnsureMyAccount(w http.ResponseWriter, r *http.Request) {
	claims := struct {
		Sub   string `validate:"required"`
		Role  string `validate:"required,oneof=candidate institute"`
		Email string `validate:"omitempty,email"`
	}{
		Sub:   r.Context().Value(SubCtxKey).(string),
		Role:  r.Context().Value(RoleCtxKey).(string),
		Email: r.Context().Value(EmailCtxKey).(string),
	}
	if err := h.validate.Struct(claims); err != nil {
		h.badRequest(w, r, err)
		return
	}

	acc, err := h.engine.EnsureAccount(r.Context(), claims.Sub, domain.Role(claims.Role), claims.Email)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "account ready", newAccountResponse(acc))
}

func (h *Handler) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	h.successResponse(w, r, "account fetched", newAccountResponse(acc))
}

func (h *Handler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	var (
		stats any
		err   error
	)
	switch acc.Role {
	case domain.RoleInstitute:
		stats, err = h.engine.ComputeInstituteStats(r.Context(), acc.ID)
	default:
		stats, err = h.engine.ComputeCandidateStats(r.Context(), acc.ID)
	}
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "stats fetched", stats)
}

func (h *Handler) SetMyResume(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	var req struct {
		Path string `json:"path" validate:"required,max=512"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.engine.SetResumePath(r.Context(), acc.ID, req.Path); err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "resume updated", nil)
}

func (h *Handler) GetMyApplications(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	var (
		apps []*domain.Application
		err  error
	)
	switch acc.Role {
	case domain.RoleInstitute:
		apps, err = h.engine.ListInstituteApplications(r.Context(), acc.ID)
	default:
		apps, err = h.engine.ListCandidateApplications(r.Context(), acc.ID)
	}
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "applications fetched", apps)
}
