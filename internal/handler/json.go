package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

const maxBodyBytes = 1 << 20

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "request_id", r.Context().Value(RequestIDCtxKey), "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(domain.ErrValidation, "malformed JSON body")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.errorResponse(w, r, http.StatusBadRequest, validationErrors[0].Translate(h.translator))
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

// engineError answers with the status of a routine business outcome and
// treats anything else as an internal error.
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.badRequest(w, r, err)
		return
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrDuplicateApplication):
		status, msg = http.StatusConflict, "you have already applied to this job"
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, "the resource was changed by someone else, reload and try again"
	case errors.Is(err, domain.ErrQuotaExhausted):
		status, msg = http.StatusPaymentRequired, "quota exhausted for this period"
	case errors.Is(err, domain.ErrAccountSuspended):
		status, msg = http.StatusForbidden, "account suspended"
	case errors.Is(err, domain.ErrNotAuthorized):
		status, msg = http.StatusForbidden, "permission denied"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, msg = http.StatusUnprocessableEntity, "status change not allowed"
	case errors.Is(err, domain.ErrJobNotActive):
		status, msg = http.StatusUnprocessableEntity, "job is not accepting applications"
	default:
		h.internalServerError(w, r, err)
		return
	}

	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += ": " + strings.Join(hints, "; ")
	}
	h.errorResponse(w, r, status, msg)
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}
