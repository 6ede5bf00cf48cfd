package handler

import (
	"net/http"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.engine.ListNotifications(r.Context(), acc.ID, unreadOnly)
	if err != nil {
		h.engineError(w, r, err)
		return
	}
	unread, err := h.engine.CountUnreadNotifications(r.Context(), acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "notifications fetched", map[string]any{
		"notifications": notifications,
		"unread":        unread,
	})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	acc := r.Context().Value(AccountCtx).(*domain.Account)

	id, err := idParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	n, err := h.engine.MarkNotificationRead(r.Context(), id, acc.ID)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "notification marked as read", n)
}
