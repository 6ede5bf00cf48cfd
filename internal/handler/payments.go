package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/teachhire/marketplace/backend/internal/hiring"
)

const (
	signatureHeader      = "X-Signature"
	paymentCompletedType = "payment.completed"
)

type paymentWebhookEvent struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`
	Data struct {
		AccountID string `json:"accountId"`
		PlanID    string `json:"planId"`
	} `json:"data"`
}

// SignPayload returns the hex HMAC-SHA256 of body, as sent in the signature header.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *Handler) validSignature(body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(SignPayload(h.config.Payment.WebhookSecret, body))
	return hmac.Equal(got, want)
}

func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.errorResponse(w, r, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		h.errorResponse(w, r, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event paymentWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "malformed event")
		return
	}
	if err := h.validate.Struct(event); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// other event types are acknowledged so the processor stops redelivering them
	if event.Type != paymentCompletedType {
		slog.Debug("ignoring payment event", "event", event.ID, "type", event.Type)
		h.successResponse(w, r, "event ignored", nil)
		return
	}

	acc, err := h.engine.ApplyPaymentEvent(r.Context(), hiring.PaymentEvent{
		ID:        event.ID,
		AccountID: event.Data.AccountID,
		PlanID:    event.Data.PlanID,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "entitlement updated", newAccountResponse(acc))
}
