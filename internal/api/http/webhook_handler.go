package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/service"
)

type WebhookHandler struct {
	router service.ConfirmationRouter
}

func NewWebhookHandler(router service.ConfirmationRouter) *WebhookHandler {
	return &WebhookHandler{router: router}
}

type webhookResponse struct {
	Status string                     `json:"status"`
	Result *domain.ProvisioningResult `json:"result,omitempty"`
}

// HandleIdentityChange handles POST /api/v1/webhooks/identity. The sender
// retries on non-2xx, so transient failures return 500 and everything the
// pipeline classified as a no-op is acknowledged with 200.
func (h *WebhookHandler) HandleIdentityChange(w http.ResponseWriter, r *http.Request) {
	var event domain.IdentityChangeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "MALFORMED_EVENT", "event body is not valid JSON")
		return
	}

	result, err := h.router.HandleIdentityChange(r.Context(), &event)
	if err != nil {
		if errors.Is(err, service.ErrMalformedEvent) {
			writeError(w, http.StatusBadRequest, "MALFORMED_EVENT", err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "Identity change handling failed", "error", err)
		writeError(w, http.StatusInternalServerError, "PROVISIONING_FAILED", "identity change could not be processed")
		return
	}

	if result == nil {
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored"})
		return
	}
	status := "provisioned"
	if result.AlreadyProvisioned {
		status = "already_provisioned"
	}
	writeJSON(w, http.StatusOK, webhookResponse{Status: status, Result: result})
}
