package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tenantflow-backend/internal/domain"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/service"
)

type InvitationHandler struct {
	invitations service.InvitationService
}

func NewInvitationHandler(invitations service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type issueInvitationResponse struct {
	Invitation       *domain.Invitation `json:"invitation"`
	ConfirmationLink string             `json:"confirmation_link"`
}

// Issue handles POST /api/v1/invitations.
func (h *InvitationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req service.IssueInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}

	if req.InvitedBy == "" {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			req.InvitedBy = claims.UserID
		}
	}

	inv, link, err := h.invitations.Issue(r.Context(), req)
	if err != nil {
		logger.WarnContext(r.Context(), "Invitation issuance rejected", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueInvitationResponse{Invitation: inv, ConfirmationLink: link})
}

// Validate handles GET /api/v1/invitations/{token}. Read-only, safe to poll
// from the acceptance page.
func (h *InvitationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	inv, err := h.invitations.Validate(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Revoke handles POST /api/v1/invitations/{token}/revoke.
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	if err := h.invitations.Revoke(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// ListPending handles GET /api/v1/tenants/{tenantID}/invitations.
func (h *InvitationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(mux.Vars(r)["tenantID"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TENANT_ID", "tenant id must be an integer")
		return
	}

	invitations, err := h.invitations.ListPending(r.Context(), int32(tenantID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": invitations})
}
