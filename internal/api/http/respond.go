package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tenantflow-backend/internal/service"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeServiceError maps service-level failures to API error codes. The
// issuance-time taxonomy distinguishes validation, conflict, and state
// errors so the UI can react to each (§ "log in instead").
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL_FORMAT", err.Error())
	case errors.Is(err, service.ErrUnknownInvitationKind):
		writeError(w, http.StatusBadRequest, "INVALID_INVITATION_KIND", err.Error())
	case errors.Is(err, service.ErrTenantRequired):
		writeError(w, http.StatusBadRequest, "TENANT_REQUIRED", err.Error())
	case errors.Is(err, service.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "TENANT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		writeError(w, http.StatusConflict, "EMAIL_ALREADY_EXISTS", err.Error())
	case errors.Is(err, service.ErrDuplicateInvitation):
		writeError(w, http.StatusConflict, "DUPLICATE_INVITATION", err.Error())
	case errors.Is(err, service.ErrInviteNotFound):
		writeError(w, http.StatusNotFound, "INVITATION_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrInviteExpired):
		writeError(w, http.StatusGone, "INVITATION_EXPIRED", err.Error())
	case errors.Is(err, service.ErrInviteAccepted):
		writeError(w, http.StatusConflict, "INVITATION_ALREADY_ACCEPTED", err.Error())
	case errors.Is(err, service.ErrInviteRevoked):
		writeError(w, http.StatusGone, "INVITATION_REVOKED", err.Error())
	case errors.Is(err, service.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, "ROLE_NOT_FOUND", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
