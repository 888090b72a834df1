package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/service"
)

type AdminHandler struct {
	access          service.AccessService
	bootstrap       service.BootstrapService
	bootstrapSecret string
}

func NewAdminHandler(access service.AccessService, bootstrap service.BootstrapService, bootstrapSecret string) *AdminHandler {
	return &AdminHandler{access: access, bootstrap: bootstrap, bootstrapSecret: bootstrapSecret}
}

// Diagnostics handles GET /api/v1/admin/diagnostics.
func (h *AdminHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	reports, err := h.bootstrap.DiagnoseInconsistentState(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Diagnostics run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "diagnostics run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inconsistencies": reports, "count": len(reports)})
}

type bootstrapRequest struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
}

// Bootstrap handles POST /api/v1/admin/bootstrap. It is guarded by a
// deployment secret rather than a bearer token because it runs before any
// administrative account exists.
func (h *AdminHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if h.bootstrapSecret == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.bootstrapSecret)) != 1 {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bootstrap secret")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "user_id is required")
		return
	}

	if err := h.bootstrap.BootstrapPrivilegedRole(r.Context(), req.UserID); err != nil {
		logger.ErrorContext(r.Context(), "Bootstrap failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "bootstrap failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "bootstrapped", "user_id": req.UserID})
}

// Permissions handles GET /api/v1/users/{userID}/permissions.
func (h *AdminHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	tenantID, err := optionalTenantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TENANT_ID", "tenant_id must be an integer")
		return
	}

	perms, err := h.access.ResolvePermissions(r.Context(), userID, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	role, err := h.access.PrimaryRole(r.Context(), userID, tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"permissions": perms.Names()}
	if role != nil {
		resp["primary_role"] = role.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

type assignRoleRequest struct {
	RoleName string `json:"role_name"`
	TenantID *int32 `json:"tenant_id,omitempty"`
}

// AssignRole handles POST /api/v1/users/{userID}/roles.
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if req.RoleName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "role_name is required")
		return
	}

	assignedBy := userID
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		assignedBy = claims.UserID
	}

	if err := h.access.AssignRole(r.Context(), userID, req.TenantID, req.RoleName, assignedBy); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned", "role": req.RoleName})
}

func optionalTenantID(r *http.Request) (*int32, error) {
	raw := r.URL.Query().Get("tenant_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	v := int32(id)
	return &v, nil
}
