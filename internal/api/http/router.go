package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tenantflow-backend/internal/security"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Invitations   *InvitationHandler
	Webhooks      *WebhookHandler
	Admin         *AdminHandler
	Tokens        security.TokenManager
	WebhookSecret string
}

// NewRouter wires the API routes. Administrative endpoints sit behind bearer
// token auth; the identity webhook behind its shared secret.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public: the acceptance page validates its token before sign-up.
	api.HandleFunc("/invitations/{token}", deps.Invitations.Validate).Methods(http.MethodGet)

	// Identity webhook, shared-secret guarded.
	webhook := api.PathPrefix("/webhooks").Subrouter()
	webhook.Use(WebhookSecretMiddleware(deps.WebhookSecret))
	webhook.HandleFunc("/identity", deps.Webhooks.HandleIdentityChange).Methods(http.MethodPost)

	// Bootstrap is secret-guarded in the handler; it must work before any
	// administrative token can exist.
	api.HandleFunc("/admin/bootstrap", deps.Admin.Bootstrap).Methods(http.MethodPost)

	admin := api.PathPrefix("").Subrouter()
	admin.Use(AuthMiddleware(deps.Tokens))
	admin.HandleFunc("/invitations", deps.Invitations.Issue).Methods(http.MethodPost)
	admin.HandleFunc("/invitations/{token}/revoke", deps.Invitations.Revoke).Methods(http.MethodPost)
	admin.HandleFunc("/tenants/{tenantID}/invitations", deps.Invitations.ListPending).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}/permissions", deps.Admin.Permissions).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}/roles", deps.Admin.AssignRole).Methods(http.MethodPost)
	admin.HandleFunc("/admin/diagnostics", deps.Admin.Diagnostics).Methods(http.MethodGet)

	return r
}
