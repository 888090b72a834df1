package domain

// Missing-entity markers reported by the consistency diagnostics.
const (
	MissingProfile    = "profile"
	MissingEmployee   = "employee"
	MissingActiveRole = "active_role"
)

// InconsistencyReport names a confirmed identity that lacks one or more of
// the entities provisioning should have created.
type InconsistencyReport struct {
	Identity IdentitySnapshot `json:"identity"`
	Missing  []string         `json:"missing"`
}
