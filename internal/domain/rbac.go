package domain

// Role names seeded for every org. Policies attach to these, so the names are
// part of the wire contract with the identity provider's role claim.
const (
	RoleWorker  = "worker"
	RoleForeman = "foreman"
	RoleManager = "manager"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

type EnforceRequest struct {
	UserID   string `json:"user_id"`
	OrgID    string `json:"org_id"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type PermissionResponse struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Label    string `json:"label"`
	Category string `json:"category"`
}
