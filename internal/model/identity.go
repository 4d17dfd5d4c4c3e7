package model

// Role is the privilege tier attached to a verified identity.
type Role string

const (
	RoleUser       Role = "user"
	RoleSender     Role = "sender"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Known reports whether r is one of the recognized roles. Unknown roles are
// denied everywhere rather than defaulting to a tier.
func (r Role) Known() bool {
	switch r {
	case RoleUser, RoleSender, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// Identity is the verified caller tuple consumed from the identity provider.
// The core trusts it per request and never mutates it.
type Identity struct {
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id"`
}
