package workflow

// Role identifies the actor category attempting a transition
type Role string

const (
	RoleSiteEngineer    Role = "site_engineer"
	RolePurchaseOfficer Role = "purchase_officer"
	RoleManager         Role = "manager"
	RoleAdmin           Role = "admin"
)

var validRoles = map[Role]bool{
	RoleSiteEngineer:    true,
	RolePurchaseOfficer: true,
	RoleManager:         true,
	RoleAdmin:           true,
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
