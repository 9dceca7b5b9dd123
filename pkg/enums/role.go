package enums

// Role is the pre-authorized role set attached to a facade actor. The core
// does not authenticate; callers map identity to roles before invoking it.
type Role string

const (
	RoleSupplier            Role = "Supplier"
	RoleComplianceReporting Role = "Compliance_Reporting"
	RoleSigningAuthority    Role = "Signing_Authority"
	RoleAnalyst             Role = "Analyst"
	RoleComplianceManager   Role = "Compliance_Manager"
	RoleDirector            Role = "Director"
	RoleAdministrator       Role = "Administrator"
	RoleGovernment          Role = "Government"
	RoleReadOnly            Role = "Read_Only"
)

var governmentRoles = map[Role]bool{
	RoleAnalyst:           true,
	RoleComplianceManager: true,
	RoleDirector:          true,
	RoleAdministrator:     true,
	RoleGovernment:        true,
}

// IsGovernment reports whether the role belongs to the government side.
func (r Role) IsGovernment() bool {
	return governmentRoles[r]
}

// Roles is a helper over an actor's role set.
type Roles []Role

// Has reports whether the set contains the role.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of the roles.
func (rs Roles) HasAny(roles ...Role) bool {
	for _, role := range roles {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// IsGovernment reports whether any role in the set is a government role.
func (rs Roles) IsGovernment() bool {
	for _, r := range rs {
		if r.IsGovernment() {
			return true
		}
	}
	return false
}
