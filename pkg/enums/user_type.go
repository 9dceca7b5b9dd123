package enums

// UserType distinguishes supplier-entered from government-entered rows.
type UserType string

const (
	UserTypeSupplier   UserType = "SUPPLIER"
	UserTypeGovernment UserType = "GOVERNMENT"
)

// IsValid reports whether the value matches the canonical user type enum.
func (u UserType) IsValid() bool {
	return u == UserTypeSupplier || u == UserTypeGovernment
}
