package enums

import "fmt"

// OrganizationStatus maps to the organization_status enum in Postgres.
// Only Registered organizations may be counter-parties in transfers.
type OrganizationStatus string

const (
	OrgStatusUnregistered OrganizationStatus = "Unregistered"
	OrgStatusRegistered   OrganizationStatus = "Registered"
	OrgStatusSuspended    OrganizationStatus = "Suspended"
	OrgStatusCanceled     OrganizationStatus = "Canceled"
)

var validOrganizationStatuses = []OrganizationStatus{
	OrgStatusUnregistered,
	OrgStatusRegistered,
	OrgStatusSuspended,
	OrgStatusCanceled,
}

// IsValid reports whether the value matches the canonical organization status enum.
func (s OrganizationStatus) IsValid() bool {
	for _, candidate := range validOrganizationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrganizationStatus converts raw input into OrganizationStatus.
func ParseOrganizationStatus(value string) (OrganizationStatus, error) {
	for _, candidate := range validOrganizationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organization status %q", value)
}
