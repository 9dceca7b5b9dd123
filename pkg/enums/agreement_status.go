package enums

import "fmt"

// AgreementStatus covers initiative agreements and administrative adjustments.
type AgreementStatus string

const (
	AgreementStatusDraft       AgreementStatus = "Draft"
	AgreementStatusRecommended AgreementStatus = "Recommended"
	AgreementStatusApproved    AgreementStatus = "Approved"
	AgreementStatusDeleted     AgreementStatus = "Deleted"
)

var validAgreementStatuses = []AgreementStatus{
	AgreementStatusDraft,
	AgreementStatusRecommended,
	AgreementStatusApproved,
	AgreementStatusDeleted,
}

// IsValid reports whether the value matches the canonical agreement status enum.
func (s AgreementStatus) IsValid() bool {
	for _, candidate := range validAgreementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAgreementStatus converts raw input into AgreementStatus.
func ParseAgreementStatus(value string) (AgreementStatus, error) {
	for _, candidate := range validAgreementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agreement status %q", value)
}
