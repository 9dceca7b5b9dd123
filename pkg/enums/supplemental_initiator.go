package enums

import "fmt"

// SupplementalInitiator tags who opened a new version of an assessed report.
// Together with the version number it forms the report variant: nil initiator
// on version 0 is the original filing.
type SupplementalInitiator string

const (
	InitiatorSupplierSupplemental   SupplementalInitiator = "Supplier_Supplemental"
	InitiatorGovernmentReassessment SupplementalInitiator = "Government_Reassessment"
)

var validSupplementalInitiators = []SupplementalInitiator{
	InitiatorSupplierSupplemental,
	InitiatorGovernmentReassessment,
}

// IsValid reports whether the value matches the canonical initiator enum.
func (s SupplementalInitiator) IsValid() bool {
	for _, candidate := range validSupplementalInitiators {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSupplementalInitiator converts raw input into SupplementalInitiator.
func ParseSupplementalInitiator(value string) (SupplementalInitiator, error) {
	for _, candidate := range validSupplementalInitiators {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplemental initiator %q", value)
}
