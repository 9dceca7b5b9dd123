package enums

import "fmt"

// LedgerSource identifies which wrapper originated a credit ledger row. The
// credit ledger deduplicates on (transaction_id, source, organization_id).
type LedgerSource string

const (
	LedgerSourceTransfer              LedgerSource = "Transfer"
	LedgerSourceInitiativeAgreement   LedgerSource = "InitiativeAgreement"
	LedgerSourceAdminAdjustment       LedgerSource = "AdminAdjustment"
	LedgerSourceComplianceReport      LedgerSource = "ComplianceReport"
	LedgerSourceStandaloneTransaction LedgerSource = "StandaloneTransaction"
)

var validLedgerSources = []LedgerSource{
	LedgerSourceTransfer,
	LedgerSourceInitiativeAgreement,
	LedgerSourceAdminAdjustment,
	LedgerSourceComplianceReport,
	LedgerSourceStandaloneTransaction,
}

// IsValid reports whether the value matches the canonical ledger source enum.
func (s LedgerSource) IsValid() bool {
	for _, candidate := range validLedgerSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLedgerSource converts raw input into LedgerSource.
func ParseLedgerSource(value string) (LedgerSource, error) {
	for _, candidate := range validLedgerSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger source %q", value)
}
