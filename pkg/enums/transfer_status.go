package enums

import "fmt"

// TransferStatus maps to the transfer_status enum in Postgres.
type TransferStatus string

const (
	TransferStatusDraft       TransferStatus = "Draft"
	TransferStatusDeleted     TransferStatus = "Deleted"
	TransferStatusSent        TransferStatus = "Sent"
	TransferStatusSubmitted   TransferStatus = "Submitted"
	TransferStatusRecommended TransferStatus = "Recommended"
	TransferStatusRecorded    TransferStatus = "Recorded"
	TransferStatusRefused     TransferStatus = "Refused"
	TransferStatusDeclined    TransferStatus = "Declined"
	TransferStatusRescinded   TransferStatus = "Rescinded"
)

var validTransferStatuses = []TransferStatus{
	TransferStatusDraft,
	TransferStatusDeleted,
	TransferStatusSent,
	TransferStatusSubmitted,
	TransferStatusRecommended,
	TransferStatusRecorded,
	TransferStatusRefused,
	TransferStatusDeclined,
	TransferStatusRescinded,
}

// IsValid reports whether the value matches the canonical transfer status enum.
func (s TransferStatus) IsValid() bool {
	for _, candidate := range validTransferStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusDeleted, TransferStatusRecorded, TransferStatusRefused,
		TransferStatusDeclined, TransferStatusRescinded:
		return true
	}
	return false
}

// ParseTransferStatus converts raw input into TransferStatus.
func ParseTransferStatus(value string) (TransferStatus, error) {
	for _, candidate := range validTransferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer status %q", value)
}
