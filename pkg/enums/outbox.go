package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateComplianceReport    OutboxAggregateType = "compliance_report"
	AggregateTransfer            OutboxAggregateType = "transfer"
	AggregateInitiativeAgreement OutboxAggregateType = "initiative_agreement"
	AggregateAdminAdjustment     OutboxAggregateType = "admin_adjustment"
	AggregateTransaction         OutboxAggregateType = "transaction"
	AggregateOrganization        OutboxAggregateType = "organization"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateComplianceReport,
	AggregateTransfer,
	AggregateInitiativeAgreement,
	AggregateAdminAdjustment,
	AggregateTransaction,
	AggregateOrganization,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventNotificationRequested OutboxEventType = "notification_requested"
	EventReportStatusChanged   OutboxEventType = "report_status_changed"
	EventReportAssessed        OutboxEventType = "report_assessed"
	EventTransferRecorded      OutboxEventType = "transfer_recorded"
	EventAgreementApproved     OutboxEventType = "agreement_approved"
	EventLedgerRefreshNeeded   OutboxEventType = "ledger_refresh_needed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventNotificationRequested,
	EventReportStatusChanged,
	EventReportAssessed,
	EventTransferRecorded,
	EventAgreementApproved,
	EventLedgerRefreshNeeded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason categorizes terminal publish failures.
type OutboxDLQErrorReason string

const (
	DLQReasonDecodeFailed   OutboxDLQErrorReason = "decode_failed"
	DLQReasonPublishFailed  OutboxDLQErrorReason = "publish_failed"
	DLQReasonMaxAttempts    OutboxDLQErrorReason = "max_attempts_exceeded"
	DLQReasonUnknownPayload OutboxDLQErrorReason = "unknown_payload"
)

// IsValid reports whether the value matches the canonical DLQ reason enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case DLQReasonDecodeFailed, DLQReasonPublishFailed, DLQReasonMaxAttempts, DLQReasonUnknownPayload:
		return true
	}
	return false
}
