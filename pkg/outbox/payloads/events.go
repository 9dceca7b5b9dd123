package payloads

import (
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// NotificationRequestedEvent asks the notification sink to render and deliver
// a message to the holders of the recipient roles within an organization.
type NotificationRequestedEvent struct {
	Template         enums.NotificationTemplate `json:"template"`
	RecipientRoleSet []enums.Role               `json:"recipientRoleSet"`
	OrganizationID   int64                      `json:"organizationId"`
	ReportID         *int64                     `json:"reportId,omitempty"`
	TransferID       *int64                     `json:"transferId,omitempty"`
	AgreementID      *int64                     `json:"agreementId,omitempty"`
	Message          string                     `json:"message,omitempty"`
}

// ReportStatusChangedEvent records a compliance report moving between
// workflow statuses.
type ReportStatusChangedEvent struct {
	ReportID       int64              `json:"reportId"`
	OrganizationID int64              `json:"organizationId"`
	Period         int                `json:"period"`
	FromStatus     enums.ReportStatus `json:"fromStatus"`
	ToStatus       enums.ReportStatus `json:"toStatus"`
}

// ReportAssessedEvent records a terminal assessment with its final unit
// position.
type ReportAssessedEvent struct {
	ReportID        int64 `json:"reportId"`
	OrganizationID  int64 `json:"organizationId"`
	Period          int   `json:"period"`
	ComplianceUnits int64 `json:"complianceUnits"`
	PenaltyPayable  int64 `json:"penaltyPayable"`
}

// TransferRecordedEvent records the government recording a transfer between
// two organizations.
type TransferRecordedEvent struct {
	TransferID         int64 `json:"transferId"`
	FromOrganizationID int64 `json:"fromOrganizationId"`
	ToOrganizationID   int64 `json:"toOrganizationId"`
	Quantity           int64 `json:"quantity"`
}

// AgreementApprovedEvent records an initiative agreement or administrative
// adjustment issuing units.
type AgreementApprovedEvent struct {
	AgreementID     int64 `json:"agreementId"`
	OrganizationID  int64 `json:"organizationId"`
	ComplianceUnits int64 `json:"complianceUnits"`
}

// LedgerRefreshNeededEvent asks the refresh worker to rebuild one
// organization's credit ledger read model.
type LedgerRefreshNeededEvent struct {
	OrganizationID int64 `json:"organizationId"`
}
