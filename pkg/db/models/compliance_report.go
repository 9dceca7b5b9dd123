package models

import (
	"github.com/google/uuid"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// ComplianceReport is one version within a report group. Versions are
// contiguous from 0; the group shares GroupUUID. TransactionID links the
// ledger Adjustment created when this version was assessed.
type ComplianceReport struct {
	ID               int64                        `gorm:"column:compliance_report_id;primaryKey;autoIncrement"`
	GroupUUID        uuid.UUID                    `gorm:"column:compliance_report_group_uuid;type:uuid;not null;index"`
	Version          int                          `gorm:"column:version;not null"`
	OrganizationID   int64                        `gorm:"column:organization_id;not null;index"`
	CompliancePeriod int                          `gorm:"column:compliance_period;not null"`
	CurrentStatus    enums.ReportStatus           `gorm:"column:current_status;type:compliance_report_status;not null;default:'Draft'"`
	Frequency        enums.ReportingFrequency     `gorm:"column:reporting_frequency;type:reporting_frequency;not null;default:'Annual'"`
	Initiator        *enums.SupplementalInitiator `gorm:"column:supplemental_initiator;type:supplemental_initiator"`
	TransactionID    *int64                       `gorm:"column:transaction_id"`
	Nickname         *string                      `gorm:"column:nickname"`

	AuditStamps
}

func (ComplianceReport) TableName() string { return "compliance_report" }

// Variant folds the nullable initiator and version into the report variant.
type ReportVariant int

const (
	VariantOriginal ReportVariant = iota
	VariantSupplierSupplemental
	VariantGovernmentReassessment
)

// Variant returns which of the three report variants this version is.
func (r ComplianceReport) Variant() ReportVariant {
	if r.Initiator == nil {
		return VariantOriginal
	}
	if *r.Initiator == enums.InitiatorGovernmentReassessment {
		return VariantGovernmentReassessment
	}
	return VariantSupplierSupplemental
}
