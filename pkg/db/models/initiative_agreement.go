package models

import (
	"time"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// InitiativeAgreement issues units to an organization under a Part 3
// agreement. Approval appends the linked Adjustment.
type InitiativeAgreement struct {
	ID               int64                 `gorm:"column:initiative_agreement_id;primaryKey;autoIncrement"`
	ToOrganizationID int64                 `gorm:"column:to_organization_id;not null;index"`
	TransactionID    *int64                `gorm:"column:transaction_id"`
	ComplianceUnits  int64                 `gorm:"column:compliance_units;not null"`
	Status           enums.AgreementStatus `gorm:"column:current_status;type:agreement_status;not null;default:'Draft'"`
	EffectiveDate    *time.Time            `gorm:"column:effective_date"`
	GovComment       *string               `gorm:"column:gov_comment"`

	AuditStamps
}

func (InitiativeAgreement) TableName() string { return "initiative_agreement" }
