package models

import (
	"github.com/shopspring/decimal"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// AllocationAgreement allocates responsibility for fuel between parties.
// Only the "Allocated from" side earns compliance units.
type AllocationAgreement struct {
	ID       int64 `gorm:"column:allocation_agreement_id;primaryKey;autoIncrement"`
	ReportID int64 `gorm:"column:compliance_report_id;not null;index"`

	LineVersion

	TransactionPartner string                          `gorm:"column:transaction_partner;not null"`
	AllocationType     enums.AllocationTransactionType `gorm:"column:allocation_transaction_type;type:allocation_transaction_type;not null"`
	FuelTypeID         int64                           `gorm:"column:fuel_type_id;not null"`
	FuelCategoryID     int64                           `gorm:"column:fuel_category_id;not null"`
	EndUseID           int64                           `gorm:"column:end_use_id;not null"`
	ProvisionID        int64                           `gorm:"column:provision_of_the_act_id;not null"`
	FuelCodeID         *int64                          `gorm:"column:fuel_code_id"`
	Quantity           decimal.Decimal                 `gorm:"column:quantity;type:numeric(20,4);not null"`
	Units              string                          `gorm:"column:units"`

	ComplianceUnits int64 `gorm:"column:compliance_units;not null;default:0"`

	AuditStamps
}

func (AllocationAgreement) TableName() string { return "allocation_agreement" }
