package models

import (
	"github.com/shopspring/decimal"
)

// NotionalTransfer records volume notionally transferred between suppliers
// under an agreement. It feeds the renewable-requirement lines of the form
// and earns no compliance units itself.
type NotionalTransfer struct {
	ID       int64 `gorm:"column:notional_transfer_id;primaryKey;autoIncrement"`
	ReportID int64 `gorm:"column:compliance_report_id;not null;index"`

	LineVersion

	LegalName      string          `gorm:"column:legal_name;not null"`
	FuelCategoryID int64           `gorm:"column:fuel_category_id;not null"`
	Received       bool            `gorm:"column:received;not null"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null"`

	ComplianceUnits int64 `gorm:"column:compliance_units;not null;default:0"`

	AuditStamps
}

func (NotionalTransfer) TableName() string { return "notional_transfer" }
