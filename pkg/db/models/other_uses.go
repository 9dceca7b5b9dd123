package models

import (
	"github.com/shopspring/decimal"
)

// OtherUses records fuel put to non-transport use. Recorded for the form but
// never credited.
type OtherUses struct {
	ID       int64 `gorm:"column:other_uses_id;primaryKey;autoIncrement"`
	ReportID int64 `gorm:"column:compliance_report_id;not null;index"`

	LineVersion

	FuelTypeID      int64           `gorm:"column:fuel_type_id;not null"`
	FuelCategoryID  int64           `gorm:"column:fuel_category_id;not null"`
	ProvisionID     int64           `gorm:"column:provision_of_the_act_id;not null"`
	ExpectedUse     string          `gorm:"column:expected_use;not null"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null"`
	Units           string          `gorm:"column:units"`
	ComplianceUnits int64           `gorm:"column:compliance_units;not null;default:0"`

	AuditStamps
}

func (OtherUses) TableName() string { return "other_uses" }
