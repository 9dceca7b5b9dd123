package models

import (
	"github.com/shopspring/decimal"
)

// FuelExport is one reported fuel export line. Exports remove credit: the
// cached units carry the negated calculator output.
type FuelExport struct {
	ID       int64 `gorm:"column:fuel_export_id;primaryKey;autoIncrement"`
	ReportID int64 `gorm:"column:compliance_report_id;not null;index"`

	LineVersion

	FuelTypeID     int64           `gorm:"column:fuel_type_id;not null"`
	FuelCategoryID int64           `gorm:"column:fuel_category_id;not null"`
	EndUseID       int64           `gorm:"column:end_use_id;not null"`
	ProvisionID    int64           `gorm:"column:provision_of_the_act_id;not null"`
	FuelCodeID     *int64          `gorm:"column:fuel_code_id"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null"`
	Units          string          `gorm:"column:units"`

	ComplianceUnits int64 `gorm:"column:compliance_units;not null;default:0"`

	AuditStamps
}

func (FuelExport) TableName() string { return "fuel_export" }
