package models

import (
	"github.com/shopspring/decimal"
)

// FuelSupply is one reported fuel supply line. Quantity is in the fuel type's
// energy-density unit (litres, kilograms, kWh). ComplianceUnits caches the
// calculator output truncated at the integer boundary.
type FuelSupply struct {
	ID       int64 `gorm:"column:fuel_supply_id;primaryKey;autoIncrement"`
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

func (FuelSupply) TableName() string { return "fuel_supply" }
