package models

import (
	"github.com/shopspring/decimal"
)

// TargetCarbonIntensity is the regulated CI for a fuel category in a
// compliance year.
type TargetCarbonIntensity struct {
	ID               int64           `gorm:"column:target_carbon_intensity_id;primaryKey;autoIncrement"`
	FuelCategoryID   int64           `gorm:"column:fuel_category_id;not null;index"`
	CompliancePeriod int             `gorm:"column:compliance_period;not null"`
	TargetCI         decimal.Decimal `gorm:"column:target_carbon_intensity;type:numeric(10,2);not null"`
	ReductionTarget  decimal.Decimal `gorm:"column:reduction_target_percentage;type:numeric(5,2)"`

	AuditStamps
}

func (TargetCarbonIntensity) TableName() string { return "target_carbon_intensity" }
