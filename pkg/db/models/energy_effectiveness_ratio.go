package models

import (
	"github.com/shopspring/decimal"
)

// EnergyEffectivenessRatio weights the target CI for a drivetrain. Keyed by
// category, fuel type, end use and compliance period; absence defaults to 1.0
// at the resolver.
type EnergyEffectivenessRatio struct {
	ID               int64           `gorm:"column:eer_id;primaryKey;autoIncrement"`
	FuelCategoryID   int64           `gorm:"column:fuel_category_id;not null;index"`
	FuelTypeID       int64           `gorm:"column:fuel_type_id;not null;index"`
	EndUseID         int64           `gorm:"column:end_use_type_id;not null"`
	CompliancePeriod int             `gorm:"column:compliance_period;not null"`
	Ratio            decimal.Decimal `gorm:"column:ratio;type:numeric(10,2);not null"`

	AuditStamps
}

func (EnergyEffectivenessRatio) TableName() string { return "energy_effectiveness_ratio" }
