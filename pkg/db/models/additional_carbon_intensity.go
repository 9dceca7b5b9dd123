package models

import (
	"github.com/shopspring/decimal"
)

// AdditionalCarbonIntensity (UCI) is extra CI charged to certain fuel and
// end-use combinations, LNG marine engines being the canonical case.
type AdditionalCarbonIntensity struct {
	ID         int64           `gorm:"column:additional_uci_id;primaryKey;autoIncrement"`
	FuelTypeID int64           `gorm:"column:fuel_type_id;not null;index"`
	EndUseID   int64           `gorm:"column:end_use_type_id;not null"`
	Intensity  decimal.Decimal `gorm:"column:intensity;type:numeric(10,2);not null"`

	AuditStamps
}

func (AdditionalCarbonIntensity) TableName() string { return "additional_carbon_intensity" }
