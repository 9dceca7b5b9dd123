package models

import (
	"github.com/shopspring/decimal"
)

// EnergyDensity is MJ per unit for a fuel type, effective for a span of
// compliance years. A nil EffectiveToYear means still in force.
type EnergyDensity struct {
	ID                int64           `gorm:"column:energy_density_id;primaryKey;autoIncrement"`
	FuelTypeID        int64           `gorm:"column:fuel_type_id;not null;index"`
	Density           decimal.Decimal `gorm:"column:density;type:numeric(10,4);not null"`
	EffectiveFromYear int             `gorm:"column:effective_from_year;not null"`
	EffectiveToYear   *int            `gorm:"column:effective_to_year"`

	AuditStamps
}

func (EnergyDensity) TableName() string { return "energy_density" }

// Covers reports whether the row is in force for the compliance year.
func (d EnergyDensity) Covers(year int) bool {
	if year < d.EffectiveFromYear {
		return false
	}
	return d.EffectiveToYear == nil || year <= *d.EffectiveToYear
}
