package models

import (
	"github.com/shopspring/decimal"
)

// FuelType is immutable-per-period reference data. DefaultCI applies when no
// fuel code covers the line. Legacy periods only allow types flagged
// is_legacy or non-fossil-derived.
type FuelType struct {
	ID            int64           `gorm:"column:fuel_type_id;primaryKey;autoIncrement"`
	Name          string          `gorm:"column:fuel_type;not null;uniqueIndex"`
	DefaultCI     decimal.Decimal `gorm:"column:default_carbon_intensity;type:numeric(10,2)"`
	Units         string          `gorm:"column:units;not null"`
	FossilDerived bool            `gorm:"column:fossil_derived;not null;default:false"`
	IsLegacy      bool            `gorm:"column:is_legacy;not null;default:false"`
	Unrecognized  bool            `gorm:"column:unrecognized;not null;default:false"`

	AuditStamps
}

func (FuelType) TableName() string { return "fuel_type" }
