package models

import (
	"github.com/shopspring/decimal"
)

// FuelCategory groups fuel types for target CI purposes (Gasoline, Diesel,
// Jet fuel). CategoryCI substitutes for the default CI under legacy
// provisions.
type FuelCategory struct {
	ID         int64           `gorm:"column:fuel_category_id;primaryKey;autoIncrement"`
	Name       string          `gorm:"column:category;not null;uniqueIndex"`
	CategoryCI decimal.Decimal `gorm:"column:default_carbon_intensity;type:numeric(10,2)"`

	AuditStamps
}

func (FuelCategory) TableName() string { return "fuel_category" }

// Category names referenced by legacy filtering.
const (
	FuelCategoryGasoline = "Gasoline"
	FuelCategoryDiesel   = "Diesel"
	FuelCategoryJetFuel  = "Jet fuel"
)
