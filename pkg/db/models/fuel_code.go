package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const FuelCodeStatusApproved = "Approved"

// FuelCode carries an approved carbon intensity for a specific fuel pathway.
// Lines claiming a fuel-code provision take their effective CI from here.
type FuelCode struct {
	ID              int64           `gorm:"column:fuel_code_id;primaryKey;autoIncrement"`
	Code            string          `gorm:"column:fuel_code;not null;uniqueIndex"`
	FuelTypeID      int64           `gorm:"column:fuel_type_id;not null;index"`
	CarbonIntensity decimal.Decimal `gorm:"column:carbon_intensity;type:numeric(10,2);not null"`
	Status          string          `gorm:"column:status;not null;default:'Approved'"`
	EffectiveDate   time.Time       `gorm:"column:effective_date;not null"`
	ExpirationDate  *time.Time      `gorm:"column:expiration_date"`

	AuditStamps
}

func (FuelCode) TableName() string { return "fuel_code" }

// ActiveOn reports whether the code may be claimed on the given date.
func (c FuelCode) ActiveOn(day time.Time) bool {
	if c.Status != FuelCodeStatusApproved {
		return false
	}
	if day.Before(c.EffectiveDate) {
		return false
	}
	return c.ExpirationDate == nil || !day.After(*c.ExpirationDate)
}
