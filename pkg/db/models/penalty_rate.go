package models

import (
	"github.com/shopspring/decimal"
)

// PenaltyRate is the dollar amount charged per outstanding compliance unit
// for a compliance year. Overrides the configured default when present.
type PenaltyRate struct {
	ID               int64           `gorm:"column:penalty_rate_id;primaryKey;autoIncrement"`
	CompliancePeriod int             `gorm:"column:compliance_period;not null;uniqueIndex"`
	RatePerUnit      decimal.Decimal `gorm:"column:rate_per_unit;type:numeric(10,2);not null"`

	AuditStamps
}

func (PenaltyRate) TableName() string { return "penalty_rate" }
