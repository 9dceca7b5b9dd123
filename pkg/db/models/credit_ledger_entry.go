package models

import (
	"time"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// CreditLedgerEntry is one row of the rebuilt per-organization credit ledger
// read model. The unique index on (transaction_id, source, organization_id)
// makes rebuilds idempotent.
type CreditLedgerEntry struct {
	ID               int64              `gorm:"column:credit_ledger_entry_id;primaryKey;autoIncrement"`
	OrganizationID   int64              `gorm:"column:organization_id;not null;uniqueIndex:ux_credit_ledger_txn;index:ix_credit_ledger_org_date,priority:1"`
	TransactionID    int64              `gorm:"column:transaction_id;not null;uniqueIndex:ux_credit_ledger_txn"`
	Source           enums.LedgerSource `gorm:"column:source;not null;uniqueIndex:ux_credit_ledger_txn"`
	ComplianceUnits  int64              `gorm:"column:compliance_units;not null"`
	AvailableBalance int64              `gorm:"column:available_balance;not null"`
	CompliancePeriod int                `gorm:"column:compliance_period;not null"`
	UpdateDate       time.Time          `gorm:"column:update_date;not null;index:ix_credit_ledger_org_date,priority:2"`
	IsLegacy         bool               `gorm:"column:is_legacy;not null;default:false"`

	CreateDate time.Time `gorm:"column:create_date;autoCreateTime"`
}

func (CreditLedgerEntry) TableName() string { return "credit_ledger_entry" }
