package models

import (
	"time"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Transaction is one append-only ledger row. An Adjustment is immutable once
// written; a Reserved row transitions at most once, to Adjustment (committed)
// or Released (cancelled). EffectiveStatus false marks released rows inert.
type Transaction struct {
	ID              int64                   `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	OrganizationID  int64                   `gorm:"column:organization_id;not null;index"`
	ComplianceUnits int64                   `gorm:"column:compliance_units;not null"`
	Action          enums.TransactionAction `gorm:"column:transaction_action;type:transaction_action;not null"`
	EffectiveDate   time.Time               `gorm:"column:effective_date;not null"`
	EffectiveStatus bool                    `gorm:"column:effective_status;not null;default:true"`

	AuditStamps
}

func (Transaction) TableName() string { return "transaction" }
