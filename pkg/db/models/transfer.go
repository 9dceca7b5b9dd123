package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Transfer moves units between two registered organizations. The from-side
// reservation is taken when the receiving organization submits; both linked
// Adjustments are written when the Director records the transfer.
type Transfer struct {
	ID                 int64                `gorm:"column:transfer_id;primaryKey;autoIncrement"`
	FromOrganizationID int64                `gorm:"column:from_organization_id;not null;index"`
	ToOrganizationID   int64                `gorm:"column:to_organization_id;not null;index"`
	FromTransactionID  *int64               `gorm:"column:from_transaction_id"`
	ToTransactionID    *int64               `gorm:"column:to_transaction_id"`
	Quantity           int64                `gorm:"column:quantity;not null"`
	PricePerUnit       decimal.Decimal      `gorm:"column:price_per_unit;type:numeric(10,2);not null"`
	Status             enums.TransferStatus `gorm:"column:current_status;type:transfer_status;not null;default:'Draft'"`
	AgreementDate      *time.Time           `gorm:"column:agreement_date"`

	AuditStamps
}

func (Transfer) TableName() string { return "transfer" }
