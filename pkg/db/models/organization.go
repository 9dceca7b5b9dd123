package models

import (
	"github.com/lib/pq"

	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Organization is a fuel supplier or the government pseudo-organization.
// TotalBalance and ReservedBalance are advisory caches maintained alongside
// ledger writes; the authoritative balance is always the ledger aggregation.
type Organization struct {
	ID     int64                    `gorm:"column:organization_id;primaryKey;autoIncrement"`
	Name   string                   `gorm:"column:name;not null"`
	Status enums.OrganizationStatus `gorm:"column:status;type:organization_status;not null;default:'Unregistered'"`
	Type   string                   `gorm:"column:organization_type"`

	EmailAddress  *string `gorm:"column:email_address"`
	PhoneNumber   *string `gorm:"column:phone_number"`
	AddressLine1  *string `gorm:"column:address_line_1"`
	AddressLine2  *string `gorm:"column:address_line_2"`
	City          *string `gorm:"column:city"`
	ProvinceState *string `gorm:"column:province_state"`
	PostalCode    *string `gorm:"column:postal_code"`
	EDRMSRecord   *string `gorm:"column:edrms_record"`

	// Years for which quarterly early-issuance reporting is permitted.
	EarlyIssuanceYears pq.Int64Array `gorm:"column:early_issuance_years;type:integer[]"`

	TotalBalance    int64 `gorm:"column:total_balance;not null;default:0"`
	ReservedBalance int64 `gorm:"column:reserved_balance;not null;default:0"`

	AuditStamps
}

func (Organization) TableName() string { return "organization" }

// IsRegistered reports whether the organization may hold or move units.
func (o Organization) IsRegistered() bool {
	return o.Status == enums.OrgStatusRegistered
}

// HasEarlyIssuance reports whether quarterly reporting is permitted for year.
func (o Organization) HasEarlyIssuance(year int) bool {
	for _, y := range o.EarlyIssuanceYears {
		if int(y) == year {
			return true
		}
	}
	return false
}
