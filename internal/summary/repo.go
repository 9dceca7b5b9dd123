package summary

import (
	"context"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Repository aggregates the transaction-derived summary inputs: units moved by
// recorded transfers and units issued under approved agreements during one
// compliance year.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	TransferredOutUnits(ctx context.Context, orgID int64, year int) (int64, error)
	ReceivedUnits(ctx context.Context, orgID int64, year int) (int64, error)
	IssuedUnits(ctx context.Context, orgID int64, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to summary aggregate queries.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) TransferredOutUnits(ctx context.Context, orgID int64, year int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("from_organization_id = ? AND current_status = ?", orgID, enums.TransferStatusRecorded).
		Where(r.yearEquals("agreement_date"), year).
		Scan(&total).Error
	return total, err
}

func (r *repository) ReceivedUnits(ctx context.Context, orgID int64, year int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("to_organization_id = ? AND current_status = ?", orgID, enums.TransferStatusRecorded).
		Where(r.yearEquals("agreement_date"), year).
		Scan(&total).Error
	return total, err
}

func (r *repository) IssuedUnits(ctx context.Context, orgID int64, year int) (int64, error) {
	var agreements int64
	if err := r.db.WithContext(ctx).
		Model(&models.InitiativeAgreement{}).
		Select("COALESCE(SUM(compliance_units), 0)").
		Where("to_organization_id = ? AND current_status = ?", orgID, enums.AgreementStatusApproved).
		Where(r.yearEquals("effective_date"), year).
		Scan(&agreements).Error; err != nil {
		return 0, err
	}

	var adjustments int64
	if err := r.db.WithContext(ctx).
		Model(&models.AdminAdjustment{}).
		Select("COALESCE(SUM(compliance_units), 0)").
		Where("to_organization_id = ? AND current_status = ?", orgID, enums.AgreementStatusApproved).
		Where(r.yearEquals("effective_date"), year).
		Scan(&adjustments).Error; err != nil {
		return 0, err
	}

	return agreements + adjustments, nil
}

func (r *repository) yearEquals(column string) string {
	if r.db.Dialector.Name() == "postgres" {
		return "EXTRACT(YEAR FROM " + column + ") = ?"
	}
	return "CAST(STRFTIME('%Y', " + column + ") AS INTEGER) = ?"
}
