package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Repository persists ledger transactions and computes balance aggregates.
// The aggregates are the authoritative balance; cached organization columns
// are advisory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id int64) (*models.Transaction, error)
	Save(ctx context.Context, txn *models.Transaction) error
	// SumAdjustments returns the signed sum of active Adjustment rows.
	SumAdjustments(ctx context.Context, orgID int64) (int64, error)
	// SumNegativeReservations returns the absolute sum of active Reserved
	// rows holding negative units.
	SumNegativeReservations(ctx context.Context, orgID int64) (int64, error)
	// SumAdjustmentsThroughYear sums active Adjustment rows whose effective
	// year is at or before year, skipping the given transaction ids.
	SumAdjustmentsThroughYear(ctx context.Context, orgID int64, year int, excludeIDs []int64) (int64, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to ledger operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "transaction_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) Save(ctx context.Context, txn *models.Transaction) error {
	if txn == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *repository) SumAdjustments(ctx context.Context, orgID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(compliance_units), 0)").
		Where("organization_id = ? AND transaction_action = ? AND effective_status",
			orgID, enums.TransactionActionAdjustment).
		Scan(&total).Error
	return total, err
}

func (r *repository) SumNegativeReservations(ctx context.Context, orgID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(-compliance_units), 0)").
		Where("organization_id = ? AND transaction_action = ? AND compliance_units < 0 AND effective_status",
			orgID, enums.TransactionActionReserved).
		Scan(&total).Error
	return total, err
}

func (r *repository) SumAdjustmentsThroughYear(ctx context.Context, orgID int64, year int, excludeIDs []int64) (int64, error) {
	yearExpr := "CAST(STRFTIME('%Y', effective_date) AS INTEGER) <= ?"
	if r.db.Dialector.Name() == "postgres" {
		yearExpr = "EXTRACT(YEAR FROM effective_date) <= ?"
	}

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(compliance_units), 0)").
		Where("organization_id = ? AND transaction_action = ? AND effective_status",
			orgID, enums.TransactionActionAdjustment).
		Where(yearExpr, year)
	if len(excludeIDs) > 0 {
		query = query.Where("transaction_id NOT IN ?", excludeIDs)
	}

	var total int64
	err := query.Scan(&total).Error
	return total, err
}

func (r *repository) ListByOrganization(ctx context.Context, orgID int64) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("transaction_id ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
