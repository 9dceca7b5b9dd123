package transfers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
)

// Repository persists transfer records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, transfer *models.Transfer) error
	Save(ctx context.Context, transfer *models.Transfer) error
	FindByID(ctx context.Context, id int64) (*models.Transfer, error)
	// ListByOrganization returns transfers where the organization is on
	// either side, newest first.
	ListByOrganization(ctx context.Context, orgID int64) ([]models.Transfer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to transfer operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transfer *models.Transfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *repository) Save(ctx context.Context, transfer *models.Transfer) error {
	if transfer == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(transfer).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := r.db.WithContext(ctx).First(&transfer, "transfer_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *repository) ListByOrganization(ctx context.Context, orgID int64) ([]models.Transfer, error) {
	var transfers []models.Transfer
	if err := r.db.WithContext(ctx).
		Where("from_organization_id = ? OR to_organization_id = ?", orgID, orgID).
		Order("transfer_id DESC").
		Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}
