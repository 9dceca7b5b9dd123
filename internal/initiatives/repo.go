package initiatives

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
)

// Repository persists initiative agreements and administrative adjustments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateAgreement(ctx context.Context, row *models.InitiativeAgreement) error
	SaveAgreement(ctx context.Context, row *models.InitiativeAgreement) error
	FindAgreementByID(ctx context.Context, id int64) (*models.InitiativeAgreement, error)
	ListAgreementsByOrganization(ctx context.Context, orgID int64) ([]models.InitiativeAgreement, error)

	CreateAdminAdjustment(ctx context.Context, row *models.AdminAdjustment) error
	SaveAdminAdjustment(ctx context.Context, row *models.AdminAdjustment) error
	FindAdminAdjustmentByID(ctx context.Context, id int64) (*models.AdminAdjustment, error)
	ListAdminAdjustmentsByOrganization(ctx context.Context, orgID int64) ([]models.AdminAdjustment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to initiative operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAgreement(ctx context.Context, row *models.InitiativeAgreement) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) SaveAgreement(ctx context.Context, row *models.InitiativeAgreement) error {
	if row == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindAgreementByID(ctx context.Context, id int64) (*models.InitiativeAgreement, error) {
	var row models.InitiativeAgreement
	if err := r.db.WithContext(ctx).First(&row, "initiative_agreement_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListAgreementsByOrganization(ctx context.Context, orgID int64) ([]models.InitiativeAgreement, error) {
	var rows []models.InitiativeAgreement
	if err := r.db.WithContext(ctx).
		Where("to_organization_id = ?", orgID).
		Order("initiative_agreement_id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateAdminAdjustment(ctx context.Context, row *models.AdminAdjustment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) SaveAdminAdjustment(ctx context.Context, row *models.AdminAdjustment) error {
	if row == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindAdminAdjustmentByID(ctx context.Context, id int64) (*models.AdminAdjustment, error) {
	var row models.AdminAdjustment
	if err := r.db.WithContext(ctx).First(&row, "admin_adjustment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListAdminAdjustmentsByOrganization(ctx context.Context, orgID int64) ([]models.AdminAdjustment, error) {
	var rows []models.AdminAdjustment
	if err := r.db.WithContext(ctx).
		Where("to_organization_id = ?", orgID).
		Order("admin_adjustment_id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
