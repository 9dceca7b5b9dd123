package referencedata

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
)

// Repository loads reference-data rows. Lookups return (nil, nil) when the
// row is absent; the service decides which absences are fatal. All lookups
// are read-only; reference tables change only via migrations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetFuelType(ctx context.Context, id int64) (*models.FuelType, error)
	GetFuelCategory(ctx context.Context, id int64) (*models.FuelCategory, error)
	GetProvision(ctx context.Context, id int64) (*models.ProvisionOfTheAct, error)
	GetFuelCode(ctx context.Context, id int64) (*models.FuelCode, error)
	ListEnergyDensities(ctx context.Context, fuelTypeID int64) ([]models.EnergyDensity, error)
	GetEER(ctx context.Context, categoryID, fuelTypeID, endUseID int64, period int) (*models.EnergyEffectivenessRatio, error)
	GetTargetCI(ctx context.Context, categoryID int64, period int) (*models.TargetCarbonIntensity, error)
	GetUCI(ctx context.Context, fuelTypeID, endUseID int64) (*models.AdditionalCarbonIntensity, error)
	GetPenaltyRate(ctx context.Context, period int) (*models.PenaltyRate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reference-data repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetFuelType(ctx context.Context, id int64) (*models.FuelType, error) {
	var row models.FuelType
	err := r.db.WithContext(ctx).First(&row, "fuel_type_id = ?", id).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetFuelCategory(ctx context.Context, id int64) (*models.FuelCategory, error) {
	var row models.FuelCategory
	err := r.db.WithContext(ctx).First(&row, "fuel_category_id = ?", id).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetProvision(ctx context.Context, id int64) (*models.ProvisionOfTheAct, error) {
	var row models.ProvisionOfTheAct
	err := r.db.WithContext(ctx).First(&row, "provision_of_the_act_id = ?", id).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetFuelCode(ctx context.Context, id int64) (*models.FuelCode, error) {
	var row models.FuelCode
	err := r.db.WithContext(ctx).First(&row, "fuel_code_id = ?", id).Error
	return oneOrNil(&row, err)
}

func (r *repository) ListEnergyDensities(ctx context.Context, fuelTypeID int64) ([]models.EnergyDensity, error) {
	var rows []models.EnergyDensity
	if err := r.db.WithContext(ctx).
		Where("fuel_type_id = ?", fuelTypeID).
		Order("effective_from_year DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GetEER(ctx context.Context, categoryID, fuelTypeID, endUseID int64, period int) (*models.EnergyEffectivenessRatio, error) {
	var row models.EnergyEffectivenessRatio
	err := r.db.WithContext(ctx).
		Where("fuel_category_id = ? AND fuel_type_id = ? AND end_use_type_id = ? AND compliance_period = ?",
			categoryID, fuelTypeID, endUseID, period).
		First(&row).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetTargetCI(ctx context.Context, categoryID int64, period int) (*models.TargetCarbonIntensity, error) {
	var row models.TargetCarbonIntensity
	err := r.db.WithContext(ctx).
		Where("fuel_category_id = ? AND compliance_period = ?", categoryID, period).
		First(&row).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetUCI(ctx context.Context, fuelTypeID, endUseID int64) (*models.AdditionalCarbonIntensity, error) {
	var row models.AdditionalCarbonIntensity
	err := r.db.WithContext(ctx).
		Where("fuel_type_id = ? AND end_use_type_id = ?", fuelTypeID, endUseID).
		First(&row).Error
	return oneOrNil(&row, err)
}

func (r *repository) GetPenaltyRate(ctx context.Context, period int) (*models.PenaltyRate, error) {
	var row models.PenaltyRate
	err := r.db.WithContext(ctx).
		Where("compliance_period = ?", period).
		First(&row).Error
	return oneOrNil(&row, err)
}

func oneOrNil[T any](row *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}
