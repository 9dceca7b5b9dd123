package organizations

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
)

// Repository handles organization persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id int64) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	// LockForUpdate loads the given organizations under SELECT FOR UPDATE,
	// always in ascending id order so concurrent multi-org commands cannot
	// deadlock. On dialects without row locks it degrades to a plain read.
	LockForUpdate(ctx context.Context, ids ...int64) ([]models.Organization, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to organization operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "organization_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Order("organization_id ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *repository) Update(ctx context.Context, org *models.Organization) error {
	if org == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(org).Error
}

func (r *repository) LockForUpdate(ctx context.Context, ids ...int64) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ordered := append([]int64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	query := r.db.WithContext(ctx).
		Where("organization_id IN ?", ordered).
		Order("organization_id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var orgs []models.Organization
	if err := query.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}
