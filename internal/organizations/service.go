package organizations

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

// Service exposes organization lookups and registration state changes.
type Service interface {
	Create(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error)
	Get(ctx context.Context, id int64) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	SetStatus(ctx context.Context, id int64, status enums.OrganizationStatus) (*models.Organization, error)
	// RequireRegistered loads the organization and fails Forbidden when it
	// may not hold or move compliance units.
	RequireRegistered(ctx context.Context, id int64) (*models.Organization, error)
	// AllowsQuarterly reports whether early issuance permits quarterly
	// reporting for the year.
	AllowsQuarterly(ctx context.Context, id int64, year int) (bool, error)
}

// CreateOrganizationInput captures a new supplier record.
type CreateOrganizationInput struct {
	Name               string `validate:"required"`
	Type               string
	EmailAddress       *string
	PhoneNumber        *string
	EDRMSRecord        *string
	EarlyIssuanceYears []int64
}

type service struct {
	repo Repository
}

// NewService builds the organization service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	org := &models.Organization{
		Name:               input.Name,
		Status:             enums.OrgStatusUnregistered,
		Type:               input.Type,
		EmailAddress:       input.EmailAddress,
		PhoneNumber:        input.PhoneNumber,
		EDRMSRecord:        input.EDRMSRecord,
		EarlyIssuanceYears: pq.Int64Array(input.EarlyIssuanceYears),
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found").
			WithDetails(map[string]any{"organization_id": id})
	}
	return org, nil
}

func (s *service) List(ctx context.Context) ([]models.Organization, error) {
	return s.repo.List(ctx)
}

func (s *service) SetStatus(ctx context.Context, id int64, status enums.OrganizationStatus) (*models.Organization, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid organization status").
			WithDetails(map[string]any{"status": string(status)})
	}
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Status = status
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *service) RequireRegistered(ctx context.Context, id int64) (*models.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.IsRegistered() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization is not registered").
			WithDetails(map[string]any{"organization_id": id, "status": string(org.Status)})
	}
	return org, nil
}

func (s *service) AllowsQuarterly(ctx context.Context, id int64, year int) (bool, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return org.HasEarlyIssuance(year), nil
}
