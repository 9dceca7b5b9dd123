package initiatives

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/ledger"
	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service issues compliance units by government order: initiative agreements
// grant units for Part 3 projects, administrative adjustments correct a
// balance in either direction. Approval appends the linked ledger Adjustment
// in the same transaction as the status change.
type Service interface {
	CreateAgreement(ctx context.Context, input CreateAgreementInput) (*models.InitiativeAgreement, error)
	GetAgreement(ctx context.Context, id int64) (*models.InitiativeAgreement, error)
	TransitionAgreement(ctx context.Context, input TransitionInput) (*models.InitiativeAgreement, error)

	CreateAdminAdjustment(ctx context.Context, input CreateAdminAdjustmentInput) (*models.AdminAdjustment, error)
	GetAdminAdjustment(ctx context.Context, id int64) (*models.AdminAdjustment, error)
	TransitionAdminAdjustment(ctx context.Context, input TransitionInput) (*models.AdminAdjustment, error)
}

// CreateAgreementInput opens a draft initiative agreement.
type CreateAgreementInput struct {
	ToOrganizationID int64
	ComplianceUnits  int64
	EffectiveDate    *time.Time
	GovComment       *string
	UserID           string
}

// CreateAdminAdjustmentInput opens a draft administrative adjustment. Units
// may be negative; a negative adjustment still cannot drive the balance
// below zero at approval time.
type CreateAdminAdjustmentInput struct {
	ToOrganizationID int64
	ComplianceUnits  int64
	EffectiveDate    *time.Time
	GovComment       *string
	UserID           string
}

// TransitionInput moves an agreement or adjustment along its status machine.
type TransitionInput struct {
	ID     int64
	Target enums.AgreementStatus
	UserID string
}

var allowedTransitions = map[enums.AgreementStatus][]enums.AgreementStatus{
	enums.AgreementStatusDraft:       {enums.AgreementStatusRecommended, enums.AgreementStatusDeleted},
	enums.AgreementStatusRecommended: {enums.AgreementStatusApproved, enums.AgreementStatusDraft, enums.AgreementStatusDeleted},
}

type service struct {
	tx        txRunner
	repo      Repository
	ledgerSvc ledger.Service
	orgSvc    organizations.Service
	events    *outbox.Service
	now       func() time.Time
}

// NewService wires the issuance status machines.
func NewService(tx txRunner, repo Repository, ledgerSvc ledger.Service, orgSvc organizations.Service, events *outbox.Service) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("initiative repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if orgSvc == nil {
		return nil, fmt.Errorf("organization service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		ledgerSvc: ledgerSvc,
		orgSvc:    orgSvc,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateAgreement(ctx context.Context, input CreateAgreementInput) (*models.InitiativeAgreement, error) {
	if input.ComplianceUnits <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initiative agreements must issue a positive number of units")
	}
	if _, err := s.orgSvc.RequireRegistered(ctx, input.ToOrganizationID); err != nil {
		return nil, err
	}

	row := &models.InitiativeAgreement{
		ToOrganizationID: input.ToOrganizationID,
		ComplianceUnits:  input.ComplianceUnits,
		Status:           enums.AgreementStatusDraft,
		EffectiveDate:    input.EffectiveDate,
		GovComment:       input.GovComment,
		AuditStamps: models.AuditStamps{
			CreateUser: input.UserID,
			UpdateUser: input.UserID,
		},
	}
	if err := s.repo.CreateAgreement(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) GetAgreement(ctx context.Context, id int64) (*models.InitiativeAgreement, error) {
	row, err := s.repo.FindAgreementByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "initiative agreement not found").
			WithDetails(map[string]any{"initiative_agreement_id": id})
	}
	return row, nil
}

func (s *service) TransitionAgreement(ctx context.Context, input TransitionInput) (*models.InitiativeAgreement, error) {
	var out *models.InitiativeAgreement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindAgreementByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "initiative agreement not found").
				WithDetails(map[string]any{"initiative_agreement_id": input.ID})
		}
		if err := checkTransition(row.Status, input.Target, "initiative_agreement_id", row.ID); err != nil {
			return err
		}

		if input.Target == enums.AgreementStatusApproved {
			txn, err := s.issue(ctx, tx, row.ToOrganizationID, row.ComplianceUnits, row.EffectiveDate)
			if err != nil {
				return err
			}
			row.TransactionID = &txn.ID
			if row.EffectiveDate == nil {
				row.EffectiveDate = &txn.EffectiveDate
			}
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAgreementApproved,
				AggregateType: enums.AggregateInitiativeAgreement,
				AggregateID:   row.ID,
				Data: payloads.AgreementApprovedEvent{
					AgreementID:     row.ID,
					OrganizationID:  row.ToOrganizationID,
					ComplianceUnits: row.ComplianceUnits,
				},
				Version: 1,
			}); err != nil {
				return err
			}
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateOrganization,
				AggregateID:   row.ToOrganizationID,
				Data: payloads.NotificationRequestedEvent{
					Template:         enums.TemplateAgreementApproved,
					RecipientRoleSet: []enums.Role{enums.RoleComplianceReporting, enums.RoleSigningAuthority},
					OrganizationID:   row.ToOrganizationID,
					AgreementID:      &row.ID,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}

		row.Status = input.Target
		row.UpdateUser = input.UserID
		if err := repo.SaveAgreement(ctx, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) CreateAdminAdjustment(ctx context.Context, input CreateAdminAdjustmentInput) (*models.AdminAdjustment, error) {
	if input.ComplianceUnits == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment units must be non-zero")
	}
	if _, err := s.orgSvc.RequireRegistered(ctx, input.ToOrganizationID); err != nil {
		return nil, err
	}

	row := &models.AdminAdjustment{
		ToOrganizationID: input.ToOrganizationID,
		ComplianceUnits:  input.ComplianceUnits,
		Status:           enums.AgreementStatusDraft,
		EffectiveDate:    input.EffectiveDate,
		GovComment:       input.GovComment,
		AuditStamps: models.AuditStamps{
			CreateUser: input.UserID,
			UpdateUser: input.UserID,
		},
	}
	if err := s.repo.CreateAdminAdjustment(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) GetAdminAdjustment(ctx context.Context, id int64) (*models.AdminAdjustment, error) {
	row, err := s.repo.FindAdminAdjustmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin adjustment not found").
			WithDetails(map[string]any{"admin_adjustment_id": id})
	}
	return row, nil
}

func (s *service) TransitionAdminAdjustment(ctx context.Context, input TransitionInput) (*models.AdminAdjustment, error) {
	var out *models.AdminAdjustment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindAdminAdjustmentByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "admin adjustment not found").
				WithDetails(map[string]any{"admin_adjustment_id": input.ID})
		}
		if err := checkTransition(row.Status, input.Target, "admin_adjustment_id", row.ID); err != nil {
			return err
		}

		if input.Target == enums.AgreementStatusApproved {
			txn, err := s.issue(ctx, tx, row.ToOrganizationID, row.ComplianceUnits, row.EffectiveDate)
			if err != nil {
				return err
			}
			row.TransactionID = &txn.ID
			if row.EffectiveDate == nil {
				row.EffectiveDate = &txn.EffectiveDate
			}
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventNotificationRequested,
				AggregateType: enums.AggregateOrganization,
				AggregateID:   row.ToOrganizationID,
				Data: payloads.NotificationRequestedEvent{
					Template:         enums.TemplateAdjustmentApproved,
					RecipientRoleSet: []enums.Role{enums.RoleComplianceReporting, enums.RoleSigningAuthority},
					OrganizationID:   row.ToOrganizationID,
					AgreementID:      &row.ID,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}

		row.Status = input.Target
		row.UpdateUser = input.UserID
		if err := repo.SaveAdminAdjustment(ctx, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) issue(ctx context.Context, tx *gorm.DB, orgID, units int64, effectiveDate *time.Time) (*models.Transaction, error) {
	date := s.now()
	if effectiveDate != nil {
		date = *effectiveDate
	}
	return s.ledgerSvc.AppendAdjustmentTx(ctx, tx, ledger.AdjustmentInput{
		OrganizationID: orgID,
		Units:          units,
		EffectiveDate:  date,
	})
}

func checkTransition(from, to enums.AgreementStatus, idKey string, id int64) error {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not allowed").
		WithDetails(map[string]any{
			idKey:  id,
			"from": string(from),
			"to":   string(to),
		})
}
