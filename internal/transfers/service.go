package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
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

// Service negotiates unit transfers between two registered organizations.
// Submission reserves the units on the sending side; recording commits the
// reservation and writes the matching positive adjustment for the receiver,
// so a recorded transfer always nets to zero across the pair.
type Service interface {
	Create(ctx context.Context, input CreateTransferInput) (*models.Transfer, error)
	Get(ctx context.Context, id int64) (*models.Transfer, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]models.Transfer, error)
	UpdateDraft(ctx context.Context, input UpdateDraftInput) (*models.Transfer, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Transfer, error)
}

// CreateTransferInput opens a draft transfer between two organizations.
type CreateTransferInput struct {
	FromOrganizationID int64
	ToOrganizationID   int64
	Quantity           int64
	PricePerUnit       decimal.Decimal
	AgreementDate      *time.Time
	UserID             string
}

// UpdateDraftInput edits the negotiable terms while the transfer is a draft.
type UpdateDraftInput struct {
	TransferID    int64
	Quantity      int64
	PricePerUnit  decimal.Decimal
	AgreementDate *time.Time
	UserID        string
}

// TransitionInput moves a transfer along its status machine.
type TransitionInput struct {
	TransferID int64
	Target     enums.TransferStatus
	UserID     string
}

var allowedTransitions = map[enums.TransferStatus][]enums.TransferStatus{
	enums.TransferStatusDraft:       {enums.TransferStatusSent, enums.TransferStatusDeleted},
	enums.TransferStatusSent:        {enums.TransferStatusSubmitted, enums.TransferStatusRescinded, enums.TransferStatusDeclined},
	enums.TransferStatusSubmitted:   {enums.TransferStatusRecommended, enums.TransferStatusRescinded, enums.TransferStatusDeclined},
	enums.TransferStatusRecommended: {enums.TransferStatusRecorded, enums.TransferStatusRefused, enums.TransferStatusRescinded},
}

type service struct {
	tx        txRunner
	repo      Repository
	ledgerSvc ledger.Service
	orgsRepo  organizations.Repository
	orgSvc    organizations.Service
	events    *outbox.Service
	now       func() time.Time
}

// NewService wires the transfer status machine.
func NewService(tx txRunner, repo Repository, ledgerSvc ledger.Service, orgsRepo organizations.Repository, orgSvc organizations.Service, events *outbox.Service) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("transfer repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if orgsRepo == nil {
		return nil, fmt.Errorf("organization repository required")
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
		orgsRepo:  orgsRepo,
		orgSvc:    orgSvc,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateTransferInput) (*models.Transfer, error) {
	if input.FromOrganizationID == input.ToOrganizationID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer requires two distinct organizations")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.PricePerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per unit must not be negative")
	}
	if _, err := s.orgSvc.RequireRegistered(ctx, input.FromOrganizationID); err != nil {
		return nil, err
	}
	if _, err := s.orgSvc.RequireRegistered(ctx, input.ToOrganizationID); err != nil {
		return nil, err
	}

	transfer := &models.Transfer{
		FromOrganizationID: input.FromOrganizationID,
		ToOrganizationID:   input.ToOrganizationID,
		Quantity:           input.Quantity,
		PricePerUnit:       input.PricePerUnit,
		Status:             enums.TransferStatusDraft,
		AgreementDate:      input.AgreementDate,
		AuditStamps: models.AuditStamps{
			CreateUser: input.UserID,
			UpdateUser: input.UserID,
		},
	}
	if err := s.repo.Create(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Transfer, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found").
			WithDetails(map[string]any{"transfer_id": id})
	}
	return transfer, nil
}

func (s *service) ListByOrganization(ctx context.Context, orgID int64) ([]models.Transfer, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *service) UpdateDraft(ctx context.Context, input UpdateDraftInput) (*models.Transfer, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.PricePerUnit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per unit must not be negative")
	}

	transfer, err := s.Get(ctx, input.TransferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != enums.TransferStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "only draft transfers can be edited").
			WithDetails(map[string]any{"transfer_id": transfer.ID, "status": string(transfer.Status)})
	}

	transfer.Quantity = input.Quantity
	transfer.PricePerUnit = input.PricePerUnit
	transfer.AgreementDate = input.AgreementDate
	transfer.UpdateUser = input.UserID
	if err := s.repo.Save(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Transfer, error) {
	var out *models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transfer, err := repo.FindByID(ctx, input.TransferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found").
				WithDetails(map[string]any{"transfer_id": input.TransferID})
		}
		if !transitionAllowed(transfer.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transfer status transition not allowed").
				WithDetails(map[string]any{
					"transfer_id": transfer.ID,
					"from":        string(transfer.Status),
					"to":          string(input.Target),
				})
		}

		switch input.Target {
		case enums.TransferStatusSubmitted:
			if err := s.reserve(ctx, tx, transfer); err != nil {
				return err
			}
		case enums.TransferStatusRecorded:
			if err := s.record(ctx, tx, transfer); err != nil {
				return err
			}
		case enums.TransferStatusRescinded, enums.TransferStatusDeclined, enums.TransferStatusRefused:
			if err := s.releaseReservation(ctx, tx, transfer); err != nil {
				return err
			}
		}

		transfer.Status = input.Target
		transfer.UpdateUser = input.UserID
		if err := repo.Save(ctx, transfer); err != nil {
			return err
		}
		if err := s.notifyTransition(ctx, tx, transfer, input.Target); err != nil {
			return err
		}
		out = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reserve takes the sending side's units out of circulation while the
// transfer works through review.
func (s *service) reserve(ctx context.Context, tx *gorm.DB, transfer *models.Transfer) error {
	txn, err := s.ledgerSvc.ReserveTx(ctx, tx, ledger.ReserveInput{
		OrganizationID: transfer.FromOrganizationID,
		Units:          -transfer.Quantity,
		EffectiveDate:  s.effectiveDate(transfer),
	})
	if err != nil {
		return err
	}
	transfer.FromTransactionID = &txn.ID
	return nil
}

// record commits the sending reservation and appends the receiving
// adjustment with the same effective date. Both organization rows are locked
// in ascending id order first, so two opposing transfers recorded
// concurrently cannot deadlock.
func (s *service) record(ctx context.Context, tx *gorm.DB, transfer *models.Transfer) error {
	if transfer.FromTransactionID == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transfer has no reservation to record").
			WithDetails(map[string]any{"transfer_id": transfer.ID})
	}
	if _, err := s.orgsRepo.WithTx(tx).LockForUpdate(ctx, transfer.FromOrganizationID, transfer.ToOrganizationID); err != nil {
		return err
	}

	committed, err := s.ledgerSvc.CommitTx(ctx, tx, *transfer.FromTransactionID)
	if err != nil {
		return err
	}
	received, err := s.ledgerSvc.AppendAdjustmentTx(ctx, tx, ledger.AdjustmentInput{
		OrganizationID: transfer.ToOrganizationID,
		Units:          transfer.Quantity,
		EffectiveDate:  committed.EffectiveDate,
	})
	if err != nil {
		return err
	}
	transfer.ToTransactionID = &received.ID
	if transfer.AgreementDate == nil {
		now := s.now()
		transfer.AgreementDate = &now
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTransferRecorded,
		AggregateType: enums.AggregateTransfer,
		AggregateID:   transfer.ID,
		Data: payloads.TransferRecordedEvent{
			TransferID:         transfer.ID,
			FromOrganizationID: transfer.FromOrganizationID,
			ToOrganizationID:   transfer.ToOrganizationID,
			Quantity:           transfer.Quantity,
		},
		Version: 1,
	})
}

// notifyTransition queues the template-addressed intents for a status change.
// Recording notifies both counter-parties; terminations notify the side that
// did not act.
func (s *service) notifyTransition(ctx context.Context, tx *gorm.DB, transfer *models.Transfer, target enums.TransferStatus) error {
	type addressed struct {
		template   enums.NotificationTemplate
		orgID      int64
		recipients []enums.Role
	}
	var intents []addressed
	switch target {
	case enums.TransferStatusSent:
		intents = []addressed{{enums.TemplateTransferSent, transfer.ToOrganizationID, []enums.Role{enums.RoleSigningAuthority}}}
	case enums.TransferStatusSubmitted:
		intents = []addressed{{enums.TemplateTransferSubmitted, transfer.FromOrganizationID, []enums.Role{enums.RoleAnalyst}}}
	case enums.TransferStatusRecorded:
		counterparties := []enums.Role{enums.RoleComplianceReporting, enums.RoleSigningAuthority}
		intents = []addressed{
			{enums.TemplateTransferRecorded, transfer.FromOrganizationID, counterparties},
			{enums.TemplateTransferRecorded, transfer.ToOrganizationID, counterparties},
		}
	case enums.TransferStatusDeclined, enums.TransferStatusRefused:
		intents = []addressed{{enums.TemplateTransferDeclined, transfer.FromOrganizationID, []enums.Role{enums.RoleSigningAuthority}}}
	case enums.TransferStatusRescinded:
		intents = []addressed{{enums.TemplateTransferDeclined, transfer.ToOrganizationID, []enums.Role{enums.RoleSigningAuthority}}}
	default:
		return nil
	}
	for _, intent := range intents {
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateOrganization,
			AggregateID:   intent.orgID,
			Data: payloads.NotificationRequestedEvent{
				Template:         intent.template,
				RecipientRoleSet: intent.recipients,
				OrganizationID:   intent.orgID,
				TransferID:       &transfer.ID,
			},
			Version: 1,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) releaseReservation(ctx context.Context, tx *gorm.DB, transfer *models.Transfer) error {
	if transfer.FromTransactionID == nil {
		return nil
	}
	_, err := s.ledgerSvc.ReleaseTx(ctx, tx, *transfer.FromTransactionID)
	return err
}

func (s *service) effectiveDate(transfer *models.Transfer) time.Time {
	if transfer.AgreementDate != nil {
		return *transfer.AgreementDate
	}
	return s.now()
}

func transitionAllowed(from, to enums.TransferStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
