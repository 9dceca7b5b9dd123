package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the append-only compliance-unit ledger. Every operation
// serializes on the owning organization's row; the government organization
// skips balance checks.
type Service interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.Transaction, error)
	Commit(ctx context.Context, transactionID int64) (*models.Transaction, error)
	Release(ctx context.Context, transactionID int64) (*models.Transaction, error)
	AppendAdjustment(ctx context.Context, input AdjustmentInput) (*models.Transaction, error)
	AvailableBalance(ctx context.Context, orgID int64) (int64, error)

	// Tx variants join an enclosing unit of work; the caller owns commit
	// and rollback. The org row must not already be locked out of order.
	ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.Transaction, error)
	CommitTx(ctx context.Context, tx *gorm.DB, transactionID int64) (*models.Transaction, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, transactionID int64) (*models.Transaction, error)
	AppendAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.Transaction, error)

	// AppendAssessmentTx writes a director assessment. It serializes on the
	// organization row like every other movement but does not floor the
	// balance: an assessed deficit lands in full, and the penalty converts
	// the shortfall to dollars.
	AppendAssessmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.Transaction, error)

	// AssessedBalanceThroughYear is the summary builder's line 17 input:
	// the signed sum of Adjustments effective in or before year, excluding
	// the given transactions.
	AssessedBalanceThroughYear(ctx context.Context, orgID int64, year int, excludeIDs []int64) (int64, error)
}

// ReserveInput holds a pending balance movement, negative for outgoing units.
type ReserveInput struct {
	OrganizationID int64
	Units          int64
	EffectiveDate  time.Time
}

// AdjustmentInput holds a direct, immutable balance movement.
type AdjustmentInput struct {
	OrganizationID int64
	Units          int64
	EffectiveDate  time.Time
}

type service struct {
	tx       txRunner
	repo     Repository
	orgsRepo organizations.Repository
	cfg      config.ComplianceConfig
}

// NewService wires the ledger engine.
func NewService(tx txRunner, repo Repository, orgsRepo organizations.Repository, cfg config.ComplianceConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if orgsRepo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	return &service{tx: tx, repo: repo, orgsRepo: orgsRepo, cfg: cfg}, nil
}

func (s *service) Reserve(ctx context.Context, input ReserveInput) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, terr := s.ReserveTx(ctx, tx, input)
		if terr != nil {
			return terr
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.Transaction, error) {
	if err := validateMovement(input.OrganizationID, input.Units, input.EffectiveDate); err != nil {
		return nil, err
	}
	if err := s.checkBalanceLocked(ctx, tx, input.OrganizationID, input.Units); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		OrganizationID:  input.OrganizationID,
		ComplianceUnits: input.Units,
		Action:          enums.TransactionActionReserved,
		EffectiveDate:   input.EffectiveDate,
		EffectiveStatus: true,
	}
	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) AppendAdjustment(ctx context.Context, input AdjustmentInput) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, terr := s.AppendAdjustmentTx(ctx, tx, input)
		if terr != nil {
			return terr
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) AppendAdjustmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.Transaction, error) {
	if err := validateMovement(input.OrganizationID, input.Units, input.EffectiveDate); err != nil {
		return nil, err
	}
	if err := s.checkBalanceLocked(ctx, tx, input.OrganizationID, input.Units); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		OrganizationID:  input.OrganizationID,
		ComplianceUnits: input.Units,
		Action:          enums.TransactionActionAdjustment,
		EffectiveDate:   input.EffectiveDate,
		EffectiveStatus: true,
	}
	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) AppendAssessmentTx(ctx context.Context, tx *gorm.DB, input AdjustmentInput) (*models.Transaction, error) {
	if err := validateMovement(input.OrganizationID, input.Units, input.EffectiveDate); err != nil {
		return nil, err
	}
	orgs, err := s.orgsRepo.WithTx(tx).LockForUpdate(ctx, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found").
			WithDetails(map[string]any{"organization_id": input.OrganizationID})
	}

	txn := &models.Transaction{
		OrganizationID:  input.OrganizationID,
		ComplianceUnits: input.Units,
		Action:          enums.TransactionActionAdjustment,
		EffectiveDate:   input.EffectiveDate,
		EffectiveStatus: true,
	}
	if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Commit(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, terr := s.CommitTx(ctx, tx, transactionID)
		if terr != nil {
			return terr
		}
		txn = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) CommitTx(ctx context.Context, tx *gorm.DB, transactionID int64) (*models.Transaction, error) {
	txn, err := s.reservedForTransition(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Action = enums.TransactionActionAdjustment
	if err := s.repo.WithTx(tx).Save(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Release(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, terr := s.ReleaseTx(ctx, tx, transactionID)
		if terr != nil {
			return terr
		}
		txn = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, transactionID int64) (*models.Transaction, error) {
	txn, err := s.reservedForTransition(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Action = enums.TransactionActionReleased
	txn.EffectiveStatus = false
	if err := s.repo.WithTx(tx).Save(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// reservedForTransition locks the owning organization, then reloads the row
// and verifies it is still Reserved.
func (s *service) reservedForTransition(ctx context.Context, tx *gorm.DB, transactionID int64) (*models.Transaction, error) {
	repo := s.repo.WithTx(tx)
	txn, err := repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
			WithDetails(map[string]any{"transaction_id": transactionID})
	}

	if _, err := s.orgsRepo.WithTx(tx).LockForUpdate(ctx, txn.OrganizationID); err != nil {
		return nil, err
	}
	txn, err = repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found").
			WithDetails(map[string]any{"transaction_id": transactionID})
	}
	if txn.Action != enums.TransactionActionReserved {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "transaction is not reserved").
			WithDetails(map[string]any{
				"transaction_id": transactionID,
				"action":         string(txn.Action),
			})
	}
	return txn, nil
}

// checkBalanceLocked takes the organization row lock and, for non-government
// organizations, verifies the movement keeps the available balance at or
// above zero.
func (s *service) checkBalanceLocked(ctx context.Context, tx *gorm.DB, orgID, units int64) error {
	orgs, err := s.orgsRepo.WithTx(tx).LockForUpdate(ctx, orgID)
	if err != nil {
		return err
	}
	if len(orgs) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found").
			WithDetails(map[string]any{"organization_id": orgID})
	}
	if orgID == s.cfg.GovernmentOrganizationID {
		return nil
	}
	if units >= 0 {
		return nil
	}

	available, err := s.availableBalanceWith(ctx, s.repo.WithTx(tx), orgID)
	if err != nil {
		return err
	}
	if available+units < 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient available balance").
			WithDetails(map[string]any{
				"organization_id": orgID,
				"available":       available,
				"requested":       units,
			})
	}
	return nil
}

func (s *service) AvailableBalance(ctx context.Context, orgID int64) (int64, error) {
	return s.availableBalanceWith(ctx, s.repo, orgID)
}

func (s *service) availableBalanceWith(ctx context.Context, repo Repository, orgID int64) (int64, error) {
	adjusted, err := repo.SumAdjustments(ctx, orgID)
	if err != nil {
		return 0, err
	}
	reserved, err := repo.SumNegativeReservations(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return adjusted - reserved, nil
}

func (s *service) AssessedBalanceThroughYear(ctx context.Context, orgID int64, year int, excludeIDs []int64) (int64, error) {
	return s.repo.SumAdjustmentsThroughYear(ctx, orgID, year, excludeIDs)
}

func validateMovement(orgID, units int64, effectiveDate time.Time) error {
	if orgID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if units == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "compliance units must be non-zero")
	}
	if effectiveDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "effective date is required")
	}
	return nil
}
