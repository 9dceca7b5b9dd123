package initiatives

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/ledger"
	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox/payloads"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db        *gorm.DB
	svc       Service
	ledgerSvc ledger.Service
	org       *models.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:initiatives_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Transaction{},
		&models.InitiativeAgreement{},
		&models.AdminAdjustment{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}

	f := &fixture{db: db, org: &models.Organization{Name: "Pacific Fuels Ltd", Status: enums.OrgStatusRegistered}}
	if err := db.Create(f.org).Error; err != nil {
		t.Fatalf("seed organization: %v", err)
	}

	cfg := config.ComplianceConfig{
		LegislationTransitionYear: 2024,
		PenaltyRatePerUnit:        "600",
		GovernmentOrganizationID:  f.org.ID + 1000,
	}
	orgsRepo := organizations.NewRepository(db)
	orgSvc, err := organizations.NewService(orgsRepo)
	if err != nil {
		t.Fatalf("organization service: %v", err)
	}
	f.ledgerSvc, err = ledger.NewService(gormTxRunner{db: db}, ledger.NewRepository(db), orgsRepo, cfg)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	events := outbox.NewService(outbox.NewRepository(db), logger.New(logger.Options{}))
	f.svc, err = NewService(gormTxRunner{db: db}, NewRepository(db), f.ledgerSvc, orgSvc, events)
	if err != nil {
		t.Fatalf("initiative service: %v", err)
	}
	return f
}

func (f *fixture) balance(t *testing.T, orgID int64) int64 {
	t.Helper()
	balance, err := f.ledgerSvc.AvailableBalance(context.Background(), orgID)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	return balance
}

func TestAgreementApprovalIssuesUnits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	effective := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	agreement, err := f.svc.CreateAgreement(ctx, CreateAgreementInput{
		ToOrganizationID: f.org.ID,
		ComplianceUnits:  10_000,
		EffectiveDate:    &effective,
		UserID:           "director1",
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}
	if agreement.Status != enums.AgreementStatusDraft {
		t.Fatalf("status = %s, want Draft", agreement.Status)
	}

	if _, err := f.svc.TransitionAgreement(ctx, TransitionInput{ID: agreement.ID, Target: enums.AgreementStatusRecommended, UserID: "analyst1"}); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	approved, err := f.svc.TransitionAgreement(ctx, TransitionInput{ID: agreement.ID, Target: enums.AgreementStatusApproved, UserID: "director1"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.TransactionID == nil {
		t.Fatalf("approval did not link a ledger transaction")
	}

	var txn models.Transaction
	if err := f.db.First(&txn, "transaction_id = ?", *approved.TransactionID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Action != enums.TransactionActionAdjustment || txn.ComplianceUnits != 10_000 {
		t.Fatalf("linked transaction = %s/%d, want Adjustment/10000", txn.Action, txn.ComplianceUnits)
	}
	if !txn.EffectiveDate.Equal(effective) {
		t.Fatalf("effective date = %v, want %v", txn.EffectiveDate, effective)
	}
	if got := f.balance(t, f.org.ID); got != 10_000 {
		t.Fatalf("balance = %d, want 10000", got)
	}

	var events int64
	if err := f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", string(enums.EventAgreementApproved)).
		Count(&events).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	if events != 1 {
		t.Fatalf("agreement approved events = %d, want 1", events)
	}

	var intents []models.OutboxEvent
	if err := f.db.
		Where("event_type = ?", string(enums.EventNotificationRequested)).
		Find(&intents).Error; err != nil {
		t.Fatalf("load notification intents: %v", err)
	}
	if len(intents) != 1 {
		t.Fatalf("notification intents = %d, want 1", len(intents))
	}
	var env outbox.PayloadEnvelope
	if err := json.Unmarshal(intents[0].Payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var intent payloads.NotificationRequestedEvent
	if err := json.Unmarshal(env.Data, &intent); err != nil {
		t.Fatalf("decode intent: %v", err)
	}
	if intent.Template != enums.TemplateAgreementApproved {
		t.Fatalf("intent template = %s, want %s", intent.Template, enums.TemplateAgreementApproved)
	}
	if len(intent.RecipientRoleSet) == 0 {
		t.Fatalf("intent carries no recipient role set")
	}
	if intent.OrganizationID != f.org.ID {
		t.Fatalf("intent organization = %d, want %d", intent.OrganizationID, f.org.ID)
	}
}

func TestAgreementRejectsNonPositiveUnits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateAgreement(context.Background(), CreateAgreementInput{
		ToOrganizationID: f.org.ID,
		ComplianceUnits:  -5,
		UserID:           "director1",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminAdjustmentCanDebit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledgerSvc.AppendAdjustment(ctx, ledger.AdjustmentInput{
		OrganizationID: f.org.ID,
		Units:          1_000,
		EffectiveDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("fund organization: %v", err)
	}

	adjustment, err := f.svc.CreateAdminAdjustment(ctx, CreateAdminAdjustmentInput{
		ToOrganizationID: f.org.ID,
		ComplianceUnits:  -400,
		UserID:           "director1",
	})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	if _, err := f.svc.TransitionAdminAdjustment(ctx, TransitionInput{ID: adjustment.ID, Target: enums.AgreementStatusRecommended, UserID: "analyst1"}); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if _, err := f.svc.TransitionAdminAdjustment(ctx, TransitionInput{ID: adjustment.ID, Target: enums.AgreementStatusApproved, UserID: "director1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if got := f.balance(t, f.org.ID); got != 600 {
		t.Fatalf("balance = %d, want 600", got)
	}

	var events int64
	if err := f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", string(enums.EventNotificationRequested)).
		Count(&events).Error; err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	if events != 1 {
		t.Fatalf("notification requested events = %d, want 1", events)
	}
}

func TestAdminAdjustmentApprovalFailsBeyondBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	adjustment, err := f.svc.CreateAdminAdjustment(ctx, CreateAdminAdjustmentInput{
		ToOrganizationID: f.org.ID,
		ComplianceUnits:  -400,
		UserID:           "director1",
	})
	if err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	if _, err := f.svc.TransitionAdminAdjustment(ctx, TransitionInput{ID: adjustment.ID, Target: enums.AgreementStatusRecommended, UserID: "analyst1"}); err != nil {
		t.Fatalf("recommend: %v", err)
	}

	_, err = f.svc.TransitionAdminAdjustment(ctx, TransitionInput{ID: adjustment.ID, Target: enums.AgreementStatusApproved, UserID: "director1"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	reloaded, err := f.svc.GetAdminAdjustment(ctx, adjustment.ID)
	if err != nil {
		t.Fatalf("reload adjustment: %v", err)
	}
	if reloaded.Status != enums.AgreementStatusRecommended {
		t.Fatalf("status = %s, want Recommended after failed approval", reloaded.Status)
	}
	if reloaded.TransactionID != nil {
		t.Fatalf("failed approval left a linked transaction")
	}
}

func TestAgreementTransitionTable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	agreement, err := f.svc.CreateAgreement(ctx, CreateAgreementInput{
		ToOrganizationID: f.org.ID,
		ComplianceUnits:  100,
		UserID:           "director1",
	})
	if err != nil {
		t.Fatalf("create agreement: %v", err)
	}

	if _, err := f.svc.TransitionAgreement(ctx, TransitionInput{ID: agreement.ID, Target: enums.AgreementStatusApproved, UserID: "director1"}); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("draft straight to approved should fail, got %v", err)
	}

	if _, err := f.svc.TransitionAgreement(ctx, TransitionInput{ID: agreement.ID, Target: enums.AgreementStatusDeleted, UserID: "director1"}); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := f.svc.TransitionAgreement(ctx, TransitionInput{ID: agreement.ID, Target: enums.AgreementStatusRecommended, UserID: "analyst1"}); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("deleted is terminal, got %v", err)
	}
}
