package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/ledger"
	"github.com/pacificfuels/lcfs-backend/internal/reports"
	"github.com/pacificfuels/lcfs-backend/internal/summary"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox"
	"github.com/pacificfuels/lcfs-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

var validate = validator.New()

// Actor is a pre-authorized caller. Identity mapping happens upstream; the
// facade only checks the role set and organization ownership.
type Actor struct {
	UserID         string
	DisplayName    string
	OrganizationID *int64
	Roles          enums.Roles
}

// IsGovernment reports whether any role grants government-side access.
func (a Actor) IsGovernment() bool {
	return a.Roles.IsGovernment()
}

func (a Actor) ownsOrganization(orgID int64) bool {
	return a.OrganizationID != nil && *a.OrganizationID == orgID
}

// Service is the report lifecycle facade: every command verifies the actor,
// then runs the status transition, summary write, history row, and ledger
// append as one unit of work. Notification intents are queued in the same
// transaction and published only after commit.
type Service interface {
	CreateReport(ctx context.Context, input CreateReportInput) (*models.ComplianceReport, error)
	AddLineItem(ctx context.Context, input AddLineItemInput) (*reports.LineItemResult, error)
	DeleteLineItem(ctx context.Context, input DeleteLineItemInput) error
	BuildSummary(ctx context.Context, reportID int64, actor Actor) (*models.ComplianceReportSummary, error)
	TransitionReport(ctx context.Context, input TransitionReportInput) (*models.ComplianceReport, error)
	CreateSupplemental(ctx context.Context, groupUUID uuid.UUID, actor Actor) (*models.ComplianceReport, error)
	CreateReassessment(ctx context.Context, groupUUID uuid.UUID, actor Actor) (*models.ComplianceReport, error)
	DeleteDraft(ctx context.Context, reportID int64, actor Actor) error

	ReserveUnits(ctx context.Context, input ReserveUnitsInput) (*models.Transaction, error)
	CommitTransaction(ctx context.Context, transactionID int64, actor Actor) (*models.Transaction, error)
	ReleaseTransaction(ctx context.Context, transactionID int64, actor Actor) (*models.Transaction, error)
	AppendAdjustment(ctx context.Context, input AppendAdjustmentInput) (*models.Transaction, error)
}

// CreateReportInput opens a new report group for the actor's organization.
type CreateReportInput struct {
	OrganizationID   int64                    `validate:"min=1"`
	CompliancePeriod int                      `validate:"min=2010"`
	Frequency        enums.ReportingFrequency `validate:"omitempty,oneof=Annual Quarterly"`
	Nickname         *string
	Actor            Actor
}

// AddLineItemInput adds or edits one line on behalf of the actor.
type AddLineItemInput struct {
	Line  reports.AddLineItemInput
	Actor Actor
}

// DeleteLineItemInput removes one logical line on behalf of the actor.
type DeleteLineItemInput struct {
	Line  reports.DeleteLineItemInput
	Actor Actor
}

// ReserveUnitsInput earmarks units against the actor's organization balance.
type ReserveUnitsInput struct {
	OrganizationID int64 `validate:"min=1"`
	Units          int64
	EffectiveDate  time.Time `validate:"required"`
	Actor          Actor
}

// AppendAdjustmentInput writes a direct balance movement.
type AppendAdjustmentInput struct {
	OrganizationID int64 `validate:"min=1"`
	Units          int64
	EffectiveDate  time.Time `validate:"required"`
	Actor          Actor
}

// TransitionReportInput moves a report to the target status.
type TransitionReportInput struct {
	ReportID int64              `validate:"min=1"`
	Target   enums.ReportStatus `validate:"required"`
	Actor    Actor
}

type service struct {
	tx          txRunner
	reportsSvc  reports.Service
	reportsRepo reports.Repository
	summarySvc  summary.Service
	ledgerSvc   ledger.Service
	events      *outbox.Service
}

// NewService wires the lifecycle orchestrator.
func NewService(tx txRunner, reportsSvc reports.Service, reportsRepo reports.Repository, summarySvc summary.Service, ledgerSvc ledger.Service, events *outbox.Service) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if reportsSvc == nil {
		return nil, fmt.Errorf("report service required")
	}
	if reportsRepo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if summarySvc == nil {
		return nil, fmt.Errorf("summary service required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		tx:          tx,
		reportsSvc:  reportsSvc,
		reportsRepo: reportsRepo,
		summarySvc:  summarySvc,
		ledgerSvc:   ledgerSvc,
		events:      events,
	}, nil
}

func (s *service) CreateReport(ctx context.Context, input CreateReportInput) (*models.ComplianceReport, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid report input")
	}
	if !input.Actor.ownsOrganization(input.OrganizationID) {
		return nil, forbidden(input.Actor, "reports are created by the owning organization")
	}
	if !input.Actor.Roles.HasAny(enums.RoleComplianceReporting, enums.RoleSigningAuthority) {
		return nil, forbidden(input.Actor, "reporting role required")
	}
	return s.reportsSvc.CreateReport(ctx, reports.CreateReportInput{
		OrganizationID:   input.OrganizationID,
		CompliancePeriod: input.CompliancePeriod,
		Frequency:        input.Frequency,
		Nickname:         input.Nickname,
		UserID:           input.Actor.UserID,
	})
}

func (s *service) AddLineItem(ctx context.Context, input AddLineItemInput) (*reports.LineItemResult, error) {
	line := input.Line
	userType, err := s.lineAccess(ctx, line.ReportID, input.Actor)
	if err != nil {
		return nil, err
	}
	line.UserType = userType
	return s.reportsSvc.AddLineItem(ctx, line)
}

func (s *service) DeleteLineItem(ctx context.Context, input DeleteLineItemInput) error {
	line := input.Line
	userType, err := s.lineAccess(ctx, line.ReportID, input.Actor)
	if err != nil {
		return err
	}
	line.UserType = userType
	return s.reportsSvc.DeleteLineItem(ctx, line)
}

func (s *service) BuildSummary(ctx context.Context, reportID int64, actor Actor) (*models.ComplianceReportSummary, error) {
	report, err := s.reportsSvc.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !actor.IsGovernment() && !actor.ownsOrganization(report.OrganizationID) {
		return nil, forbidden(actor, "summary access is limited to the owning organization")
	}
	return s.summarySvc.Build(ctx, reportID)
}

func (s *service) TransitionReport(ctx context.Context, input TransitionReportInput) (*models.ComplianceReport, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transition input")
	}
	var out *models.ComplianceReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.reportsRepo.WithTx(tx)
		report, err := repo.FindReportByID(ctx, input.ReportID)
		if err != nil {
			return err
		}
		if report == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "compliance report not found").
				WithDetails(map[string]any{"compliance_report_id": input.ReportID})
		}
		if err := s.reportsSvc.ValidateTransition(report, input.Target); err != nil {
			return err
		}
		if err := requireTransitionRole(report, input.Target, input.Actor); err != nil {
			return err
		}

		var assessedSummary *models.ComplianceReportSummary
		switch input.Target {
		case enums.ReportStatusSubmitted:
			if report.CurrentStatus == enums.ReportStatusDraft {
				if err := s.checkSubmittable(ctx, tx, report); err != nil {
					return err
				}
			}
		case enums.ReportStatusAssessed, enums.ReportStatusReassessed:
			built, err := s.assess(ctx, tx, repo, report)
			if err != nil {
				return err
			}
			assessedSummary = built
		}

		from := report.CurrentStatus
		report.CurrentStatus = input.Target
		report.UpdateUser = input.Actor.UserID
		if err := repo.UpdateReport(ctx, report); err != nil {
			return err
		}
		if err := repo.CreateHistory(ctx, &models.ComplianceReportHistory{
			ReportID:    report.ID,
			FromStatus:  from,
			ToStatus:    input.Target,
			UserID:      input.Actor.UserID,
			DisplayName: input.Actor.DisplayName,
			AuditStamps: models.AuditStamps{
				CreateUser: input.Actor.UserID,
				UpdateUser: input.Actor.UserID,
			},
		}); err != nil {
			return err
		}
		if err := s.emitStatusEvents(ctx, tx, report, from, input, assessedSummary); err != nil {
			return err
		}
		out = report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) CreateSupplemental(ctx context.Context, groupUUID uuid.UUID, actor Actor) (*models.ComplianceReport, error) {
	if err := s.requireGroupOwnership(ctx, groupUUID, actor); err != nil {
		return nil, err
	}
	return s.reportsSvc.CreateSupplemental(ctx, groupUUID, actor.UserID)
}

func (s *service) CreateReassessment(ctx context.Context, groupUUID uuid.UUID, actor Actor) (*models.ComplianceReport, error) {
	if !actor.Roles.HasAny(enums.RoleAnalyst) {
		return nil, forbidden(actor, "reassessments are started by analysts")
	}
	return s.reportsSvc.CreateReassessment(ctx, groupUUID, actor.UserID)
}

func (s *service) DeleteDraft(ctx context.Context, reportID int64, actor Actor) error {
	report, err := s.reportsSvc.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if report.CurrentStatus == enums.ReportStatusAnalystAdjustment {
		if !actor.Roles.HasAny(enums.RoleAnalyst) {
			return forbidden(actor, "analyst adjustments are deleted by analysts")
		}
	} else if !actor.ownsOrganization(report.OrganizationID) {
		return forbidden(actor, "drafts are deleted by the owning organization")
	}
	return s.reportsSvc.DeleteDraft(ctx, reportID)
}

func (s *service) ReserveUnits(ctx context.Context, input ReserveUnitsInput) (*models.Transaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reservation input")
	}
	if !input.Actor.IsGovernment() {
		if !input.Actor.ownsOrganization(input.OrganizationID) {
			return nil, forbidden(input.Actor, "units are reserved by the owning organization")
		}
		if !input.Actor.Roles.HasAny(enums.RoleSigningAuthority) {
			return nil, forbidden(input.Actor, "reserving units requires signing authority")
		}
	}
	return s.ledgerSvc.Reserve(ctx, ledger.ReserveInput{
		OrganizationID: input.OrganizationID,
		Units:          input.Units,
		EffectiveDate:  input.EffectiveDate,
	})
}

func (s *service) CommitTransaction(ctx context.Context, transactionID int64, actor Actor) (*models.Transaction, error) {
	if !actor.Roles.HasAny(enums.RoleAnalyst, enums.RoleDirector) {
		return nil, forbidden(actor, "committing a reservation requires an analyst or the director")
	}
	return s.ledgerSvc.Commit(ctx, transactionID)
}

func (s *service) ReleaseTransaction(ctx context.Context, transactionID int64, actor Actor) (*models.Transaction, error) {
	if !actor.Roles.HasAny(enums.RoleAnalyst, enums.RoleDirector) {
		return nil, forbidden(actor, "releasing a reservation requires an analyst or the director")
	}
	return s.ledgerSvc.Release(ctx, transactionID)
}

func (s *service) AppendAdjustment(ctx context.Context, input AppendAdjustmentInput) (*models.Transaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment input")
	}
	if !input.Actor.Roles.HasAny(enums.RoleDirector) {
		return nil, forbidden(input.Actor, "direct adjustments require the director")
	}
	var out *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.ledgerSvc.AppendAdjustmentTx(ctx, tx, ledger.AdjustmentInput{
			OrganizationID: input.OrganizationID,
			Units:          input.Units,
			EffectiveDate:  input.EffectiveDate,
		})
		if err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLedgerRefreshNeeded,
			AggregateType: enums.AggregateOrganization,
			AggregateID:   input.OrganizationID,
			Actor: &outbox.ActorRef{
				Username:       input.Actor.UserID,
				OrganizationID: input.Actor.OrganizationID,
			},
			Data:    payloads.LedgerRefreshNeededEvent{OrganizationID: input.OrganizationID},
			Version: 1,
		}); err != nil {
			return err
		}
		out = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkSubmittable enforces the submit preconditions: at least one line item
// and a summary that computes cleanly.
func (s *service) checkSubmittable(ctx context.Context, tx *gorm.DB, report *models.ComplianceReport) error {
	lines, err := s.reportsSvc.EffectiveLines(ctx, report.ID)
	if err != nil {
		return err
	}
	if len(lines.FuelSupplies)+len(lines.FuelExports)+len(lines.OtherUses)+
		len(lines.NotionalTransfers)+len(lines.AllocationAgreements) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot submit a report with no line items").
			WithDetails(map[string]any{"compliance_report_id": report.ID})
	}
	_, err = s.summarySvc.BuildTx(ctx, tx, report.ID)
	return err
}

// assess rebuilds the summary, appends the line-20 adjustment, links it to
// the report, and locks the summary row.
func (s *service) assess(ctx context.Context, tx *gorm.DB, repo reports.Repository, report *models.ComplianceReport) (*models.ComplianceReportSummary, error) {
	built, err := s.summarySvc.BuildTx(ctx, tx, report.ID)
	if err != nil {
		return nil, err
	}

	if built.Line20NetDelta != 0 {
		txn, err := s.ledgerSvc.AppendAssessmentTx(ctx, tx, ledger.AdjustmentInput{
			OrganizationID: report.OrganizationID,
			Units:          built.Line20NetDelta,
			EffectiveDate:  periodEnd(report.CompliancePeriod),
		})
		if err != nil {
			return nil, err
		}
		report.TransactionID = &txn.ID
	}

	built.IsLocked = true
	if err := repo.UpsertSummary(ctx, built); err != nil {
		return nil, err
	}
	return built, nil
}

func (s *service) emitStatusEvents(ctx context.Context, tx *gorm.DB, report *models.ComplianceReport, from enums.ReportStatus, input TransitionReportInput, assessedSummary *models.ComplianceReportSummary) error {
	actor := &outbox.ActorRef{
		Username:       input.Actor.UserID,
		OrganizationID: input.Actor.OrganizationID,
	}
	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReportStatusChanged,
		AggregateType: enums.AggregateComplianceReport,
		AggregateID:   report.ID,
		Actor:         actor,
		Data: payloads.ReportStatusChangedEvent{
			ReportID:       report.ID,
			OrganizationID: report.OrganizationID,
			Period:         report.CompliancePeriod,
			FromStatus:     from,
			ToStatus:       input.Target,
		},
		Version: 1,
	}); err != nil {
		return err
	}

	if intent := notificationForTransition(report, from, input.Target); intent != nil {
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateOrganization,
			AggregateID:   report.OrganizationID,
			Actor:         actor,
			Data:          *intent,
			Version:       1,
		}); err != nil {
			return err
		}
	}

	if assessedSummary == nil {
		return nil
	}
	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReportAssessed,
		AggregateType: enums.AggregateComplianceReport,
		AggregateID:   report.ID,
		Actor:         actor,
		Data: payloads.ReportAssessedEvent{
			ReportID:        report.ID,
			OrganizationID:  report.OrganizationID,
			Period:          report.CompliancePeriod,
			ComplianceUnits: assessedSummary.Line20NetDelta,
			PenaltyPayable:  assessedSummary.Line21PenaltyDollars,
		},
		Version: 1,
	}); err != nil {
		return err
	}
	// The assessment changed the organization's balance; nudge the credit
	// ledger view.
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLedgerRefreshNeeded,
		AggregateType: enums.AggregateOrganization,
		AggregateID:   report.OrganizationID,
		Actor:         actor,
		Data:          payloads.LedgerRefreshNeededEvent{OrganizationID: report.OrganizationID},
		Version:       1,
	})
}

// notificationForTransition maps a status change to the template and role set
// the sink should deliver to. Returned nil means the transition carries no
// notification.
func notificationForTransition(report *models.ComplianceReport, from, target enums.ReportStatus) *payloads.NotificationRequestedEvent {
	intent := payloads.NotificationRequestedEvent{
		OrganizationID: report.OrganizationID,
		ReportID:       &report.ID,
	}
	switch target {
	case enums.ReportStatusSubmitted:
		if from == enums.ReportStatusDraft {
			intent.Template = enums.TemplateReportSubmitted
			intent.RecipientRoleSet = []enums.Role{enums.RoleAnalyst}
		} else {
			intent.Template = enums.TemplateReportReturned
			intent.RecipientRoleSet = []enums.Role{enums.RoleComplianceReporting, enums.RoleSigningAuthority}
		}
	case enums.ReportStatusRecommendedByAnalyst:
		intent.Template = enums.TemplateReportRecommended
		intent.RecipientRoleSet = []enums.Role{enums.RoleComplianceManager}
	case enums.ReportStatusRecommendedByManager:
		intent.Template = enums.TemplateReportRecommended
		intent.RecipientRoleSet = []enums.Role{enums.RoleDirector}
	case enums.ReportStatusAssessed, enums.ReportStatusReassessed:
		intent.Template = enums.TemplateReportAssessed
		intent.RecipientRoleSet = []enums.Role{enums.RoleComplianceReporting, enums.RoleSigningAuthority}
	default:
		return nil
	}
	return &intent
}

func (s *service) lineAccess(ctx context.Context, reportID int64, actor Actor) (enums.UserType, error) {
	report, err := s.reportsSvc.GetReport(ctx, reportID)
	if err != nil {
		return "", err
	}
	if actor.IsGovernment() {
		return enums.UserTypeGovernment, nil
	}
	if !actor.ownsOrganization(report.OrganizationID) {
		return "", forbidden(actor, "line items are edited by the owning organization")
	}
	return enums.UserTypeSupplier, nil
}

func (s *service) requireGroupOwnership(ctx context.Context, groupUUID uuid.UUID, actor Actor) error {
	group, err := s.reportsSvc.GetGroup(ctx, groupUUID)
	if err != nil {
		return err
	}
	if len(group) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "report group not found").
			WithDetails(map[string]any{"group_uuid": groupUUID.String()})
	}
	if !actor.ownsOrganization(group[0].OrganizationID) {
		return forbidden(actor, "supplementals are created by the owning organization")
	}
	return nil
}

// requireTransitionRole maps each target status to the roles that may drive
// it. Submitted doubles as the government's return-to-supplier edge, so its
// role depends on the source status.
func requireTransitionRole(report *models.ComplianceReport, target enums.ReportStatus, actor Actor) error {
	switch target {
	case enums.ReportStatusSubmitted:
		if report.CurrentStatus == enums.ReportStatusDraft {
			if !actor.ownsOrganization(report.OrganizationID) {
				return forbidden(actor, "reports are submitted by the owning organization")
			}
			if !actor.Roles.HasAny(enums.RoleSigningAuthority) {
				return forbidden(actor, "submission requires signing authority")
			}
			return nil
		}
		if !actor.Roles.HasAny(enums.RoleAnalyst, enums.RoleComplianceManager) {
			return forbidden(actor, "returning a report requires an analyst or manager")
		}
		return nil
	case enums.ReportStatusRecommendedByAnalyst:
		if !actor.Roles.HasAny(enums.RoleAnalyst) {
			return forbidden(actor, "recommendation requires an analyst")
		}
		return nil
	case enums.ReportStatusRecommendedByManager:
		if !actor.Roles.HasAny(enums.RoleComplianceManager) {
			return forbidden(actor, "recommendation requires a compliance manager")
		}
		return nil
	case enums.ReportStatusAssessed, enums.ReportStatusReassessed:
		if !actor.Roles.HasAny(enums.RoleDirector) {
			return forbidden(actor, "assessment requires the director")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "unsupported target status").
			WithDetails(map[string]any{"to": string(target)})
	}
}

func forbidden(actor Actor, msg string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg).
		WithDetails(map[string]any{"user_id": actor.UserID})
}

// periodEnd anchors assessment adjustments inside the compliance period.
func periodEnd(period int) time.Time {
	return time.Date(period, 12, 31, 0, 0, 0, 0, time.UTC)
}
