package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/calculator"
	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/internal/referencedata"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the report-chain manager: it owns the version graph of a report
// group, the status transition table, and the versioned line-item edits.
type Service interface {
	CreateReport(ctx context.Context, input CreateReportInput) (*models.ComplianceReport, error)
	GetReport(ctx context.Context, id int64) (*models.ComplianceReport, error)
	GetGroup(ctx context.Context, groupUUID uuid.UUID) ([]models.ComplianceReport, error)
	CreateSupplemental(ctx context.Context, groupUUID uuid.UUID, userID string) (*models.ComplianceReport, error)
	CreateReassessment(ctx context.Context, groupUUID uuid.UUID, userID string) (*models.ComplianceReport, error)
	DeleteDraft(ctx context.Context, reportID int64) error

	// ValidateTransition checks the status edge only; role checks belong to
	// the lifecycle orchestrator.
	ValidateTransition(report *models.ComplianceReport, target enums.ReportStatus) error
	// LatestAssessed returns the highest Assessed or Reassessed version in
	// the group, or nil.
	LatestAssessed(ctx context.Context, groupUUID uuid.UUID) (*models.ComplianceReport, error)
	GroupTransactionIDs(ctx context.Context, groupUUID uuid.UUID) ([]int64, error)

	EffectiveLines(ctx context.Context, reportID int64) (*EffectiveLineSet, error)
	AddLineItem(ctx context.Context, input AddLineItemInput) (*LineItemResult, error)
	DeleteLineItem(ctx context.Context, input DeleteLineItemInput) error
}

// CreateReportInput starts a new report group at version 0.
type CreateReportInput struct {
	OrganizationID   int64
	CompliancePeriod int
	Frequency        enums.ReportingFrequency
	Nickname         *string
	UserID           string
}

// AddLineItemInput adds or edits one versioned line. A nil GroupUUID starts a
// new logical line; a set GroupUUID records an UPDATE of the existing one.
type AddLineItemInput struct {
	ReportID  int64
	Kind      calculator.LineKind
	GroupUUID *uuid.UUID
	UserType  enums.UserType

	FuelTypeID     int64
	FuelCategoryID int64
	EndUseID       int64
	ProvisionID    int64
	FuelCodeID     *int64
	Quantity       decimal.Decimal
	Units          string

	AllocationType     enums.AllocationTransactionType
	TransactionPartner string
	LegalName          string
	Received           bool
	ExpectedUse        string
}

// DeleteLineItemInput removes a logical line from the report's effective set.
type DeleteLineItemInput struct {
	ReportID  int64
	Kind      calculator.LineKind
	GroupUUID uuid.UUID
	UserType  enums.UserType
}

// LineItemResult reports the logical line identity and its cached units.
type LineItemResult struct {
	GroupUUID       uuid.UUID
	ComplianceUnits int64
}

// EffectiveLineSet is the set of lines visible at a report version.
type EffectiveLineSet struct {
	FuelSupplies         []models.FuelSupply
	FuelExports          []models.FuelExport
	OtherUses            []models.OtherUses
	NotionalTransfers    []models.NotionalTransfer
	AllocationAgreements []models.AllocationAgreement
}

var allowedTransitions = map[enums.ReportStatus][]enums.ReportStatus{
	enums.ReportStatusDraft:                {enums.ReportStatusSubmitted},
	enums.ReportStatusSubmitted:            {enums.ReportStatusRecommendedByAnalyst},
	enums.ReportStatusRecommendedByAnalyst: {enums.ReportStatusRecommendedByManager, enums.ReportStatusSubmitted},
	enums.ReportStatusRecommendedByManager: {enums.ReportStatusAssessed, enums.ReportStatusSubmitted},
	enums.ReportStatusAnalystAdjustment:    {enums.ReportStatusReassessed},
}

type service struct {
	tx      txRunner
	repo    Repository
	refdata referencedata.Service
	orgSvc  organizations.Service
}

// NewService wires the report-chain manager.
func NewService(tx txRunner, repo Repository, refdata referencedata.Service, orgSvc organizations.Service) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if refdata == nil {
		return nil, fmt.Errorf("reference data service required")
	}
	if orgSvc == nil {
		return nil, fmt.Errorf("organization service required")
	}
	return &service{tx: tx, repo: repo, refdata: refdata, orgSvc: orgSvc}, nil
}

func (s *service) CreateReport(ctx context.Context, input CreateReportInput) (*models.ComplianceReport, error) {
	if input.OrganizationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.CompliancePeriod < 2010 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "implausible compliance period").
			WithDetails(map[string]any{"compliance_period": input.CompliancePeriod})
	}
	frequency := input.Frequency
	if frequency == "" {
		frequency = enums.FrequencyAnnual
	}
	if !frequency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reporting frequency").
			WithDetails(map[string]any{"reporting_frequency": string(frequency)})
	}
	if frequency == enums.FrequencyQuarterly {
		ok, err := s.orgSvc.AllowsQuarterly(ctx, input.OrganizationID, input.CompliancePeriod)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quarterly reporting requires early issuance for the period").
				WithDetails(map[string]any{
					"organization_id":   input.OrganizationID,
					"compliance_period": input.CompliancePeriod,
				})
		}
	}

	existing, err := s.repo.FindOriginalByOrgPeriod(ctx, input.OrganizationID, input.CompliancePeriod)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a report already exists for this period").
			WithDetails(map[string]any{
				"organization_id":   input.OrganizationID,
				"compliance_period": input.CompliancePeriod,
			})
	}

	report := &models.ComplianceReport{
		GroupUUID:        uuid.New(),
		Version:          0,
		OrganizationID:   input.OrganizationID,
		CompliancePeriod: input.CompliancePeriod,
		CurrentStatus:    enums.ReportStatusDraft,
		Frequency:        frequency,
		Nickname:         input.Nickname,
	}
	report.CreateUser = input.UserID
	report.UpdateUser = input.UserID
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) GetReport(ctx context.Context, id int64) (*models.ComplianceReport, error) {
	report, err := s.repo.FindReportByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "compliance report not found").
			WithDetails(map[string]any{"compliance_report_id": id})
	}
	return report, nil
}

func (s *service) GetGroup(ctx context.Context, groupUUID uuid.UUID) ([]models.ComplianceReport, error) {
	return s.repo.ListGroup(ctx, groupUUID)
}

func (s *service) CreateSupplemental(ctx context.Context, groupUUID uuid.UUID, userID string) (*models.ComplianceReport, error) {
	group, err := s.repo.ListGroup(ctx, groupUUID)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report group not found").
			WithDetails(map[string]any{"group_uuid": groupUUID.String()})
	}
	latest := group[len(group)-1]
	for _, report := range group {
		if !isSettled(report.CurrentStatus) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "group already has an open version").
				WithDetails(map[string]any{
					"version": report.Version,
					"status":  string(report.CurrentStatus),
				})
		}
	}

	initiator := enums.InitiatorSupplierSupplemental
	supplemental := &models.ComplianceReport{
		GroupUUID:        groupUUID,
		Version:          latest.Version + 1,
		OrganizationID:   latest.OrganizationID,
		CompliancePeriod: latest.CompliancePeriod,
		CurrentStatus:    enums.ReportStatusDraft,
		Frequency:        latest.Frequency,
		Initiator:        &initiator,
	}
	supplemental.CreateUser = userID
	supplemental.UpdateUser = userID
	if err := s.repo.CreateReport(ctx, supplemental); err != nil {
		return nil, err
	}
	return supplemental, nil
}

func (s *service) CreateReassessment(ctx context.Context, groupUUID uuid.UUID, userID string) (*models.ComplianceReport, error) {
	group, err := s.repo.ListGroup(ctx, groupUUID)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report group not found").
			WithDetails(map[string]any{"group_uuid": groupUUID.String()})
	}
	latest := group[len(group)-1]
	switch latest.CurrentStatus {
	case enums.ReportStatusSubmitted, enums.ReportStatusAssessed, enums.ReportStatusReassessed:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "reassessment requires a submitted or assessed latest version").
			WithDetails(map[string]any{"status": string(latest.CurrentStatus)})
	}
	for _, report := range group {
		if report.CurrentStatus == enums.ReportStatusDraft || report.CurrentStatus == enums.ReportStatusAnalystAdjustment {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "reassessment cannot coexist with an open draft").
				WithDetails(map[string]any{"version": report.Version})
		}
	}

	initiator := enums.InitiatorGovernmentReassessment
	reassessment := &models.ComplianceReport{
		GroupUUID:        groupUUID,
		Version:          latest.Version + 1,
		OrganizationID:   latest.OrganizationID,
		CompliancePeriod: latest.CompliancePeriod,
		CurrentStatus:    enums.ReportStatusAnalystAdjustment,
		Frequency:        latest.Frequency,
		Initiator:        &initiator,
	}
	reassessment.CreateUser = userID
	reassessment.UpdateUser = userID
	if err := s.repo.CreateReport(ctx, reassessment); err != nil {
		return nil, err
	}
	return reassessment, nil
}

func (s *service) DeleteDraft(ctx context.Context, reportID int64) error {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if report.CurrentStatus != enums.ReportStatusDraft && report.CurrentStatus != enums.ReportStatusAnalystAdjustment {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "only draft reports can be deleted").
			WithDetails(map[string]any{"status": string(report.CurrentStatus)})
	}
	group, err := s.repo.ListGroup(ctx, report.GroupUUID)
	if err != nil {
		return err
	}
	if group[len(group)-1].ID != report.ID {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "only the latest version can be deleted")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteLinesByReportID(ctx, report.ID); err != nil {
			return err
		}
		if err := repo.DeleteSummaryByReportID(ctx, report.ID); err != nil {
			return err
		}
		return repo.DeleteReport(ctx, report.ID)
	})
}

func (s *service) ValidateTransition(report *models.ComplianceReport, target enums.ReportStatus) error {
	if report == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "report is required")
	}
	for _, allowed := range allowedTransitions[report.CurrentStatus] {
		if allowed == target {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not permitted").
		WithDetails(map[string]any{
			"from": string(report.CurrentStatus),
			"to":   string(target),
		})
}

func (s *service) LatestAssessed(ctx context.Context, groupUUID uuid.UUID) (*models.ComplianceReport, error) {
	group, err := s.repo.ListGroup(ctx, groupUUID)
	if err != nil {
		return nil, err
	}
	for i := len(group) - 1; i >= 0; i-- {
		if isSettled(group[i].CurrentStatus) {
			report := group[i]
			return &report, nil
		}
	}
	return nil, nil
}

func (s *service) GroupTransactionIDs(ctx context.Context, groupUUID uuid.UUID) ([]int64, error) {
	return s.repo.GroupTransactionIDs(ctx, groupUUID)
}

func (s *service) EffectiveLines(ctx context.Context, reportID int64) (*EffectiveLineSet, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	group, err := s.repo.ListGroup(ctx, report.GroupUUID)
	if err != nil {
		return nil, err
	}

	var reportIDs []int64
	for _, r := range group {
		if r.Version <= report.Version {
			reportIDs = append(reportIDs, r.ID)
		}
	}

	supplies, err := s.repo.ListFuelSupplies(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	exports, err := s.repo.ListFuelExports(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	otherUses, err := s.repo.ListOtherUses(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	notionals, err := s.repo.ListNotionalTransfers(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	allocations, err := s.repo.ListAllocationAgreements(ctx, reportIDs)
	if err != nil {
		return nil, err
	}

	return &EffectiveLineSet{
		FuelSupplies:         effectiveRows(supplies, report.Version),
		FuelExports:          effectiveRows(exports, report.Version),
		OtherUses:            effectiveRows(otherUses, report.Version),
		NotionalTransfers:    effectiveRows(notionals, report.Version),
		AllocationAgreements: effectiveRows(allocations, report.Version),
	}, nil
}

func (s *service) AddLineItem(ctx context.Context, input AddLineItemInput) (*LineItemResult, error) {
	report, err := s.editableReport(ctx, input.ReportID)
	if err != nil {
		return nil, err
	}

	groupUUID := uuid.New()
	action := enums.ActionTypeCreate
	if input.GroupUUID != nil {
		groupUUID = *input.GroupUUID
		action = enums.ActionTypeUpdate
	}
	userType := input.UserType
	if userType == "" {
		userType = enums.UserTypeSupplier
	}
	version := models.LineVersion{
		GroupUUID:  groupUUID,
		Version:    report.Version,
		ActionType: action,
		UserType:   userType,
	}

	units, err := s.lineUnits(ctx, report, input)
	if err != nil {
		return nil, err
	}

	line, err := buildLine(report.ID, version, input, units)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return &LineItemResult{GroupUUID: groupUUID, ComplianceUnits: units}, nil
}

func (s *service) DeleteLineItem(ctx context.Context, input DeleteLineItemInput) error {
	report, err := s.editableReport(ctx, input.ReportID)
	if err != nil {
		return err
	}
	group, err := s.repo.ListGroup(ctx, report.GroupUUID)
	if err != nil {
		return err
	}
	var reportIDs []int64
	for _, r := range group {
		if r.Version <= report.Version {
			reportIDs = append(reportIDs, r.ID)
		}
	}

	userType := input.UserType
	if userType == "" {
		userType = enums.UserTypeSupplier
	}
	markerVersion := models.LineVersion{
		GroupUUID:  input.GroupUUID,
		Version:    report.Version,
		ActionType: enums.ActionTypeDelete,
		UserType:   userType,
	}

	var toDelete []any
	var marker any
	switch input.Kind {
	case calculator.LineFuelSupply:
		rows, err := s.repo.ListFuelSupplies(ctx, reportIDs)
		if err != nil {
			return err
		}
		plan, perr := planLineDelete(rows, input.GroupUUID, report.Version)
		if perr != nil {
			return perr
		}
		for i := range plan.toDelete {
			toDelete = append(toDelete, &plan.toDelete[i])
		}
		if plan.ancestor != nil {
			clone := *plan.ancestor
			clone.ID = 0
			clone.ReportID = report.ID
			clone.LineVersion = markerVersion
			marker = &clone
		}
	case calculator.LineFuelExport:
		rows, err := s.repo.ListFuelExports(ctx, reportIDs)
		if err != nil {
			return err
		}
		plan, perr := planLineDelete(rows, input.GroupUUID, report.Version)
		if perr != nil {
			return perr
		}
		for i := range plan.toDelete {
			toDelete = append(toDelete, &plan.toDelete[i])
		}
		if plan.ancestor != nil {
			clone := *plan.ancestor
			clone.ID = 0
			clone.ReportID = report.ID
			clone.LineVersion = markerVersion
			marker = &clone
		}
	case calculator.LineOtherUses:
		rows, err := s.repo.ListOtherUses(ctx, reportIDs)
		if err != nil {
			return err
		}
		plan, perr := planLineDelete(rows, input.GroupUUID, report.Version)
		if perr != nil {
			return perr
		}
		for i := range plan.toDelete {
			toDelete = append(toDelete, &plan.toDelete[i])
		}
		if plan.ancestor != nil {
			clone := *plan.ancestor
			clone.ID = 0
			clone.ReportID = report.ID
			clone.LineVersion = markerVersion
			marker = &clone
		}
	case calculator.LineNotionalTransfer:
		rows, err := s.repo.ListNotionalTransfers(ctx, reportIDs)
		if err != nil {
			return err
		}
		plan, perr := planLineDelete(rows, input.GroupUUID, report.Version)
		if perr != nil {
			return perr
		}
		for i := range plan.toDelete {
			toDelete = append(toDelete, &plan.toDelete[i])
		}
		if plan.ancestor != nil {
			clone := *plan.ancestor
			clone.ID = 0
			clone.ReportID = report.ID
			clone.LineVersion = markerVersion
			marker = &clone
		}
	case calculator.LineAllocationAgreement:
		rows, err := s.repo.ListAllocationAgreements(ctx, reportIDs)
		if err != nil {
			return err
		}
		plan, perr := planLineDelete(rows, input.GroupUUID, report.Version)
		if perr != nil {
			return perr
		}
		for i := range plan.toDelete {
			toDelete = append(toDelete, &plan.toDelete[i])
		}
		if plan.ancestor != nil {
			clone := *plan.ancestor
			clone.ID = 0
			clone.ReportID = report.ID
			clone.LineVersion = markerVersion
			marker = &clone
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown line item kind").
			WithDetails(map[string]any{"kind": string(input.Kind)})
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// Rows written at this version are physically removed; lines carried
		// over from earlier versions get a DELETE marker instead.
		for _, row := range toDelete {
			if err := repo.DeleteLine(ctx, row); err != nil {
				return err
			}
		}
		if marker == nil {
			return nil
		}
		return repo.CreateLine(ctx, marker)
	})
}

type lineDeletePlan[T any] struct {
	// Rows written at the current version; removed physically.
	toDelete []T
	// The effective ancestor row, if the line survives from an earlier
	// version and therefore needs a DELETE marker.
	ancestor *T
}

func planLineDelete[T interface{ Versioning() models.LineVersion }](rows []T, groupUUID uuid.UUID, version int) (lineDeletePlan[T], error) {
	var plan lineDeletePlan[T]
	var ancestor *T
	found := false
	for i := range rows {
		v := rows[i].Versioning()
		if v.GroupUUID != groupUUID || v.Version > version {
			continue
		}
		found = true
		if v.Version == version {
			plan.toDelete = append(plan.toDelete, rows[i])
			continue
		}
		if ancestor == nil || (*ancestor).Versioning().Version < v.Version {
			ancestor = &rows[i]
		}
	}
	if !found {
		return plan, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found").
			WithDetails(map[string]any{"group_uuid": groupUUID.String()})
	}
	if ancestor != nil && (*ancestor).Versioning().ActionType != enums.ActionTypeDelete {
		plan.ancestor = ancestor
	}
	return plan, nil
}

func (s *service) editableReport(ctx context.Context, reportID int64) (*models.ComplianceReport, error) {
	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.CurrentStatus != enums.ReportStatusDraft && report.CurrentStatus != enums.ReportStatusAnalystAdjustment {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "report is not editable").
			WithDetails(map[string]any{"status": string(report.CurrentStatus)})
	}
	return report, nil
}

// lineUnits resolves the reference constants and caches the calculator output
// for unit-bearing line kinds.
func (s *service) lineUnits(ctx context.Context, report *models.ComplianceReport, input AddLineItemInput) (int64, error) {
	switch input.Kind {
	case calculator.LineOtherUses, calculator.LineNotionalTransfer:
		if input.Quantity.LessThanOrEqual(decimal.Zero) {
			return 0, pkgerrors.New(pkgerrors.CodeInvalidLine, "quantity must be positive").
				WithDetails(map[string]any{"quantity": input.Quantity.String()})
		}
		return 0, nil
	}

	resolved, err := s.refdata.Resolve(ctx, referencedata.ResolveInput{
		FuelTypeID:       input.FuelTypeID,
		FuelCategoryID:   input.FuelCategoryID,
		EndUseID:         input.EndUseID,
		CompliancePeriod: report.CompliancePeriod,
		ProvisionID:      input.ProvisionID,
		FuelCodeID:       input.FuelCodeID,
	})
	if err != nil {
		return 0, err
	}

	return calculator.ComputeUnits(calculator.LineInput{
		Kind:           input.Kind,
		Quantity:       input.Quantity,
		EnergyDensity:  resolved.EnergyDensity,
		TargetCI:       resolved.TargetCI,
		EER:            resolved.EER,
		EffectiveCI:    resolved.EffectiveCI,
		UCI:            resolved.UCI,
		AllocationType: input.AllocationType,
	})
}

func buildLine(reportID int64, version models.LineVersion, input AddLineItemInput, units int64) (any, error) {
	switch input.Kind {
	case calculator.LineFuelSupply:
		return &models.FuelSupply{
			ReportID:        reportID,
			LineVersion:     version,
			FuelTypeID:      input.FuelTypeID,
			FuelCategoryID:  input.FuelCategoryID,
			EndUseID:        input.EndUseID,
			ProvisionID:     input.ProvisionID,
			FuelCodeID:      input.FuelCodeID,
			Quantity:        input.Quantity,
			Units:           input.Units,
			ComplianceUnits: units,
		}, nil
	case calculator.LineFuelExport:
		return &models.FuelExport{
			ReportID:        reportID,
			LineVersion:     version,
			FuelTypeID:      input.FuelTypeID,
			FuelCategoryID:  input.FuelCategoryID,
			EndUseID:        input.EndUseID,
			ProvisionID:     input.ProvisionID,
			FuelCodeID:      input.FuelCodeID,
			Quantity:        input.Quantity,
			Units:           input.Units,
			ComplianceUnits: units,
		}, nil
	case calculator.LineOtherUses:
		return &models.OtherUses{
			ReportID:        reportID,
			LineVersion:     version,
			FuelTypeID:      input.FuelTypeID,
			FuelCategoryID:  input.FuelCategoryID,
			ProvisionID:     input.ProvisionID,
			ExpectedUse:     input.ExpectedUse,
			Quantity:        input.Quantity,
			Units:           input.Units,
			ComplianceUnits: units,
		}, nil
	case calculator.LineNotionalTransfer:
		return &models.NotionalTransfer{
			ReportID:        reportID,
			LineVersion:     version,
			LegalName:       input.LegalName,
			FuelCategoryID:  input.FuelCategoryID,
			Received:        input.Received,
			Quantity:        input.Quantity,
			ComplianceUnits: units,
		}, nil
	case calculator.LineAllocationAgreement:
		if !input.AllocationType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid allocation transaction type").
				WithDetails(map[string]any{"allocation_transaction_type": string(input.AllocationType)})
		}
		return &models.AllocationAgreement{
			ReportID:           reportID,
			LineVersion:        version,
			TransactionPartner: input.TransactionPartner,
			AllocationType:     input.AllocationType,
			FuelTypeID:         input.FuelTypeID,
			FuelCategoryID:     input.FuelCategoryID,
			EndUseID:           input.EndUseID,
			ProvisionID:        input.ProvisionID,
			FuelCodeID:         input.FuelCodeID,
			Quantity:           input.Quantity,
			Units:              input.Units,
			ComplianceUnits:    units,
		}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown line item kind").
			WithDetails(map[string]any{"kind": string(input.Kind)})
	}
}

func isSettled(status enums.ReportStatus) bool {
	return status == enums.ReportStatusAssessed || status == enums.ReportStatusReassessed
}
