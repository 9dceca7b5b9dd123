package summary

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/ledger"
	"github.com/pacificfuels/lcfs-backend/internal/referencedata"
	"github.com/pacificfuels/lcfs-backend/internal/reports"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

// Service builds the computed half of the 22-line report summary. Build is a
// pure function of the report's effective lines, its predecessor summary, and
// the ledger: rebuilding an unlocked summary always lands on the same row.
type Service interface {
	Build(ctx context.Context, reportID int64) (*models.ComplianceReportSummary, error)
	// BuildTx runs the same computation with all writes bound to tx, for
	// callers that persist the summary alongside a status change.
	BuildTx(ctx context.Context, tx *gorm.DB, reportID int64) (*models.ComplianceReportSummary, error)
}

type service struct {
	repo        Repository
	reportsSvc  reports.Service
	reportsRepo reports.Repository
	ledgerSvc   ledger.Service
	refdata     referencedata.Service
}

// NewService wires the summary builder.
func NewService(repo Repository, reportsSvc reports.Service, reportsRepo reports.Repository, ledgerSvc ledger.Service, refdata referencedata.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("summary repository required")
	}
	if reportsSvc == nil {
		return nil, fmt.Errorf("report service required")
	}
	if reportsRepo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if refdata == nil {
		return nil, fmt.Errorf("reference data service required")
	}
	return &service{
		repo:        repo,
		reportsSvc:  reportsSvc,
		reportsRepo: reportsRepo,
		ledgerSvc:   ledgerSvc,
		refdata:     refdata,
	}, nil
}

func (s *service) Build(ctx context.Context, reportID int64) (*models.ComplianceReportSummary, error) {
	return s.build(ctx, s.repo, s.reportsRepo, reportID)
}

func (s *service) BuildTx(ctx context.Context, tx *gorm.DB, reportID int64) (*models.ComplianceReportSummary, error) {
	return s.build(ctx, s.repo.WithTx(tx), s.reportsRepo.WithTx(tx), reportID)
}

func (s *service) build(ctx context.Context, repo Repository, reportsRepo reports.Repository, reportID int64) (*models.ComplianceReportSummary, error) {
	report, err := s.reportsSvc.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	existing, err := reportsRepo.FindSummaryByReportID(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsLocked {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "summary is locked").
			WithDetails(map[string]any{"report_id": report.ID})
	}

	lines, err := s.reportsSvc.EffectiveLines(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	line18, line19 := currentPeriodUnits(lines)

	line15, line16, openQuestion, err := s.previouslyAssessed(ctx, reportsRepo, report)
	if err != nil {
		return nil, err
	}

	groupTxnIDs, err := s.reportsSvc.GroupTransactionIDs(ctx, report.GroupUUID)
	if err != nil {
		return nil, err
	}
	line17, err := s.ledgerSvc.AssessedBalanceThroughYear(ctx, report.OrganizationID, report.CompliancePeriod, groupTxnIDs)
	if err != nil {
		return nil, err
	}

	line12, err := repo.TransferredOutUnits(ctx, report.OrganizationID, report.CompliancePeriod)
	if err != nil {
		return nil, err
	}
	line13, err := repo.ReceivedUnits(ctx, report.OrganizationID, report.CompliancePeriod)
	if err != nil {
		return nil, err
	}
	line14, err := repo.IssuedUnits(ctx, report.OrganizationID, report.CompliancePeriod)
	if err != nil {
		return nil, err
	}

	line20 := line18 + line19 - line15 - line16
	finalBalance := line17 + line20

	line22 := finalBalance
	if line22 < 0 {
		line22 = 0
	}
	penaltyUnits := finalBalance
	if penaltyUnits > 0 {
		penaltyUnits = 0
	}

	var line21 int64
	if penaltyUnits < 0 {
		rate, err := s.refdata.PenaltyRate(ctx, report.CompliancePeriod)
		if err != nil {
			return nil, err
		}
		line21 = decimal.NewFromInt(-penaltyUnits).Mul(rate).IntPart()
	}

	out := &models.ComplianceReportSummary{
		ReportID:             report.ID,
		Line12TransferredOut: line12,
		Line13Received:       line13,
		Line14Issued:         line14,
		Line15PrevSupply:     line15,
		Line16PrevExport:     line16,
		Line17OpeningBalance: line17,
		Line18SupplyUnits:    line18,
		Line19ExportUnits:    line19,
		Line20NetDelta:       line20,
		Line21PenaltyDollars: line21,
		Line22ClosingBalance: line22,
		PenaltyUnits:         penaltyUnits,
		OpenQuestion:         openQuestion,
	}
	if existing != nil {
		out.ID = existing.ID
		out.AuditStamps = existing.AuditStamps
	}
	if err := reportsRepo.UpsertSummary(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// previouslyAssessed returns lines 15 and 16: the most recent prior assessed
// version's current-period units. When the version chain below the report is
// broken or the predecessor summary is missing, both lines stay zero and the
// open-question flag is raised instead of inventing values.
func (s *service) previouslyAssessed(ctx context.Context, reportsRepo reports.Repository, report *models.ComplianceReport) (int64, int64, bool, error) {
	if report.Version == 0 {
		return 0, 0, false, nil
	}

	group, err := s.reportsSvc.GetGroup(ctx, report.GroupUUID)
	if err != nil {
		return 0, 0, false, err
	}

	seen := make(map[int]bool, len(group))
	var pred *models.ComplianceReport
	for i := range group {
		version := group[i]
		seen[version.Version] = true
		if version.Version >= report.Version {
			continue
		}
		if version.CurrentStatus != enums.ReportStatusAssessed && version.CurrentStatus != enums.ReportStatusReassessed {
			continue
		}
		if pred == nil || version.Version > pred.Version {
			pred = &group[i]
		}
	}
	for v := 0; v < report.Version; v++ {
		if !seen[v] {
			return 0, 0, true, nil
		}
	}
	if pred == nil {
		return 0, 0, false, nil
	}

	predSummary, err := reportsRepo.FindSummaryByReportID(ctx, pred.ID)
	if err != nil {
		return 0, 0, false, err
	}
	if predSummary == nil {
		return 0, 0, true, nil
	}
	return predSummary.Line18SupplyUnits, predSummary.Line19ExportUnits, false, nil
}

// currentPeriodUnits folds the effective line set into line 18 (everything
// supplied, allocated, or otherwise accounted in-province) and line 19
// (exports, already negated by the calculator).
func currentPeriodUnits(lines *reports.EffectiveLineSet) (int64, int64) {
	var line18, line19 int64
	for _, row := range lines.FuelSupplies {
		line18 += row.ComplianceUnits
	}
	for _, row := range lines.OtherUses {
		line18 += row.ComplianceUnits
	}
	for _, row := range lines.NotionalTransfers {
		line18 += row.ComplianceUnits
	}
	for _, row := range lines.AllocationAgreements {
		line18 += row.ComplianceUnits
	}
	for _, row := range lines.FuelExports {
		line19 += row.ComplianceUnits
	}
	return line18, line19
}
