package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/internal/calculator"
	"github.com/pacificfuels/lcfs-backend/internal/ledger"
	"github.com/pacificfuels/lcfs-backend/internal/organizations"
	"github.com/pacificfuels/lcfs-backend/internal/referencedata"
	"github.com/pacificfuels/lcfs-backend/internal/reports"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db         *gorm.DB
	svc        Service
	reportsSvc reports.Service
	ledgerSvc  ledger.Service
	org        *models.Organization
	ethanol    models.FuelType
	gasoline   models.FuelCategory
	endUse     models.EndUseType
	prov       models.ProvisionOfTheAct
	code       models.FuelCode
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:summary_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Transaction{},
		&models.Transfer{},
		&models.InitiativeAgreement{},
		&models.AdminAdjustment{},
		&models.ComplianceReport{},
		&models.ComplianceReportSummary{},
		&models.ComplianceReportHistory{},
		&models.FuelSupply{},
		&models.FuelExport{},
		&models.OtherUses{},
		&models.NotionalTransfer{},
		&models.AllocationAgreement{},
		&models.FuelType{},
		&models.FuelCategory{},
		&models.EndUseType{},
		&models.ProvisionOfTheAct{},
		&models.FuelCode{},
		&models.EnergyDensity{},
		&models.EnergyEffectivenessRatio{},
		&models.TargetCarbonIntensity{},
		&models.AdditionalCarbonIntensity{},
		&models.PenaltyRate{},
	); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{
		db:       db,
		ethanol:  models.FuelType{Name: "Ethanol", DefaultCI: decimal.RequireFromString("54.93"), Units: "Litres", IsLegacy: true},
		gasoline: models.FuelCategory{Name: "Gasoline", CategoryCI: decimal.RequireFromString("93.67")},
		endUse:   models.EndUseType{Type: "Light duty motor vehicles"},
		prov:     models.ProvisionOfTheAct{Name: "Fuel code - section 19 (b) (i)", RequiresFuelCode: true},
	}
	for _, row := range []any{&f.ethanol, &f.gasoline, &f.endUse, &f.prov} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed reference row: %v", err)
		}
	}
	f.code = models.FuelCode{
		Code:            "BCLCF101.0",
		FuelTypeID:      f.ethanol.ID,
		CarbonIntensity: decimal.RequireFromString("40.0"),
		Status:          models.FuelCodeStatusApproved,
		EffectiveDate:   midYear(2023),
	}
	if err := db.Create(&f.code).Error; err != nil {
		t.Fatalf("seed fuel code: %v", err)
	}
	for _, row := range []any{
		&models.EnergyDensity{FuelTypeID: f.ethanol.ID, Density: decimal.RequireFromString("23.58"), EffectiveFromYear: 2013},
		&models.TargetCarbonIntensity{FuelCategoryID: f.gasoline.ID, CompliancePeriod: 2024, TargetCI: decimal.RequireFromString("72.13"), ReductionTarget: decimal.RequireFromString("14.0")},
	} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed reference row: %v", err)
		}
	}

	f.org = &models.Organization{Name: "Pacific Fuels Ltd", Status: enums.OrgStatusRegistered}
	if err := db.Create(f.org).Error; err != nil {
		t.Fatalf("seed organization: %v", err)
	}

	cfg := config.ComplianceConfig{LegislationTransitionYear: 2024, PenaltyRatePerUnit: "600", GovernmentOrganizationID: f.org.ID + 1000}
	refdata, err := referencedata.NewService(referencedata.NewRepository(db), cfg)
	if err != nil {
		t.Fatalf("reference data service: %v", err)
	}
	orgSvc, err := organizations.NewService(organizations.NewRepository(db))
	if err != nil {
		t.Fatalf("organization service: %v", err)
	}
	reportsRepo := reports.NewRepository(db)
	f.reportsSvc, err = reports.NewService(gormTxRunner{db: db}, reportsRepo, refdata, orgSvc)
	if err != nil {
		t.Fatalf("report service: %v", err)
	}
	f.ledgerSvc, err = ledger.NewService(gormTxRunner{db: db}, ledger.NewRepository(db), organizations.NewRepository(db), cfg)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	f.svc, err = NewService(NewRepository(db), f.reportsSvc, reportsRepo, f.ledgerSvc, refdata)
	if err != nil {
		t.Fatalf("summary service: %v", err)
	}
	return f
}

func (f *fixture) newReport(t *testing.T) *models.ComplianceReport {
	t.Helper()
	report, err := f.reportsSvc.CreateReport(context.Background(), reports.CreateReportInput{
		OrganizationID:   f.org.ID,
		CompliancePeriod: 2024,
		UserID:           "supplier1",
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	return report
}

func (f *fixture) supplyInput(reportID int64, quantity string) reports.AddLineItemInput {
	return reports.AddLineItemInput{
		ReportID:       reportID,
		Kind:           calculator.LineFuelSupply,
		FuelTypeID:     f.ethanol.ID,
		FuelCategoryID: f.gasoline.ID,
		EndUseID:       f.endUse.ID,
		ProvisionID:    f.prov.ID,
		FuelCodeID:     &f.code.ID,
		Quantity:       decimal.RequireFromString(quantity),
		Units:          "L",
	}
}

func (f *fixture) markAssessed(t *testing.T, reportID int64) {
	t.Helper()
	if err := f.db.Model(&models.ComplianceReport{}).
		Where("compliance_report_id = ?", reportID).
		Update("current_status", enums.ReportStatusAssessed).Error; err != nil {
		t.Fatalf("mark assessed: %v", err)
	}
}

func (f *fixture) linkTransaction(t *testing.T, reportID, txnID int64) {
	t.Helper()
	if err := f.db.Model(&models.ComplianceReport{}).
		Where("compliance_report_id = ?", reportID).
		Update("transaction_id", txnID).Error; err != nil {
		t.Fatalf("link transaction: %v", err)
	}
}

func midYear(year int) time.Time {
	return time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC)
}

func TestBuildOriginalReportSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	if _, err := f.reportsSvc.AddLineItem(ctx, f.supplyInput(report.ID, "1000000")); err != nil {
		t.Fatalf("add line item: %v", err)
	}

	summary, err := f.svc.Build(ctx, report.ID)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if summary.Line18SupplyUnits != 757_625 {
		t.Fatalf("line 18 = %d, want 757625", summary.Line18SupplyUnits)
	}
	if summary.Line15PrevSupply != 0 || summary.Line16PrevExport != 0 {
		t.Fatalf("lines 15/16 = %d/%d, want 0/0 on version 0", summary.Line15PrevSupply, summary.Line16PrevExport)
	}
	if summary.Line17OpeningBalance != 0 {
		t.Fatalf("line 17 = %d, want 0", summary.Line17OpeningBalance)
	}
	if summary.Line20NetDelta != 757_625 {
		t.Fatalf("line 20 = %d, want 757625", summary.Line20NetDelta)
	}
	if summary.Line22ClosingBalance != 757_625 {
		t.Fatalf("line 22 = %d, want 757625", summary.Line22ClosingBalance)
	}
	if summary.Line21PenaltyDollars != 0 || summary.PenaltyUnits != 0 {
		t.Fatalf("penalty = $%d / %d units, want none", summary.Line21PenaltyDollars, summary.PenaltyUnits)
	}
	if summary.OpenQuestion {
		t.Fatalf("open question flag set on intact chain")
	}
}

func TestBuildSupplementalComputesDeltaPenalty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	result, err := f.reportsSvc.AddLineItem(ctx, f.supplyInput(report.ID, "1000000"))
	if err != nil {
		t.Fatalf("add line item: %v", err)
	}
	if _, err := f.svc.Build(ctx, report.ID); err != nil {
		t.Fatalf("build v0 summary: %v", err)
	}
	f.markAssessed(t, report.ID)

	txn, err := f.ledgerSvc.AppendAdjustment(ctx, ledger.AdjustmentInput{
		OrganizationID: f.org.ID,
		Units:          757_625,
		EffectiveDate:  midYear(2024),
	})
	if err != nil {
		t.Fatalf("append assessment adjustment: %v", err)
	}
	f.linkTransaction(t, report.ID, txn.ID)

	supplemental, err := f.reportsSvc.CreateSupplemental(ctx, report.GroupUUID, "supplier1")
	if err != nil {
		t.Fatalf("create supplemental: %v", err)
	}
	edit := f.supplyInput(supplemental.ID, "900000")
	edit.GroupUUID = &result.GroupUUID
	if _, err := f.reportsSvc.AddLineItem(ctx, edit); err != nil {
		t.Fatalf("edit line item: %v", err)
	}

	summary, err := f.svc.Build(ctx, supplemental.ID)
	if err != nil {
		t.Fatalf("build v1 summary: %v", err)
	}
	if summary.Line18SupplyUnits != 681_862 {
		t.Fatalf("line 18 = %d, want 681862", summary.Line18SupplyUnits)
	}
	if summary.Line15PrevSupply != 757_625 {
		t.Fatalf("line 15 = %d, want 757625", summary.Line15PrevSupply)
	}
	if summary.Line20NetDelta != -75_763 {
		t.Fatalf("line 20 = %d, want -75763", summary.Line20NetDelta)
	}
	if summary.Line17OpeningBalance != 0 {
		t.Fatalf("line 17 = %d, want 0 with own assessment excluded", summary.Line17OpeningBalance)
	}
	if summary.Line22ClosingBalance != 0 {
		t.Fatalf("line 22 = %d, want 0", summary.Line22ClosingBalance)
	}
	if summary.PenaltyUnits != -75_763 {
		t.Fatalf("penalty units = %d, want -75763", summary.PenaltyUnits)
	}
	if summary.Line21PenaltyDollars != 45_457_800 {
		t.Fatalf("line 21 = %d, want 45457800", summary.Line21PenaltyDollars)
	}
}

func TestBuildPenaltyUsesFinalBalanceNotNetDelta(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	if err := f.db.Create(&models.ComplianceReportSummary{
		ReportID:          report.ID,
		Line18SupplyUnits: -1_167,
	}).Error; err != nil {
		t.Fatalf("seed v0 summary: %v", err)
	}
	f.markAssessed(t, report.ID)

	if _, err := f.ledgerSvc.AppendAdjustment(ctx, ledger.AdjustmentInput{
		OrganizationID: f.org.ID,
		Units:          48_833,
		EffectiveDate:  midYear(2024),
	}); err != nil {
		t.Fatalf("seed opening balance: %v", err)
	}

	supplemental, err := f.reportsSvc.CreateSupplemental(ctx, report.GroupUUID, "supplier1")
	if err != nil {
		t.Fatalf("create supplemental: %v", err)
	}
	if err := f.db.Create(&models.FuelSupply{
		ReportID: supplemental.ID,
		LineVersion: models.LineVersion{
			GroupUUID:  uuid.New(),
			Version:    supplemental.Version,
			ActionType: enums.ActionTypeCreate,
			UserType:   enums.UserTypeSupplier,
		},
		FuelTypeID:      f.ethanol.ID,
		FuelCategoryID:  f.gasoline.ID,
		EndUseID:        f.endUse.ID,
		ProvisionID:     f.prov.ID,
		Quantity:        decimal.RequireFromString("1000000"),
		ComplianceUnits: -116_729,
	}).Error; err != nil {
		t.Fatalf("seed deficit line: %v", err)
	}

	summary, err := f.svc.Build(ctx, supplemental.ID)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if summary.Line17OpeningBalance != 48_833 {
		t.Fatalf("line 17 = %d, want 48833", summary.Line17OpeningBalance)
	}
	if summary.Line20NetDelta != -115_562 {
		t.Fatalf("line 20 = %d, want -115562", summary.Line20NetDelta)
	}
	if summary.PenaltyUnits != -66_729 {
		t.Fatalf("penalty units = %d, want -66729", summary.PenaltyUnits)
	}
	// The shortfall after the opening balance is what draws the penalty, not
	// the raw net delta: 66,729 x 600, never 115,562 x 600 or 67,896 x 600.
	if summary.Line21PenaltyDollars != 40_037_400 {
		t.Fatalf("line 21 = %d, want 40037400", summary.Line21PenaltyDollars)
	}
	if summary.Line22ClosingBalance != 0 {
		t.Fatalf("line 22 = %d, want 0", summary.Line22ClosingBalance)
	}
}

func TestBuildFlagsBrokenPredecessorChain(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	f.markAssessed(t, report.ID)

	supplemental, err := f.reportsSvc.CreateSupplemental(ctx, report.GroupUUID, "supplier1")
	if err != nil {
		t.Fatalf("create supplemental: %v", err)
	}

	summary, err := f.svc.Build(ctx, supplemental.ID)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if !summary.OpenQuestion {
		t.Fatalf("open question flag not set when predecessor summary is missing")
	}
	if summary.Line15PrevSupply != 0 || summary.Line16PrevExport != 0 {
		t.Fatalf("lines 15/16 = %d/%d, want 0/0 on broken chain", summary.Line15PrevSupply, summary.Line16PrevExport)
	}
}

func TestBuildTransactionAggregates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	counterparty := &models.Organization{Name: "Coastal Refining Inc", Status: enums.OrgStatusRegistered}
	if err := f.db.Create(counterparty).Error; err != nil {
		t.Fatalf("seed counterparty: %v", err)
	}

	agreementDate2024 := midYear(2024)
	agreementDate2023 := midYear(2023)
	for _, row := range []any{
		&models.Transfer{FromOrganizationID: f.org.ID, ToOrganizationID: counterparty.ID, Quantity: 300, Status: enums.TransferStatusRecorded, AgreementDate: &agreementDate2024},
		&models.Transfer{FromOrganizationID: counterparty.ID, ToOrganizationID: f.org.ID, Quantity: 120, Status: enums.TransferStatusRecorded, AgreementDate: &agreementDate2024},
		&models.Transfer{FromOrganizationID: f.org.ID, ToOrganizationID: counterparty.ID, Quantity: 999, Status: enums.TransferStatusDraft, AgreementDate: &agreementDate2024},
		&models.Transfer{FromOrganizationID: f.org.ID, ToOrganizationID: counterparty.ID, Quantity: 888, Status: enums.TransferStatusRecorded, AgreementDate: &agreementDate2023},
		&models.InitiativeAgreement{ToOrganizationID: f.org.ID, ComplianceUnits: 500, Status: enums.AgreementStatusApproved, EffectiveDate: &agreementDate2024},
		&models.InitiativeAgreement{ToOrganizationID: f.org.ID, ComplianceUnits: 777, Status: enums.AgreementStatusDraft, EffectiveDate: &agreementDate2024},
		&models.AdminAdjustment{ToOrganizationID: f.org.ID, ComplianceUnits: -50, Status: enums.AgreementStatusApproved, EffectiveDate: &agreementDate2024},
	} {
		if err := f.db.Create(row).Error; err != nil {
			t.Fatalf("seed transaction source: %v", err)
		}
	}

	report := f.newReport(t)
	summary, err := f.svc.Build(ctx, report.ID)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if summary.Line12TransferredOut != 300 {
		t.Fatalf("line 12 = %d, want 300", summary.Line12TransferredOut)
	}
	if summary.Line13Received != 120 {
		t.Fatalf("line 13 = %d, want 120", summary.Line13Received)
	}
	if summary.Line14Issued != 450 {
		t.Fatalf("line 14 = %d, want 450", summary.Line14Issued)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	if _, err := f.reportsSvc.AddLineItem(ctx, f.supplyInput(report.ID, "1000000")); err != nil {
		t.Fatalf("add line item: %v", err)
	}

	first, err := f.svc.Build(ctx, report.ID)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := f.svc.Build(ctx, report.ID)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if first.Line18SupplyUnits != second.Line18SupplyUnits ||
		first.Line20NetDelta != second.Line20NetDelta ||
		first.Line21PenaltyDollars != second.Line21PenaltyDollars ||
		first.Line22ClosingBalance != second.Line22ClosingBalance {
		t.Fatalf("rebuild changed values: %+v vs %+v", first, second)
	}

	var count int64
	if err := f.db.Model(&models.ComplianceReportSummary{}).
		Where("compliance_report_id = ?", report.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count summaries: %v", err)
	}
	if count != 1 {
		t.Fatalf("summary rows = %d, want 1", count)
	}
}

func TestBuildRefusesLockedSummary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	report := f.newReport(t)
	if _, err := f.svc.Build(ctx, report.ID); err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if err := f.db.Model(&models.ComplianceReportSummary{}).
		Where("compliance_report_id = ?", report.ID).
		Update("is_locked", true).Error; err != nil {
		t.Fatalf("lock summary: %v", err)
	}

	if _, err := f.svc.Build(ctx, report.ID); !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on locked summary, got %v", err)
	}
}
