package creditledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	"github.com/pacificfuels/lcfs-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:creditledger_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		&models.CreditLedgerEntry{},
	); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedOrg(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, Status: enums.OrgStatusRegistered}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("seed organization: %v", err)
	}
	return org
}

func seedTxn(t *testing.T, db *gorm.DB, orgID, units int64, at time.Time) *models.Transaction {
	t.Helper()
	txn := &models.Transaction{
		OrganizationID:  orgID,
		ComplianceUnits: units,
		Action:          enums.TransactionActionAdjustment,
		EffectiveDate:   at,
		EffectiveStatus: true,
		AuditStamps:     models.AuditStamps{UpdateDate: at},
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func at(day int) time.Time {
	return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestRebuildUnionAndRunningBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	org := seedOrg(t, db, "Pacific Fuels Ltd")
	other := seedOrg(t, db, "Coastal Refining Inc")
	ctx := context.Background()

	received := seedTxn(t, db, org.ID, 300, at(1))
	sent := seedTxn(t, db, org.ID, -100, at(2))
	issued := seedTxn(t, db, org.ID, 500, at(3))
	corrected := seedTxn(t, db, org.ID, -50, at(4))
	assessed := seedTxn(t, db, org.ID, 200, at(5))
	legacy := seedTxn(t, db, org.ID, 25, at(6))

	d1, d2 := at(1), at(2)
	d3, d4 := at(3), at(4)
	for _, row := range []any{
		&models.Transfer{FromOrganizationID: other.ID, ToOrganizationID: org.ID, ToTransactionID: &received.ID, Quantity: 300, Status: enums.TransferStatusRecorded, AgreementDate: &d1, AuditStamps: models.AuditStamps{UpdateDate: d1}},
		&models.Transfer{FromOrganizationID: org.ID, ToOrganizationID: other.ID, FromTransactionID: &sent.ID, Quantity: 100, Status: enums.TransferStatusRecorded, AgreementDate: &d2, AuditStamps: models.AuditStamps{UpdateDate: d2}},
		&models.InitiativeAgreement{ToOrganizationID: org.ID, TransactionID: &issued.ID, ComplianceUnits: 500, Status: enums.AgreementStatusApproved, EffectiveDate: &d3, AuditStamps: models.AuditStamps{UpdateDate: d3}},
		&models.AdminAdjustment{ToOrganizationID: org.ID, TransactionID: &corrected.ID, ComplianceUnits: -50, Status: enums.AgreementStatusApproved, EffectiveDate: &d4, AuditStamps: models.AuditStamps{UpdateDate: d4}},
	} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed source row: %v", err)
		}
	}

	report := &models.ComplianceReport{
		GroupUUID:        uuid.New(),
		OrganizationID:   org.ID,
		CompliancePeriod: 2024,
		CurrentStatus:    enums.ReportStatusAssessed,
		TransactionID:    &assessed.ID,
		AuditStamps:      models.AuditStamps{UpdateDate: at(5)},
	}
	if err := db.Create(report).Error; err != nil {
		t.Fatalf("seed report: %v", err)
	}
	if err := db.Create(&models.ComplianceReportSummary{ReportID: report.ID, Line20NetDelta: 200}).Error; err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	count, err := svc.Rebuild(ctx, org.ID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 6 {
		t.Fatalf("entry count = %d, want 6", count)
	}

	var entries []models.CreditLedgerEntry
	if err := db.Where("organization_id = ?", org.ID).Order("update_date ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	wantRunning := []int64{300, 200, 700, 650, 850, 875}
	for i, entry := range entries {
		if entry.AvailableBalance != wantRunning[i] {
			t.Fatalf("running balance[%d] = %d, want %d", i, entry.AvailableBalance, wantRunning[i])
		}
	}

	bySource := make(map[enums.LedgerSource]int)
	for _, entry := range entries {
		bySource[entry.Source]++
		if entry.Source == enums.LedgerSourceStandaloneTransaction {
			if !entry.IsLegacy {
				t.Fatalf("standalone entry not flagged legacy")
			}
			if entry.TransactionID != legacy.ID {
				t.Fatalf("standalone transaction id = %d, want %d", entry.TransactionID, legacy.ID)
			}
		}
	}
	if bySource[enums.LedgerSourceTransfer] != 2 ||
		bySource[enums.LedgerSourceInitiativeAgreement] != 1 ||
		bySource[enums.LedgerSourceAdminAdjustment] != 1 ||
		bySource[enums.LedgerSourceComplianceReport] != 1 ||
		bySource[enums.LedgerSourceStandaloneTransaction] != 1 {
		t.Fatalf("unexpected source breakdown: %v", bySource)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	org := seedOrg(t, db, "Pacific Fuels Ltd")
	ctx := context.Background()

	seedTxn(t, db, org.ID, 120, at(1))
	seedTxn(t, db, org.ID, 80, at(2))

	first, err := svc.Rebuild(ctx, org.ID)
	if err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	second, err := svc.Rebuild(ctx, org.ID)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if first != second {
		t.Fatalf("rebuild counts differ: %d vs %d", first, second)
	}

	var rows int64
	if err := db.Model(&models.CreditLedgerEntry{}).Where("organization_id = ?", org.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if rows != int64(first) {
		t.Fatalf("stored rows = %d, want %d", rows, first)
	}
}

func TestRebuildShowsOnlyLatestAssessedVersion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	org := seedOrg(t, db, "Pacific Fuels Ltd")
	ctx := context.Background()

	original := seedTxn(t, db, org.ID, 200, at(1))
	corrected := seedTxn(t, db, org.ID, -75, at(2))

	group := uuid.New()
	v0 := &models.ComplianceReport{GroupUUID: group, Version: 0, OrganizationID: org.ID, CompliancePeriod: 2024, CurrentStatus: enums.ReportStatusAssessed, TransactionID: &original.ID, AuditStamps: models.AuditStamps{UpdateDate: at(1)}}
	v1 := &models.ComplianceReport{GroupUUID: group, Version: 1, OrganizationID: org.ID, CompliancePeriod: 2024, CurrentStatus: enums.ReportStatusAssessed, TransactionID: &corrected.ID, AuditStamps: models.AuditStamps{UpdateDate: at(2)}}
	for _, report := range []*models.ComplianceReport{v0, v1} {
		if err := db.Create(report).Error; err != nil {
			t.Fatalf("seed report: %v", err)
		}
	}
	for _, summary := range []*models.ComplianceReportSummary{
		{ReportID: v0.ID, Line20NetDelta: 200},
		{ReportID: v1.ID, Line20NetDelta: -75},
	} {
		if err := db.Create(summary).Error; err != nil {
			t.Fatalf("seed summary: %v", err)
		}
	}

	count, err := svc.Rebuild(ctx, org.ID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 1 {
		t.Fatalf("entry count = %d, want only the latest assessed version", count)
	}

	var entry models.CreditLedgerEntry
	if err := db.First(&entry, "organization_id = ?", org.ID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.Source != enums.LedgerSourceComplianceReport || entry.ComplianceUnits != -75 {
		t.Fatalf("entry = %s/%d, want ComplianceReport/-75", entry.Source, entry.ComplianceUnits)
	}
	if entry.TransactionID != corrected.ID {
		t.Fatalf("transaction id = %d, want latest version's %d", entry.TransactionID, corrected.ID)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	org := seedOrg(t, db, "Pacific Fuels Ltd")
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		seedTxn(t, db, org.ID, int64(day*10), at(day))
	}
	if _, err := svc.Rebuild(ctx, org.ID); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	page, err := svc.List(ctx, ListInput{
		OrganizationID: org.ID,
		Pagination:     pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("first page size = %d, want 2", len(page.Entries))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor on first page")
	}
	if !page.Entries[0].UpdateDate.After(page.Entries[1].UpdateDate) {
		t.Fatalf("entries not newest first")
	}

	second, err := svc.List(ctx, ListInput{
		OrganizationID: org.ID,
		Pagination:     pagination.Params{Limit: 2, Cursor: page.NextCursor},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Entries) != 2 {
		t.Fatalf("second page size = %d, want 2", len(second.Entries))
	}
	if !second.Entries[0].UpdateDate.Before(page.Entries[1].UpdateDate) {
		t.Fatalf("second page does not continue after the cursor")
	}

	period := 2023
	empty, err := svc.List(ctx, ListInput{
		OrganizationID:   org.ID,
		CompliancePeriod: &period,
		Pagination:       pagination.Params{Limit: 10},
	})
	if err != nil {
		t.Fatalf("list filtered page: %v", err)
	}
	if len(empty.Entries) != 0 {
		t.Fatalf("filtered page size = %d, want 0", len(empty.Entries))
	}
}
