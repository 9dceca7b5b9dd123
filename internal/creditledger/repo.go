package creditledger

import (
	"context"

	"gorm.io/gorm"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	"github.com/pacificfuels/lcfs-backend/pkg/pagination"
)

// Repository reads the source-of-truth tables feeding the credit ledger view
// and owns the rebuilt entry rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	RecordedTransfers(ctx context.Context, orgID int64) ([]models.Transfer, error)
	ApprovedAgreements(ctx context.Context, orgID int64) ([]models.InitiativeAgreement, error)
	ApprovedAdminAdjustments(ctx context.Context, orgID int64) ([]models.AdminAdjustment, error)
	// SettledReports returns the organization's Assessed and Reassessed
	// report versions with their summaries keyed by report id.
	SettledReports(ctx context.Context, orgID int64) ([]models.ComplianceReport, map[int64]models.ComplianceReportSummary, error)
	// AdjustmentsExcluding returns effective Adjustment rows not already
	// claimed by a transfer, agreement, or report.
	AdjustmentsExcluding(ctx context.Context, orgID int64, claimedIDs []int64) ([]models.Transaction, error)

	// ReplaceEntries swaps the organization's view rows for the given set.
	ReplaceEntries(ctx context.Context, orgID int64, entries []models.CreditLedgerEntry) error
	ListEntries(ctx context.Context, orgID int64, period *int, cursor *pagination.Cursor, limit int) ([]models.CreditLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to credit ledger operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) RecordedTransfers(ctx context.Context, orgID int64) ([]models.Transfer, error) {
	var rows []models.Transfer
	if err := r.db.WithContext(ctx).
		Where("(from_organization_id = ? OR to_organization_id = ?) AND current_status = ?",
			orgID, orgID, enums.TransferStatusRecorded).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ApprovedAgreements(ctx context.Context, orgID int64) ([]models.InitiativeAgreement, error) {
	var rows []models.InitiativeAgreement
	if err := r.db.WithContext(ctx).
		Where("to_organization_id = ? AND current_status = ?", orgID, enums.AgreementStatusApproved).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ApprovedAdminAdjustments(ctx context.Context, orgID int64) ([]models.AdminAdjustment, error) {
	var rows []models.AdminAdjustment
	if err := r.db.WithContext(ctx).
		Where("to_organization_id = ? AND current_status = ?", orgID, enums.AgreementStatusApproved).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SettledReports(ctx context.Context, orgID int64) ([]models.ComplianceReport, map[int64]models.ComplianceReportSummary, error) {
	var reports []models.ComplianceReport
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND current_status IN ?",
			orgID, []enums.ReportStatus{enums.ReportStatusAssessed, enums.ReportStatusReassessed}).
		Find(&reports).Error; err != nil {
		return nil, nil, err
	}
	if len(reports) == 0 {
		return reports, map[int64]models.ComplianceReportSummary{}, nil
	}

	ids := make([]int64, 0, len(reports))
	for _, report := range reports {
		ids = append(ids, report.ID)
	}
	var summaries []models.ComplianceReportSummary
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", ids).
		Find(&summaries).Error; err != nil {
		return nil, nil, err
	}
	byReport := make(map[int64]models.ComplianceReportSummary, len(summaries))
	for _, summary := range summaries {
		byReport[summary.ReportID] = summary
	}
	return reports, byReport, nil
}

func (r *repository) AdjustmentsExcluding(ctx context.Context, orgID int64, claimedIDs []int64) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ? AND transaction_action = ? AND effective_status",
			orgID, enums.TransactionActionAdjustment)
	if len(claimedIDs) > 0 {
		query = query.Where("transaction_id NOT IN ?", claimedIDs)
	}
	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ReplaceEntries(ctx context.Context, orgID int64, entries []models.CreditLedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.CreditLedgerEntry{}, "organization_id = ?", orgID).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *repository) ListEntries(ctx context.Context, orgID int64, period *int, cursor *pagination.Cursor, limit int) ([]models.CreditLedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("update_date DESC, credit_ledger_entry_id DESC").
		Limit(limit)
	if period != nil {
		query = query.Where("compliance_period = ?", *period)
	}
	if cursor != nil {
		query = query.Where(
			"update_date < ? OR (update_date = ? AND credit_ledger_entry_id < ?)",
			cursor.UpdateDate, cursor.UpdateDate, cursor.ID)
	}
	var rows []models.CreditLedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
