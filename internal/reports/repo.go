package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
)

// Repository persists compliance reports, their summaries, histories, and the
// versioned line-item tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateReport(ctx context.Context, report *models.ComplianceReport) error
	UpdateReport(ctx context.Context, report *models.ComplianceReport) error
	DeleteReport(ctx context.Context, reportID int64) error
	FindReportByID(ctx context.Context, id int64) (*models.ComplianceReport, error)
	// ListGroup returns every version in the group, ascending.
	ListGroup(ctx context.Context, groupUUID uuid.UUID) ([]models.ComplianceReport, error)
	FindOriginalByOrgPeriod(ctx context.Context, orgID int64, period int) (*models.ComplianceReport, error)
	// GroupTransactionIDs returns the ledger transactions linked by any
	// version in the group.
	GroupTransactionIDs(ctx context.Context, groupUUID uuid.UUID) ([]int64, error)

	UpsertSummary(ctx context.Context, summary *models.ComplianceReportSummary) error
	FindSummaryByReportID(ctx context.Context, reportID int64) (*models.ComplianceReportSummary, error)
	DeleteSummaryByReportID(ctx context.Context, reportID int64) error

	CreateHistory(ctx context.Context, row *models.ComplianceReportHistory) error
	ListHistory(ctx context.Context, reportID int64) ([]models.ComplianceReportHistory, error)

	ListFuelSupplies(ctx context.Context, reportIDs []int64) ([]models.FuelSupply, error)
	ListFuelExports(ctx context.Context, reportIDs []int64) ([]models.FuelExport, error)
	ListOtherUses(ctx context.Context, reportIDs []int64) ([]models.OtherUses, error)
	ListNotionalTransfers(ctx context.Context, reportIDs []int64) ([]models.NotionalTransfer, error)
	ListAllocationAgreements(ctx context.Context, reportIDs []int64) ([]models.AllocationAgreement, error)

	CreateLine(ctx context.Context, line any) error
	DeleteLine(ctx context.Context, line any) error
	DeleteLinesByReportID(ctx context.Context, reportID int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to report operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReport(ctx context.Context, report *models.ComplianceReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) UpdateReport(ctx context.Context, report *models.ComplianceReport) error {
	if report == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *repository) DeleteReport(ctx context.Context, reportID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.ComplianceReport{}, "compliance_report_id = ?", reportID).Error
}

func (r *repository) FindReportByID(ctx context.Context, id int64) (*models.ComplianceReport, error) {
	var report models.ComplianceReport
	if err := r.db.WithContext(ctx).First(&report, "compliance_report_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) ListGroup(ctx context.Context, groupUUID uuid.UUID) ([]models.ComplianceReport, error) {
	var reports []models.ComplianceReport
	if err := r.db.WithContext(ctx).
		Where("compliance_report_group_uuid = ?", groupUUID).
		Order("version ASC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repository) FindOriginalByOrgPeriod(ctx context.Context, orgID int64, period int) (*models.ComplianceReport, error) {
	var report models.ComplianceReport
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND compliance_period = ? AND version = 0", orgID, period).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) GroupTransactionIDs(ctx context.Context, groupUUID uuid.UUID) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.ComplianceReport{}).
		Where("compliance_report_group_uuid = ? AND transaction_id IS NOT NULL", groupUUID).
		Pluck("transaction_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) UpsertSummary(ctx context.Context, summary *models.ComplianceReportSummary) error {
	if summary == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "compliance_report_id"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

func (r *repository) FindSummaryByReportID(ctx context.Context, reportID int64) (*models.ComplianceReportSummary, error) {
	var summary models.ComplianceReportSummary
	if err := r.db.WithContext(ctx).First(&summary, "compliance_report_id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *repository) DeleteSummaryByReportID(ctx context.Context, reportID int64) error {
	return r.db.WithContext(ctx).
		Delete(&models.ComplianceReportSummary{}, "compliance_report_id = ?", reportID).Error
}

func (r *repository) CreateHistory(ctx context.Context, row *models.ComplianceReportHistory) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListHistory(ctx context.Context, reportID int64) ([]models.ComplianceReportHistory, error) {
	var rows []models.ComplianceReportHistory
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id = ?", reportID).
		Order("history_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListFuelSupplies(ctx context.Context, reportIDs []int64) ([]models.FuelSupply, error) {
	var rows []models.FuelSupply
	if len(reportIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", reportIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListFuelExports(ctx context.Context, reportIDs []int64) ([]models.FuelExport, error) {
	var rows []models.FuelExport
	if len(reportIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", reportIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListOtherUses(ctx context.Context, reportIDs []int64) ([]models.OtherUses, error) {
	var rows []models.OtherUses
	if len(reportIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", reportIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListNotionalTransfers(ctx context.Context, reportIDs []int64) ([]models.NotionalTransfer, error) {
	var rows []models.NotionalTransfer
	if len(reportIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", reportIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAllocationAgreements(ctx context.Context, reportIDs []int64) ([]models.AllocationAgreement, error) {
	var rows []models.AllocationAgreement
	if len(reportIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("compliance_report_id IN ?", reportIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateLine(ctx context.Context, line any) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) DeleteLine(ctx context.Context, line any) error {
	return r.db.WithContext(ctx).Delete(line).Error
}

func (r *repository) DeleteLinesByReportID(ctx context.Context, reportID int64) error {
	for _, model := range []any{
		&models.FuelSupply{},
		&models.FuelExport{},
		&models.OtherUses{},
		&models.NotionalTransfer{},
		&models.AllocationAgreement{},
	} {
		if err := r.db.WithContext(ctx).
			Delete(model, "compliance_report_id = ?", reportID).Error; err != nil {
			return err
		}
	}
	return nil
}

// effectiveRows folds versioned rows down to the set visible at maxVersion:
// the highest-version row per group at or below maxVersion, dropping groups
// whose winning row is a DELETE marker.
func effectiveRows[T interface{ Versioning() models.LineVersion }](rows []T, maxVersion int) []T {
	winners := make(map[uuid.UUID]T)
	for _, row := range rows {
		v := row.Versioning()
		if v.Version > maxVersion {
			continue
		}
		current, ok := winners[v.GroupUUID]
		if !ok || current.Versioning().Version < v.Version {
			winners[v.GroupUUID] = row
		}
	}

	out := make([]T, 0, len(winners))
	for _, row := range winners {
		if row.Versioning().ActionType == enums.ActionTypeDelete {
			continue
		}
		out = append(out, row)
	}
	return out
}
