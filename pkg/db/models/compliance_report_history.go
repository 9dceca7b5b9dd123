package models

import "github.com/pacificfuels/lcfs-backend/pkg/enums"

// ComplianceReportHistory records every status transition on a report.
type ComplianceReportHistory struct {
	ID          int64              `gorm:"column:history_id;primaryKey;autoIncrement"`
	ReportID    int64              `gorm:"column:compliance_report_id;not null;index"`
	FromStatus  enums.ReportStatus `gorm:"column:from_status;type:compliance_report_status;not null"`
	ToStatus    enums.ReportStatus `gorm:"column:to_status;type:compliance_report_status;not null"`
	UserID      string             `gorm:"column:user_id;not null"`
	DisplayName string             `gorm:"column:display_name"`

	AuditStamps
}

func (ComplianceReportHistory) TableName() string { return "compliance_report_history" }
