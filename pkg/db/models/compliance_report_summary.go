package models

// ComplianceReportSummary is the 22-line gazetted form, one row per report
// version. Lines 1-11 are renewable-requirement carry-through populated by the
// reporting surface; the accounting engine computes 12-22. Integral lines are
// stored as bigint; truncation happens only at these columns.
type ComplianceReportSummary struct {
	ID       int64 `gorm:"column:summary_id;primaryKey;autoIncrement"`
	ReportID int64 `gorm:"column:compliance_report_id;not null;uniqueIndex"`

	// Ledger aggregates over the compliance year.
	Line12TransferredOut int64 `gorm:"column:line_12_transferred_out;not null;default:0"`
	Line13Received       int64 `gorm:"column:line_13_received;not null;default:0"`
	Line14Issued         int64 `gorm:"column:line_14_issued;not null;default:0"`

	// Previously assessed current-period units (zero on version 0).
	Line15PrevSupply int64 `gorm:"column:line_15_prev_supply;not null;default:0"`
	Line16PrevExport int64 `gorm:"column:line_16_prev_export;not null;default:0"`

	// Opening available balance for the period, excluding this group's own
	// assessment adjustments.
	Line17OpeningBalance int64 `gorm:"column:line_17_opening_balance;not null;default:0"`

	// Current-period units.
	Line18SupplyUnits int64 `gorm:"column:line_18_supply_units;not null;default:0"`
	Line19ExportUnits int64 `gorm:"column:line_19_export_units;not null;default:0"`

	// Net change from the prior assessment: 18 + 19 - 15 - 16.
	Line20NetDelta int64 `gorm:"column:line_20_net_delta;not null;default:0"`

	// Penalty payable in dollars and the closing balance floored at zero.
	Line21PenaltyDollars int64 `gorm:"column:line_21_penalty_dollars;not null;default:0"`
	Line22ClosingBalance int64 `gorm:"column:line_22_closing_balance;not null;default:0"`

	// Signed unit shortfall behind line 21 (min(final balance, 0)).
	PenaltyUnits int64 `gorm:"column:penalty_units;not null;default:0"`

	// Set when the predecessor chain was unreachable and lines 15-16 were
	// zeroed rather than invented.
	OpenQuestion bool `gorm:"column:open_question;not null;default:false"`
	IsLocked     bool `gorm:"column:is_locked;not null;default:false"`

	AuditStamps
}

func (ComplianceReportSummary) TableName() string { return "compliance_report_summary" }
