package enums

import "fmt"

// ReportStatus maps to the compliance_report_status enum in Postgres.
// Analyst_adjustment is the entry state of a government reassessment.
type ReportStatus string

const (
	ReportStatusDraft                ReportStatus = "Draft"
	ReportStatusSubmitted            ReportStatus = "Submitted"
	ReportStatusAnalystAdjustment    ReportStatus = "Analyst_adjustment"
	ReportStatusRecommendedByAnalyst ReportStatus = "Recommended_by_analyst"
	ReportStatusRecommendedByManager ReportStatus = "Recommended_by_manager"
	ReportStatusAssessed             ReportStatus = "Assessed"
	ReportStatusReassessed           ReportStatus = "Reassessed"
)

var validReportStatuses = []ReportStatus{
	ReportStatusDraft,
	ReportStatusSubmitted,
	ReportStatusAnalystAdjustment,
	ReportStatusRecommendedByAnalyst,
	ReportStatusRecommendedByManager,
	ReportStatusAssessed,
	ReportStatusReassessed,
}

// IsValid reports whether the value matches the canonical report status enum.
func (s ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminalAssessment reports whether the status ends an assessment cycle.
func (s ReportStatus) IsTerminalAssessment() bool {
	return s == ReportStatusAssessed || s == ReportStatusReassessed
}

// IsEditable reports whether line items may still be mutated.
func (s ReportStatus) IsEditable() bool {
	return s == ReportStatusDraft || s == ReportStatusAnalystAdjustment
}

// ParseReportStatus converts raw input into ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
