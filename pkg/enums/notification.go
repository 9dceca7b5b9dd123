package enums

// NotificationTemplate identifies the message template a notification intent
// renders with. Delivery is owned by the external sink.
type NotificationTemplate string

const (
	TemplateReportSubmitted    NotificationTemplate = "compliance_report_submitted"
	TemplateReportRecommended  NotificationTemplate = "compliance_report_recommended"
	TemplateReportReturned     NotificationTemplate = "compliance_report_returned"
	TemplateReportAssessed     NotificationTemplate = "compliance_report_assessed"
	TemplateTransferSent       NotificationTemplate = "transfer_sent"
	TemplateTransferSubmitted  NotificationTemplate = "transfer_submitted"
	TemplateTransferRecorded   NotificationTemplate = "transfer_recorded"
	TemplateTransferDeclined   NotificationTemplate = "transfer_declined"
	TemplateAgreementApproved  NotificationTemplate = "initiative_agreement_approved"
	TemplateAdjustmentApproved NotificationTemplate = "admin_adjustment_approved"
)

// IsValid reports whether the template is known.
func (t NotificationTemplate) IsValid() bool {
	switch t {
	case TemplateReportSubmitted, TemplateReportRecommended, TemplateReportReturned,
		TemplateReportAssessed, TemplateTransferSent, TemplateTransferSubmitted,
		TemplateTransferRecorded, TemplateTransferDeclined, TemplateAgreementApproved,
		TemplateAdjustmentApproved:
		return true
	}
	return false
}
