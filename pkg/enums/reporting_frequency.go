package enums

// ReportingFrequency is Annual for most suppliers; Quarterly only for
// organizations approved for early issuance in the compliance year.
type ReportingFrequency string

const (
	FrequencyAnnual    ReportingFrequency = "Annual"
	FrequencyQuarterly ReportingFrequency = "Quarterly"
)

// IsValid reports whether the value matches the canonical frequency enum.
func (f ReportingFrequency) IsValid() bool {
	return f == FrequencyAnnual || f == FrequencyQuarterly
}
