package creditledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pacificfuels/lcfs-backend/pkg/db/models"
	"github.com/pacificfuels/lcfs-backend/pkg/enums"
	"github.com/pacificfuels/lcfs-backend/pkg/pagination"
)

// Service maintains the per-organization credit ledger read model: the union
// of recorded transfers, approved issuances, settled report assessments, and
// standalone legacy transactions, with a running available balance. Balance
// histories are rendered from this view, never from the raw ledger.
type Service interface {
	// Rebuild recomputes the organization's view rows from the source
	// tables. It is idempotent; rebuilding twice lands on the same rows.
	Rebuild(ctx context.Context, orgID int64) (int, error)
	List(ctx context.Context, input ListInput) (*Page, error)
}

// ListInput selects one organization's ledger page, optionally filtered to a
// compliance period.
type ListInput struct {
	OrganizationID   int64
	CompliancePeriod *int
	Pagination       pagination.Params
}

// Page is one cursor page of ledger entries, newest first.
type Page struct {
	Entries    []models.CreditLedgerEntry
	NextCursor string
}

type service struct {
	repo Repository
}

// NewService wires the credit ledger view.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credit ledger repository required")
	}
	return &service{repo: repo}, nil
}

type entryKey struct {
	transactionID int64
	source        enums.LedgerSource
}

func (s *service) Rebuild(ctx context.Context, orgID int64) (int, error) {
	var events []models.CreditLedgerEntry
	var claimed []int64

	transfers, err := s.repo.RecordedTransfers(ctx, orgID)
	if err != nil {
		return 0, err
	}
	for _, transfer := range transfers {
		if transfer.FromTransactionID != nil {
			claimed = append(claimed, *transfer.FromTransactionID)
			if transfer.FromOrganizationID == orgID {
				events = append(events, models.CreditLedgerEntry{
					TransactionID:    *transfer.FromTransactionID,
					Source:           enums.LedgerSourceTransfer,
					ComplianceUnits:  -transfer.Quantity,
					CompliancePeriod: yearOf(transfer.AgreementDate, transfer.UpdateDate),
					UpdateDate:       transfer.UpdateDate,
				})
			}
		}
		if transfer.ToTransactionID != nil {
			claimed = append(claimed, *transfer.ToTransactionID)
			if transfer.ToOrganizationID == orgID {
				events = append(events, models.CreditLedgerEntry{
					TransactionID:    *transfer.ToTransactionID,
					Source:           enums.LedgerSourceTransfer,
					ComplianceUnits:  transfer.Quantity,
					CompliancePeriod: yearOf(transfer.AgreementDate, transfer.UpdateDate),
					UpdateDate:       transfer.UpdateDate,
				})
			}
		}
	}

	agreements, err := s.repo.ApprovedAgreements(ctx, orgID)
	if err != nil {
		return 0, err
	}
	for _, agreement := range agreements {
		if agreement.TransactionID == nil {
			continue
		}
		claimed = append(claimed, *agreement.TransactionID)
		events = append(events, models.CreditLedgerEntry{
			TransactionID:    *agreement.TransactionID,
			Source:           enums.LedgerSourceInitiativeAgreement,
			ComplianceUnits:  agreement.ComplianceUnits,
			CompliancePeriod: yearOf(agreement.EffectiveDate, agreement.UpdateDate),
			UpdateDate:       agreement.UpdateDate,
		})
	}

	adjustments, err := s.repo.ApprovedAdminAdjustments(ctx, orgID)
	if err != nil {
		return 0, err
	}
	for _, adjustment := range adjustments {
		if adjustment.TransactionID == nil {
			continue
		}
		claimed = append(claimed, *adjustment.TransactionID)
		events = append(events, models.CreditLedgerEntry{
			TransactionID:    *adjustment.TransactionID,
			Source:           enums.LedgerSourceAdminAdjustment,
			ComplianceUnits:  adjustment.ComplianceUnits,
			CompliancePeriod: yearOf(adjustment.EffectiveDate, adjustment.UpdateDate),
			UpdateDate:       adjustment.UpdateDate,
		})
	}

	reports, summaries, err := s.repo.SettledReports(ctx, orgID)
	if err != nil {
		return 0, err
	}
	// Every settled version claims its transaction, but only the latest
	// version per group is shown; superseded assessments must not resurface
	// as standalone rows.
	for _, report := range reports {
		if report.TransactionID != nil {
			claimed = append(claimed, *report.TransactionID)
		}
	}
	for _, report := range latestPerGroup(reports) {
		if report.TransactionID == nil {
			continue
		}
		summary := summaries[report.ID]
		events = append(events, models.CreditLedgerEntry{
			TransactionID:    *report.TransactionID,
			Source:           enums.LedgerSourceComplianceReport,
			ComplianceUnits:  summary.Line20NetDelta,
			CompliancePeriod: report.CompliancePeriod,
			UpdateDate:       report.UpdateDate,
		})
	}

	standalone, err := s.repo.AdjustmentsExcluding(ctx, orgID, claimed)
	if err != nil {
		return 0, err
	}
	for _, txn := range standalone {
		events = append(events, models.CreditLedgerEntry{
			TransactionID:    txn.ID,
			Source:           enums.LedgerSourceStandaloneTransaction,
			ComplianceUnits:  txn.ComplianceUnits,
			CompliancePeriod: txn.EffectiveDate.Year(),
			UpdateDate:       txn.UpdateDate,
			IsLegacy:         true,
		})
	}

	seen := make(map[entryKey]bool, len(events))
	deduped := events[:0]
	for _, event := range events {
		key := entryKey{transactionID: event.TransactionID, source: event.Source}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, event)
	}

	sort.Slice(deduped, func(i, j int) bool {
		if !deduped[i].UpdateDate.Equal(deduped[j].UpdateDate) {
			return deduped[i].UpdateDate.Before(deduped[j].UpdateDate)
		}
		return deduped[i].TransactionID < deduped[j].TransactionID
	})
	var running int64
	for i := range deduped {
		running += deduped[i].ComplianceUnits
		deduped[i].OrganizationID = orgID
		deduped[i].AvailableBalance = running
	}

	if err := s.repo.ReplaceEntries(ctx, orgID, deduped); err != nil {
		return 0, err
	}
	return len(deduped), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*Page, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListEntries(ctx, input.OrganizationID, input.CompliancePeriod, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: rows}
	if len(rows) > limit {
		page.Entries = rows[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			UpdateDate: last.UpdateDate,
			ID:         last.ID,
		})
	}
	return page, nil
}

// latestPerGroup keeps only the highest settled version of each report group.
func latestPerGroup(reports []models.ComplianceReport) []models.ComplianceReport {
	latest := make(map[string]models.ComplianceReport, len(reports))
	for _, report := range reports {
		key := report.GroupUUID.String()
		if current, ok := latest[key]; !ok || report.Version > current.Version {
			latest[key] = report
		}
	}
	out := make([]models.ComplianceReport, 0, len(latest))
	for _, report := range latest {
		out = append(out, report)
	}
	return out
}

func yearOf(date *time.Time, fallback time.Time) int {
	if date != nil {
		return date.Year()
	}
	return fallback.Year()
}
