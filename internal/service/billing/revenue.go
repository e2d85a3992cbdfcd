package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

// aggregateRevenue computes clinic gross revenue for the month: the sum
// of every active, approved authorization whose effective month matches.
// One clinic_revenue_entries row is upserted per contributing
// authorization so each figure stays traceable to its source. An empty
// month yields zero, not an error. The month's previous rows are cleared
// first so a revoked authorization's entry does not survive the recompute.
func (s *Service) aggregateRevenue(ctx context.Context, month model.ReferenceMonth) (decimal.Decimal, []*model.ClinicRevenueEntry, error) {
	auths, err := s.authRepo.ListApprovedForMonth(ctx, month)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to list approved authorizations: %w", err)
	}

	if err := s.ledgerRepo.DeleteRevenueEntries(ctx, month); err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to clear revenue entries: %w", err)
	}

	total := decimal.Zero
	entries := make([]*model.ClinicRevenueEntry, 0, len(auths))

	for _, auth := range auths {
		entry := &model.ClinicRevenueEntry{
			PatientID:       auth.PatientID,
			AuthorizationID: auth.ID,
			Value:           auth.Value,
			ReferenceMonth:  month,
		}
		if err := s.ledgerRepo.UpsertClinicRevenueEntry(ctx, entry); err != nil {
			return decimal.Zero, nil, fmt.Errorf("failed to record revenue entry: %w", err)
		}
		s.countRow("clinic_revenue")

		total = total.Add(auth.Value)
		entries = append(entries, entry)
	}

	return total, entries, nil
}
