package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// calculateTeamPayouts computes each active team's percentage share of
// the revenue generated by its doctors' patients in the month. Team
// payouts are never session-counted; they depend only on qualifying
// authorization value. Teams with zero qualifying revenue are skipped,
// no zero-value row is written.
func (s *Service) calculateTeamPayouts(ctx context.Context, month model.ReferenceMonth) ([]*model.TeamPayoutEntry, error) {
	teams, err := s.teamRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active teams: %w", err)
	}

	// Clear first so a team whose revenue dropped to zero loses its row.
	if err := s.ledgerRepo.DeleteTeamPayoutEntries(ctx, month); err != nil {
		return nil, fmt.Errorf("failed to clear team payout entries: %w", err)
	}

	payouts := make([]*model.TeamPayoutEntry, 0, len(teams))

	for _, team := range teams {
		base, err := s.authRepo.SumApprovedForTeamMonth(ctx, team.ID, month)
		if err != nil {
			return nil, fmt.Errorf("failed to sum revenue for team %s: %w", team.ID, err)
		}

		if !base.IsPositive() {
			continue
		}

		share := team.RevenueSharePercent
		if share.IsZero() {
			share = s.cfg.DefaultTeamSharePercent
		}

		entry := &model.TeamPayoutEntry{
			TeamID:         team.ID,
			ReferenceMonth: month,
			BaseRevenue:    base,
			SharePercent:   share,
			Amount:         base.Mul(share).Div(oneHundred).Round(2),
		}
		if err := s.ledgerRepo.UpsertTeamPayoutEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record team payout: %w", err)
		}
		s.countRow("team_payout")

		payouts = append(payouts, entry)
	}

	return payouts, nil
}
