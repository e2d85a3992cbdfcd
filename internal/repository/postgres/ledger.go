package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
)

// Every upsert below is a single INSERT ... ON CONFLICT DO UPDATE keyed by
// (entity, reference_month). A recompute deletes the month's rows before
// rewriting them so rows whose source facts disappeared, a revoked
// authorization or a patient re-attributed to a closure month, do not
// survive the pass. A concurrent rerun for the same month is safe: both
// writers compute from the same committed source state and the last
// write wins.

func (r *ledgerRepository) UpsertClinicRevenueEntry(ctx context.Context, entry *model.ClinicRevenueEntry) error {
	query := `
		INSERT INTO clinic_revenue_entries (
			id, patient_id, authorization_id, value, reference_month, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (authorization_id, reference_month) DO UPDATE
		SET patient_id = EXCLUDED.patient_id,
			value = EXCLUDED.value,
			computed_at = EXCLUDED.computed_at
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.ComputedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.AuthorizationID,
		entry.Value,
		entry.ReferenceMonth,
		entry.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert clinic revenue entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) UpsertTeamPayoutEntry(ctx context.Context, entry *model.TeamPayoutEntry) error {
	query := `
		INSERT INTO team_payout_entries (
			id, team_id, reference_month, base_revenue, share_percent,
			amount, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id, reference_month) DO UPDATE
		SET base_revenue = EXCLUDED.base_revenue,
			share_percent = EXCLUDED.share_percent,
			amount = EXCLUDED.amount,
			computed_at = EXCLUDED.computed_at
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.ComputedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TeamID,
		entry.ReferenceMonth,
		entry.BaseRevenue,
		entry.SharePercent,
		entry.Amount,
		entry.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team payout entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) UpsertExternalPayoutEntry(ctx context.Context, entry *model.ExternalPayoutEntry) error {
	query := `
		INSERT INTO external_payout_entries (
			id, doctor_id, patient_id, reference_month, sessions_performed,
			sessions_paid, rate_per_session, total, guarantee_applied,
			status, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (doctor_id, patient_id, reference_month) DO UPDATE
		SET sessions_performed = EXCLUDED.sessions_performed,
			sessions_paid = EXCLUDED.sessions_paid,
			rate_per_session = EXCLUDED.rate_per_session,
			total = EXCLUDED.total,
			guarantee_applied = EXCLUDED.guarantee_applied,
			computed_at = EXCLUDED.computed_at
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.PayoutStatusCalculated
	}
	entry.ComputedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.DoctorID,
		entry.PatientID,
		entry.ReferenceMonth,
		entry.SessionsPerformed,
		entry.SessionsPaid,
		entry.RatePerSession,
		entry.Total,
		entry.GuaranteeApplied,
		entry.Status,
		entry.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert external payout entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) UpsertReconciliationSummary(ctx context.Context, summary *model.ReconciliationSummary) error {
	query := `
		INSERT INTO reconciliation_summaries (
			id, reference_month, gross_revenue, total_team_payouts,
			total_external_payouts, net_result, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference_month) DO UPDATE
		SET gross_revenue = EXCLUDED.gross_revenue,
			total_team_payouts = EXCLUDED.total_team_payouts,
			total_external_payouts = EXCLUDED.total_external_payouts,
			net_result = EXCLUDED.net_result,
			computed_at = EXCLUDED.computed_at
	`
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	summary.ComputedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		summary.ID,
		summary.ReferenceMonth,
		summary.GrossRevenue,
		summary.TotalTeamPayouts,
		summary.TotalExternalPayouts,
		summary.NetResult,
		summary.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reconciliation summary: %w", err)
	}
	return nil
}

func (r *ledgerRepository) DeleteRevenueEntries(ctx context.Context, month model.ReferenceMonth) error {
	query := `DELETE FROM clinic_revenue_entries WHERE reference_month = $1`
	if _, err := r.db.ExecContext(ctx, query, month); err != nil {
		return fmt.Errorf("failed to delete revenue entries: %w", err)
	}
	return nil
}

func (r *ledgerRepository) DeleteTeamPayoutEntries(ctx context.Context, month model.ReferenceMonth) error {
	query := `DELETE FROM team_payout_entries WHERE reference_month = $1`
	if _, err := r.db.ExecContext(ctx, query, month); err != nil {
		return fmt.Errorf("failed to delete team payout entries: %w", err)
	}
	return nil
}

// Paid rows are money already out the door; only unpaid rows are cleared.
func (r *ledgerRepository) DeleteCalculatedExternalPayouts(ctx context.Context, month model.ReferenceMonth) error {
	query := `DELETE FROM external_payout_entries WHERE reference_month = $1 AND status = $2`
	if _, err := r.db.ExecContext(ctx, query, month, model.PayoutStatusCalculated); err != nil {
		return fmt.Errorf("failed to delete calculated external payouts: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListRevenueEntries(ctx context.Context, month model.ReferenceMonth) ([]*model.ClinicRevenueEntry, error) {
	query := `
		SELECT id, patient_id, authorization_id, value, reference_month, computed_at
		FROM clinic_revenue_entries
		WHERE reference_month = $1
		ORDER BY computed_at ASC
	`
	var entries []*model.ClinicRevenueEntry
	err := r.db.SelectContext(ctx, &entries, query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list revenue entries: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListTeamPayoutHistory(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.TeamPayoutEntry, error) {
	query := `
		SELECT id, team_id, reference_month, base_revenue, share_percent,
			   amount, computed_at
		FROM team_payout_entries
		WHERE team_id = $1
		ORDER BY reference_month DESC
		LIMIT $2
	`
	var entries []*model.TeamPayoutEntry
	err := r.db.SelectContext(ctx, &entries, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list team payout history: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListExternalPayoutHistory(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.ExternalPayoutEntry, error) {
	query := `
		SELECT id, doctor_id, patient_id, reference_month, sessions_performed,
			   sessions_paid, rate_per_session, total, guarantee_applied,
			   status, paid_at, computed_at
		FROM external_payout_entries
		WHERE doctor_id = $1
		ORDER BY reference_month DESC, patient_id ASC
		LIMIT $2
	`
	var entries []*model.ExternalPayoutEntry
	err := r.db.SelectContext(ctx, &entries, query, doctorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list external payout history: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) ListSummaries(ctx context.Context, limit int) ([]*model.ReconciliationSummary, error) {
	query := `
		SELECT id, reference_month, gross_revenue, total_team_payouts,
			   total_external_payouts, net_result, computed_at
		FROM reconciliation_summaries
		ORDER BY reference_month DESC
		LIMIT $1
	`
	var summaries []*model.ReconciliationSummary
	err := r.db.SelectContext(ctx, &summaries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation summaries: %w", err)
	}
	return summaries, nil
}

func (r *ledgerRepository) MarkExternalPayoutsPaid(ctx context.Context, doctorID uuid.UUID, month model.ReferenceMonth) (int64, error) {
	query := `
		UPDATE external_payout_entries
		SET status = $1, paid_at = $2
		WHERE doctor_id = $3 AND reference_month = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		model.PayoutStatusPaid,
		time.Now(),
		doctorID,
		month,
		model.PayoutStatusCalculated,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payouts paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
