package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/config"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	"github.com/saudemente/clinic-api/internal/service/event"
	"github.com/saudemente/clinic-api/pkg/metrics"
)

// Service is the monthly reconciliation engine. It derives billing and
// payout figures from authorizations, sessions and patient status, and
// maintains the ledger row families as a materialized view. All policy
// knobs come from the BillingConfig passed in at construction.
type Service struct {
	authRepo    repository.AuthorizationRepository
	teamRepo    repository.TeamRepository
	doctorRepo  repository.DoctorRepository
	patientRepo repository.PatientRepository
	sessionRepo repository.SessionRepository
	ledgerRepo  repository.LedgerRepository
	events      *event.Service
	cfg         config.BillingConfig
	metrics     *metrics.Metrics
}

func NewService(
	authRepo repository.AuthorizationRepository,
	teamRepo repository.TeamRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	sessionRepo repository.SessionRepository,
	ledgerRepo repository.LedgerRepository,
	events *event.Service,
	cfg config.BillingConfig,
	m *metrics.Metrics,
) *Service {
	if cfg.GuaranteedSessions <= 0 {
		cfg.GuaranteedSessions = config.DefaultBillingConfig().GuaranteedSessions
	}
	if cfg.DefaultSessionRate.IsZero() {
		cfg.DefaultSessionRate = config.DefaultBillingConfig().DefaultSessionRate
	}
	return &Service{
		authRepo:    authRepo,
		teamRepo:    teamRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		sessionRepo: sessionRepo,
		ledgerRepo:  ledgerRepo,
		events:      events,
		cfg:         cfg,
		metrics:     m,
	}
}

// Reconcile computes the consolidated monthly report. It runs the three
// calculators in sequence, upserts every derived row, and persists the
// per-month summary. Safe to call repeatedly for the same month: the
// result is a pure function of committed source data, and each calculator
// clears the month's previous rows before rewriting them.
func (s *Service) Reconcile(ctx context.Context, month model.ReferenceMonth) (*model.ReconciliationReport, error) {
	if month == "" {
		month = model.CurrentMonth()
	}
	if _, err := model.ParseReferenceMonth(month.String()); err != nil {
		return nil, fmt.Errorf("invalid reference month: %w", err)
	}

	start := time.Now()

	gross, revenueEntries, err := s.aggregateRevenue(ctx, month)
	if err != nil {
		s.observeRun("error", start)
		return nil, fmt.Errorf("failed to aggregate clinic revenue: %w", err)
	}

	teamPayouts, err := s.calculateTeamPayouts(ctx, month)
	if err != nil {
		s.observeRun("error", start)
		return nil, fmt.Errorf("failed to calculate team payouts: %w", err)
	}

	externalPayouts, err := s.calculateExternalPayouts(ctx, month)
	if err != nil {
		s.observeRun("error", start)
		return nil, fmt.Errorf("failed to calculate external payouts: %w", err)
	}

	totalTeam := decimal.Zero
	for _, p := range teamPayouts {
		totalTeam = totalTeam.Add(p.Amount)
	}

	totalExternal := decimal.Zero
	for _, p := range externalPayouts {
		totalExternal = totalExternal.Add(p.Total)
	}

	net := gross.Sub(totalTeam).Sub(totalExternal)

	summary := &model.ReconciliationSummary{
		ReferenceMonth:       month,
		GrossRevenue:         gross,
		TotalTeamPayouts:     totalTeam,
		TotalExternalPayouts: totalExternal,
		NetResult:            net,
	}
	if err := s.ledgerRepo.UpsertReconciliationSummary(ctx, summary); err != nil {
		s.observeRun("error", start)
		return nil, fmt.Errorf("failed to persist reconciliation summary: %w", err)
	}

	report := &model.ReconciliationReport{
		ReferenceMonth:       month,
		GrossRevenue:         gross,
		RevenueEntries:       revenueEntries,
		TeamPayouts:          teamPayouts,
		ExternalPayouts:      externalPayouts,
		TotalTeamPayouts:     totalTeam,
		TotalExternalPayouts: totalExternal,
		NetResult:            net,
		ComputedAt:           summary.ComputedAt,
	}

	if s.events != nil {
		if err := s.events.Record(ctx, model.EventReconciliationComplete, summary); err != nil {
			log.Warn().Err(err).Str("month", month.String()).Msg("failed to record reconciliation event")
		}
	}

	s.observeRun("success", start)

	log.Info().
		Str("month", month.String()).
		Str("gross_revenue", gross.String()).
		Str("net_result", net.String()).
		Int("team_payouts", len(teamPayouts)).
		Int("external_payouts", len(externalPayouts)).
		Msg("monthly reconciliation completed")

	return report, nil
}

// Summaries returns the per-month consolidated history, most recent first.
func (s *Service) Summaries(ctx context.Context, limit int) ([]*model.ReconciliationSummary, error) {
	if limit <= 0 {
		limit = 12
	}
	summaries, err := s.ledgerRepo.ListSummaries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}

// TeamPayoutHistory returns a team's payout rows, month descending.
func (s *Service) TeamPayoutHistory(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.TeamPayoutEntry, error) {
	if limit <= 0 {
		limit = 6
	}
	entries, err := s.ledgerRepo.ListTeamPayoutHistory(ctx, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get team payout history: %w", err)
	}
	return entries, nil
}

// ExternalPayoutHistory returns an external doctor's payout rows, month
// descending.
func (s *Service) ExternalPayoutHistory(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.ExternalPayoutEntry, error) {
	if limit <= 0 {
		limit = 6
	}
	entries, err := s.ledgerRepo.ListExternalPayoutHistory(ctx, doctorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get external payout history: %w", err)
	}
	return entries, nil
}

// MarkExternalPayoutsPaid marks all of a doctor's calculated payout rows
// for a month as paid.
func (s *Service) MarkExternalPayoutsPaid(ctx context.Context, doctorID uuid.UUID, month model.ReferenceMonth) (int64, error) {
	if _, err := model.ParseReferenceMonth(month.String()); err != nil {
		return 0, fmt.Errorf("invalid reference month: %w", err)
	}
	rows, err := s.ledgerRepo.MarkExternalPayoutsPaid(ctx, doctorID, month)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payouts paid: %w", err)
	}
	return rows, nil
}

func (s *Service) observeRun(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReconciliationRuns.WithLabelValues(status).Inc()
	s.metrics.ReconciliationDuration.Observe(time.Since(start).Seconds())
}

func (s *Service) countRow(family string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LedgerRowsUpserted.WithLabelValues(family).Inc()
}
