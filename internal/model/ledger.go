package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Derived ledger rows are a materialized view of the reconciliation
// engine's output, keyed by (entity, reference month). A recompute fully
// replaces the row for its key; rows are never an append-only history.

// ClinicRevenueEntry records one approved authorization's contribution
// to clinic gross revenue for a month. One row per authorization keeps
// per-authorization traceability.
type ClinicRevenueEntry struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	AuthorizationID uuid.UUID       `db:"authorization_id" json:"authorization_id"`
	Value           decimal.Decimal `db:"value" json:"value"`
	ReferenceMonth  ReferenceMonth  `db:"reference_month" json:"reference_month"`
	ComputedAt      time.Time       `db:"computed_at" json:"computed_at"`
}

// TeamPayoutEntry records a team's share of the revenue its doctors'
// patients generated in a month. Only positive contributions are stored.
type TeamPayoutEntry struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	TeamID         uuid.UUID       `db:"team_id" json:"team_id"`
	ReferenceMonth ReferenceMonth  `db:"reference_month" json:"reference_month"`
	BaseRevenue    decimal.Decimal `db:"base_revenue" json:"base_revenue"`
	SharePercent   decimal.Decimal `db:"share_percent" json:"share_percent"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	ComputedAt     time.Time       `db:"computed_at" json:"computed_at"`
}

type PayoutStatus string

const (
	PayoutStatusCalculated PayoutStatus = "calculated"
	PayoutStatusPaid       PayoutStatus = "paid"
)

// ExternalPayoutEntry records what an independently contracted doctor is
// owed for one patient in one month: either the metered session count or
// the flat package guarantee, never both.
type ExternalPayoutEntry struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	DoctorID          uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	PatientID         uuid.UUID       `db:"patient_id" json:"patient_id"`
	ReferenceMonth    ReferenceMonth  `db:"reference_month" json:"reference_month"`
	SessionsPerformed int             `db:"sessions_performed" json:"sessions_performed"`
	SessionsPaid      int             `db:"sessions_paid" json:"sessions_paid"`
	RatePerSession    decimal.Decimal `db:"rate_per_session" json:"rate_per_session"`
	Total             decimal.Decimal `db:"total" json:"total"`
	GuaranteeApplied  bool            `db:"guarantee_applied" json:"guarantee_applied"`
	Status            PayoutStatus    `db:"status" json:"status"`
	PaidAt            *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	ComputedAt        time.Time       `db:"computed_at" json:"computed_at"`
}

// ReconciliationSummary is the per-month consolidated row, one per
// reference month, read back for trend display.
type ReconciliationSummary struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	ReferenceMonth       ReferenceMonth  `db:"reference_month" json:"reference_month"`
	GrossRevenue         decimal.Decimal `db:"gross_revenue" json:"gross_revenue"`
	TotalTeamPayouts     decimal.Decimal `db:"total_team_payouts" json:"total_team_payouts"`
	TotalExternalPayouts decimal.Decimal `db:"total_external_payouts" json:"total_external_payouts"`
	NetResult            decimal.Decimal `db:"net_result" json:"net_result"`
	ComputedAt           time.Time       `db:"computed_at" json:"computed_at"`
}

// ReconciliationReport is the consolidated output of one reconciliation
// run, returned to reporting consumers.
type ReconciliationReport struct {
	ReferenceMonth       ReferenceMonth         `json:"reference_month"`
	GrossRevenue         decimal.Decimal        `json:"gross_revenue"`
	RevenueEntries       []*ClinicRevenueEntry  `json:"revenue_entries"`
	TeamPayouts          []*TeamPayoutEntry     `json:"team_payouts"`
	ExternalPayouts      []*ExternalPayoutEntry `json:"external_payouts"`
	TotalTeamPayouts     decimal.Decimal        `json:"total_team_payouts"`
	TotalExternalPayouts decimal.Decimal        `json:"total_external_payouts"`
	NetResult            decimal.Decimal        `json:"net_result"`
	ComputedAt           time.Time              `json:"computed_at"`
}
