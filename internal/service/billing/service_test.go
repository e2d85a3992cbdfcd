package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saudemente/clinic-api/internal/config"
	"github.com/saudemente/clinic-api/internal/model"
)

const testMonth = model.ReferenceMonth("2026-07")

var testMonthMid = time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	auths    *fakeAuthorizationRepo
	teams    *fakeTeamRepo
	doctors  *fakeDoctorRepo
	patients *fakePatientRepo
	sessions *fakeSessionRepo
	ledger   *fakeLedgerRepo
	svc      *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auths: &fakeAuthorizationRepo{
			patientDoctor: map[uuid.UUID]uuid.UUID{},
			doctorTeam:    map[uuid.UUID]uuid.UUID{},
		},
		teams:    &fakeTeamRepo{},
		doctors:  &fakeDoctorRepo{},
		patients: &fakePatientRepo{},
		sessions: &fakeSessionRepo{},
		ledger:   newFakeLedgerRepo(),
	}
	h.svc = NewService(h.auths, h.teams, h.doctors, h.patients, h.sessions, h.ledger, nil, config.DefaultBillingConfig(), nil)
	return h
}

func (h *harness) addTeam(sharePercent string) *model.Team {
	team := &model.Team{
		Base:                model.Base{ID: uuid.New()},
		Name:                "Neuro",
		RevenueSharePercent: decimal.RequireFromString(sharePercent),
		Active:              true,
	}
	h.teams.teams = append(h.teams.teams, team)
	return team
}

func (h *harness) addDoctor(teamID *uuid.UUID, rate string) *model.Doctor {
	doctor := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		Name:           "Dr. Silva",
		TeamID:         teamID,
		RatePerSession: decimal.RequireFromString(rate),
		Active:         true,
	}
	h.doctors.doctors = append(h.doctors.doctors, doctor)
	if teamID != nil {
		h.auths.doctorTeam[doctor.ID] = *teamID
	}
	return doctor
}

func (h *harness) addPatient(doctorID uuid.UUID) *model.Patient {
	patient := &model.Patient{
		Base:     model.Base{ID: uuid.New(), UpdatedAt: testMonthMid},
		Name:     "Patient",
		DoctorID: doctorID,
		Status:   model.PatientStatusActive,
	}
	h.patients.patients = append(h.patients.patients, patient)
	h.auths.patientDoctor[patient.ID] = doctorID
	return patient
}

func (h *harness) finalize(patient *model.Patient, at time.Time) {
	patient.Status = model.PatientStatusFinalized
	patient.FinalizedAt = &at
	patient.UpdatedAt = at
}

func (h *harness) addApprovedAuth(patientID uuid.UUID, value string, approvedAt time.Time) *model.Authorization {
	auth := &model.Authorization{
		Base:       model.Base{ID: uuid.New(), CreatedAt: approvedAt},
		PatientID:  patientID,
		Kind:       model.AuthorizationKindSessionBundle,
		Code:       "50000470",
		Value:      decimal.RequireFromString(value),
		Active:     true,
		Approved:   true,
		ApprovedAt: &approvedAt,
	}
	h.auths.auths = append(h.auths.auths, auth)
	return auth
}

func (h *harness) addCompletedSessions(patientID uuid.UUID, count int, month time.Time) {
	for i := 0; i < count; i++ {
		done := month.AddDate(0, 0, i)
		h.sessions.sessions = append(h.sessions.sessions, &model.Session{
			Base:           model.Base{ID: uuid.New()},
			PatientID:      patientID,
			SequenceNumber: i + 1,
			Date:           done,
			Completed:      true,
			CompletedAt:    &done,
		})
	}
}

func TestReconcileRevenueAggregation(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)

	h.addApprovedAuth(patient.ID, "414.30", testMonthMid)
	h.addApprovedAuth(patient.ID, "1035.75", testMonthMid)

	// Pending and rejected authorizations must not count.
	pending := h.addApprovedAuth(patient.ID, "999.99", testMonthMid)
	pending.Approved = false
	pending.ApprovedAt = nil
	rejected := h.addApprovedAuth(patient.ID, "888.88", testMonthMid)
	rejected.Active = false

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	assert.True(t, report.GrossRevenue.Equal(decimal.RequireFromString("1450.05")),
		"gross = %s", report.GrossRevenue)
	assert.Len(t, report.RevenueEntries, 2)
	assert.Len(t, h.ledger.revenue, 2)
	for _, e := range report.RevenueEntries {
		assert.Equal(t, testMonth, e.ReferenceMonth)
		assert.Equal(t, patient.ID, e.PatientID)
	}
}

func TestReconcileRevenueCountsApprovalMonth(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)

	// Approved in June; must not appear in July's report.
	h.addApprovedAuth(patient.ID, "500.00", time.Date(2026, 6, 20, 9, 0, 0, 0, time.UTC))

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	assert.True(t, report.GrossRevenue.IsZero())
	assert.Empty(t, report.RevenueEntries)
}

func TestReconcileTeamPayoutShare(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	idle := h.addTeam("40")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)

	h.addApprovedAuth(patient.ID, "1000.00", testMonthMid)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	require.Len(t, report.TeamPayouts, 1, "zero-revenue team must not produce a row")
	payout := report.TeamPayouts[0]
	assert.Equal(t, team.ID, payout.TeamID)
	assert.True(t, payout.BaseRevenue.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, payout.Amount.Equal(decimal.RequireFromString("500.00")), "amount = %s", payout.Amount)

	for _, e := range h.ledger.teams {
		assert.NotEqual(t, idle.ID, e.TeamID)
	}
}

func TestReconcileTeamShareDefaultFallback(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("0")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)

	h.addApprovedAuth(patient.ID, "200.00", testMonthMid)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	require.Len(t, report.TeamPayouts, 1)
	payout := report.TeamPayouts[0]
	assert.True(t, payout.SharePercent.Equal(config.DefaultBillingConfig().DefaultTeamSharePercent))
	assert.True(t, payout.Amount.Equal(decimal.RequireFromString("100.00")))
}

func TestReconcileExternalMetered(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)

	h.addCompletedSessions(patient.ID, 3, testMonthMid)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	require.Len(t, report.ExternalPayouts, 1)
	payout := report.ExternalPayouts[0]
	assert.Equal(t, 3, payout.SessionsPerformed)
	assert.Equal(t, 3, payout.SessionsPaid)
	assert.False(t, payout.GuaranteeApplied)
	assert.True(t, payout.Total.Equal(decimal.RequireFromString("337.50")), "total = %s", payout.Total)
	assert.Equal(t, model.PayoutStatusCalculated, payout.Status)
}

func TestReconcileExternalNoSessionsNoRow(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	h.addPatient(doctor.ID)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	assert.Empty(t, report.ExternalPayouts)
	assert.Empty(t, h.ledger.external)
}

func TestReconcileGuaranteeIndependentOfSessions(t *testing.T) {
	// A closed package always pays the flat guarantee, whether the
	// doctor performed 0, 3 or 8 sessions in the closure month.
	for _, performed := range []int{0, 3, 8} {
		h := newHarness(t)
		doctor := h.addDoctor(nil, "112.50")
		patient := h.addPatient(doctor.ID)
		h.addCompletedSessions(patient.ID, performed, testMonthMid)
		h.finalize(patient, testMonthMid)

		report, err := h.svc.Reconcile(context.Background(), testMonth)
		require.NoError(t, err)

		require.Len(t, report.ExternalPayouts, 1, "performed=%d", performed)
		payout := report.ExternalPayouts[0]
		assert.True(t, payout.GuaranteeApplied)
		assert.Equal(t, performed, payout.SessionsPerformed)
		assert.Equal(t, 8, payout.SessionsPaid)
		assert.True(t, payout.Total.Equal(decimal.RequireFromString("900.00")),
			"performed=%d total=%s", performed, payout.Total)
	}
}

func TestReconcileGuaranteeBilledOnlyInClosureMonth(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)
	h.finalize(patient, testMonthMid)

	july, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	require.Len(t, july.ExternalPayouts, 1)

	august, err := h.svc.Reconcile(context.Background(), "2026-08")
	require.NoError(t, err)
	assert.Empty(t, august.ExternalPayouts, "closed package must not bill again after the closure month")

	assert.Len(t, h.ledger.external, 1)
}

func TestReconcileDefaultRateFallback(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "0")
	patient := h.addPatient(doctor.ID)
	h.addCompletedSessions(patient.ID, 2, testMonthMid)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	require.Len(t, report.ExternalPayouts, 1)
	payout := report.ExternalPayouts[0]
	assert.True(t, payout.RatePerSession.Equal(config.DefaultBillingConfig().DefaultSessionRate))
	assert.True(t, payout.Total.Equal(decimal.RequireFromString("32.00")))
}

func TestReconcileNetResultIdentity(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	teamDoctor := h.addDoctor(&team.ID, "100.00")
	teamPatient := h.addPatient(teamDoctor.ID)
	h.addApprovedAuth(teamPatient.ID, "1450.05", testMonthMid)

	external := h.addDoctor(nil, "112.50")
	externalPatient := h.addPatient(external.ID)
	h.addCompletedSessions(externalPatient.ID, 5, testMonthMid)
	h.finalize(externalPatient, testMonthMid)

	report, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	expectedNet := report.GrossRevenue.Sub(report.TotalTeamPayouts).Sub(report.TotalExternalPayouts)
	assert.True(t, report.NetResult.Equal(expectedNet))

	// gross 1450.05, team 725.03 (rounded), external 900.00
	assert.True(t, report.TotalTeamPayouts.Equal(decimal.RequireFromString("725.03")),
		"team total = %s", report.TotalTeamPayouts)
	assert.True(t, report.TotalExternalPayouts.Equal(decimal.RequireFromString("900.00")))
	assert.True(t, report.NetResult.Equal(decimal.RequireFromString("-174.98")),
		"net = %s", report.NetResult)

	summary := h.ledger.summaries[testMonth]
	require.NotNil(t, summary)
	assert.True(t, summary.NetResult.Equal(report.NetResult))
}

func TestReconcileIdempotent(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)
	h.addApprovedAuth(patient.ID, "1000.00", testMonthMid)

	external := h.addDoctor(nil, "112.50")
	externalPatient := h.addPatient(external.ID)
	h.addCompletedSessions(externalPatient.ID, 4, testMonthMid)

	first, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	second, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	assert.True(t, first.GrossRevenue.Equal(second.GrossRevenue))
	assert.True(t, first.NetResult.Equal(second.NetResult))
	assert.Len(t, h.ledger.revenue, 1)
	assert.Len(t, h.ledger.teams, 1)
	assert.Len(t, h.ledger.external, 1)
	assert.Len(t, h.ledger.summaries, 1)
}

func TestReconcileReflectsSourceChanges(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)
	auth := h.addApprovedAuth(patient.ID, "1000.00", testMonthMid)

	first, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.True(t, first.GrossRevenue.Equal(decimal.RequireFromString("1000.00")))

	// Rejecting the authorization after the fact must drop it from the
	// recomputed figures.
	auth.Active = false

	second, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.True(t, second.GrossRevenue.IsZero())
	assert.Empty(t, second.TeamPayouts)
}

func TestReconcileInvalidMonth(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Reconcile(context.Background(), "2026-13")
	assert.Error(t, err)
	_, err = h.svc.Reconcile(context.Background(), "july")
	assert.Error(t, err)
}

func TestReconcileDefaultsToCurrentMonth(t *testing.T) {
	h := newHarness(t)
	report, err := h.svc.Reconcile(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.CurrentMonth(), report.ReferenceMonth)
}

func TestReconcilePropagatesRepositoryError(t *testing.T) {
	h := newHarness(t)
	h.auths.failList = true
	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to aggregate clinic revenue")
}

func TestMarkExternalPayoutsPaid(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)
	h.addCompletedSessions(patient.ID, 3, testMonthMid)

	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	rows, err := h.svc.MarkExternalPayoutsPaid(context.Background(), doctor.ID, testMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	for _, e := range h.ledger.external {
		assert.Equal(t, model.PayoutStatusPaid, e.Status)
		assert.NotNil(t, e.PaidAt)
	}

	// Already-paid rows are not re-marked.
	rows, err = h.svc.MarkExternalPayoutsPaid(context.Background(), doctor.ID, testMonth)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestMarkPaidSurvivesRecompute(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)
	h.addCompletedSessions(patient.ID, 3, testMonthMid)

	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	_, err = h.svc.MarkExternalPayoutsPaid(context.Background(), doctor.ID, testMonth)
	require.NoError(t, err)

	_, err = h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)

	for _, e := range h.ledger.external {
		assert.Equal(t, model.PayoutStatusPaid, e.Status)
	}
}

func TestRecomputeRemovesStaleLedgerRows(t *testing.T) {
	h := newHarness(t)
	team := h.addTeam("50")
	doctor := h.addDoctor(&team.ID, "100.00")
	patient := h.addPatient(doctor.ID)
	auth := h.addApprovedAuth(patient.ID, "1000.00", testMonthMid)

	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.Len(t, h.ledger.revenue, 1)
	assert.Len(t, h.ledger.teams, 1)

	// The revoked authorization's ledger rows must not survive the
	// recompute, so the history endpoints agree with the summary.
	auth.Active = false

	_, err = h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.Empty(t, h.ledger.revenue)
	assert.Empty(t, h.ledger.teams)
}

func TestRecomputeRemovesPreClosureMeteredRow(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)
	h.addCompletedSessions(patient.ID, 3, testMonthMid)

	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.Len(t, h.ledger.external, 1)

	// Finalizing in August re-attributes the patient to the closure
	// month; July's metered row disappears on the next July pass.
	h.finalize(patient, time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC))

	_, err = h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	assert.Empty(t, h.ledger.external)

	august, err := h.svc.Reconcile(context.Background(), model.ReferenceMonth("2026-08"))
	require.NoError(t, err)
	require.Len(t, august.ExternalPayouts, 1)
	assert.True(t, august.ExternalPayouts[0].GuaranteeApplied)
	assert.Len(t, h.ledger.external, 1)
}

func TestRecomputeKeepsPaidRows(t *testing.T) {
	h := newHarness(t)
	doctor := h.addDoctor(nil, "112.50")
	patient := h.addPatient(doctor.ID)
	h.addCompletedSessions(patient.ID, 3, testMonthMid)

	_, err := h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	_, err = h.svc.MarkExternalPayoutsPaid(context.Background(), doctor.ID, testMonth)
	require.NoError(t, err)

	// Paid rows are payment history and survive the clearing pass even
	// when the recompute no longer produces their key.
	h.sessions.sessions = nil

	_, err = h.svc.Reconcile(context.Background(), testMonth)
	require.NoError(t, err)
	require.Len(t, h.ledger.external, 1)
	for _, e := range h.ledger.external {
		assert.Equal(t, model.PayoutStatusPaid, e.Status)
	}
}
