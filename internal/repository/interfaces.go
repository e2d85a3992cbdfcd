package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		// ListExternalActive returns active doctors with no team, the
		// population the external payout calculator iterates.
		ListExternalActive(ctx context.Context) ([]*model.Doctor, error)
	}

	TeamRepository interface {
		Create(ctx context.Context, team *model.Team) error
		Get(ctx context.Context, id uuid.UUID) (*model.Team, error)
		Update(ctx context.Context, team *model.Team) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Team, error)
		ListActive(ctx context.Context) ([]*model.Team, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error)
		Finalize(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	AuthorizationRepository interface {
		Create(ctx context.Context, auth *model.Authorization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Authorization, error)
		List(ctx context.Context, filters *model.AuthorizationFilters) ([]*model.Authorization, error)
		Approve(ctx context.Context, id, approvedBy uuid.UUID) (*model.Authorization, error)
		Deactivate(ctx context.Context, id uuid.UUID) error
		// ListApprovedForMonth returns active, approved authorizations
		// whose effective month matches, joined with their patient ids.
		ListApprovedForMonth(ctx context.Context, month model.ReferenceMonth) ([]*model.Authorization, error)
		// SumApprovedForTeamMonth sums qualifying authorization values for
		// patients whose doctor belongs to the team.
		SumApprovedForTeamMonth(ctx context.Context, teamID uuid.UUID, month model.ReferenceMonth) (decimal.Decimal, error)
		// ApprovedKinds returns the distinct kinds with at least one
		// active, approved authorization for the patient.
		ApprovedKinds(ctx context.Context, patientID uuid.UUID) ([]model.AuthorizationKind, error)
	}

	SessionRepository interface {
		Create(ctx context.Context, session *model.Session) error
		Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
		List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error)
		Complete(ctx context.Context, id uuid.UUID) (*model.Session, error)
		NextSequenceNumber(ctx context.Context, patientID uuid.UUID) (int, error)
		CountCompletedInMonth(ctx context.Context, patientID uuid.UUID, month model.ReferenceMonth) (int, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.Report) error
		GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Report, error)
		MarkReleased(ctx context.Context, patientID uuid.UUID) (bool, error)
	}

	// LedgerRepository persists the derived row families. Every upsert is
	// one atomic statement keyed by (entity, reference month). A recompute
	// first clears the month's rows, then rewrites them, so keys the
	// fresh pass no longer produces do not linger.
	LedgerRepository interface {
		UpsertClinicRevenueEntry(ctx context.Context, entry *model.ClinicRevenueEntry) error
		UpsertTeamPayoutEntry(ctx context.Context, entry *model.TeamPayoutEntry) error
		UpsertExternalPayoutEntry(ctx context.Context, entry *model.ExternalPayoutEntry) error
		UpsertReconciliationSummary(ctx context.Context, summary *model.ReconciliationSummary) error
		DeleteRevenueEntries(ctx context.Context, month model.ReferenceMonth) error
		DeleteTeamPayoutEntries(ctx context.Context, month model.ReferenceMonth) error
		// DeleteCalculatedExternalPayouts clears only unpaid rows; paid
		// rows stay as payment history.
		DeleteCalculatedExternalPayouts(ctx context.Context, month model.ReferenceMonth) error
		ListRevenueEntries(ctx context.Context, month model.ReferenceMonth) ([]*model.ClinicRevenueEntry, error)
		ListTeamPayoutHistory(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.TeamPayoutEntry, error)
		ListExternalPayoutHistory(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.ExternalPayoutEntry, error)
		ListSummaries(ctx context.Context, limit int) ([]*model.ReconciliationSummary, error)
		MarkExternalPayoutsPaid(ctx context.Context, doctorID uuid.UUID, month model.ReferenceMonth) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
