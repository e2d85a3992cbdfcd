package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

// In-memory stores mirroring the postgres upsert semantics, keyed the
// same way as the unique indexes.

type fakeAuthorizationRepo struct {
	auths []*model.Authorization
	// patientDoctor and doctorTeam let the fake resolve the joins the
	// real repository does in SQL.
	patientDoctor map[uuid.UUID]uuid.UUID
	doctorTeam    map[uuid.UUID]uuid.UUID
	failList      bool
}

func (f *fakeAuthorizationRepo) Create(ctx context.Context, a *model.Authorization) error {
	a.ID = uuid.New()
	a.Active = true
	f.auths = append(f.auths, a)
	return nil
}

func (f *fakeAuthorizationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Authorization, error) {
	for _, a := range f.auths {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("authorization not found")
}

func (f *fakeAuthorizationRepo) List(ctx context.Context, filters *model.AuthorizationFilters) ([]*model.Authorization, error) {
	return f.auths, nil
}

func (f *fakeAuthorizationRepo) Approve(ctx context.Context, id, approvedBy uuid.UUID) (*model.Authorization, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a.Approved = true
	a.ApprovedBy = &approvedBy
	a.ApprovedAt = &now
	return a, nil
}

func (f *fakeAuthorizationRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Active = false
	return nil
}

func (f *fakeAuthorizationRepo) ListApprovedForMonth(ctx context.Context, month model.ReferenceMonth) ([]*model.Authorization, error) {
	if f.failList {
		return nil, fmt.Errorf("storage unreachable")
	}
	var out []*model.Authorization
	for _, a := range f.auths {
		if a.CountsTowardRevenue(month) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAuthorizationRepo) SumApprovedForTeamMonth(ctx context.Context, teamID uuid.UUID, month model.ReferenceMonth) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range f.auths {
		if !a.CountsTowardRevenue(month) {
			continue
		}
		doctorID, ok := f.patientDoctor[a.PatientID]
		if !ok {
			continue
		}
		if f.doctorTeam[doctorID] == teamID {
			sum = sum.Add(a.Value)
		}
	}
	return sum, nil
}

func (f *fakeAuthorizationRepo) ApprovedKinds(ctx context.Context, patientID uuid.UUID) ([]model.AuthorizationKind, error) {
	seen := map[model.AuthorizationKind]bool{}
	var kinds []model.AuthorizationKind
	for _, a := range f.auths {
		if a.PatientID == patientID && a.Approved && a.Active && !seen[a.Kind] {
			seen[a.Kind] = true
			kinds = append(kinds, a.Kind)
		}
	}
	return kinds, nil
}

type fakeTeamRepo struct {
	teams []*model.Team
}

func (f *fakeTeamRepo) Create(ctx context.Context, t *model.Team) error {
	t.ID = uuid.New()
	t.Active = true
	f.teams = append(f.teams, t)
	return nil
}

func (f *fakeTeamRepo) Get(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("team not found")
}

func (f *fakeTeamRepo) Update(ctx context.Context, t *model.Team) error { return nil }

func (f *fakeTeamRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	t, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	t.Active = false
	return nil
}

func (f *fakeTeamRepo) List(ctx context.Context) ([]*model.Team, error) { return f.teams, nil }

func (f *fakeTeamRepo) ListActive(ctx context.Context) ([]*model.Team, error) {
	var out []*model.Team
	for _, t := range f.teams {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	doctors []*model.Doctor
}

func (f *fakeDoctorRepo) Create(ctx context.Context, d *model.Doctor) error {
	d.ID = uuid.New()
	d.Active = true
	f.doctors = append(f.doctors, d)
	return nil
}

func (f *fakeDoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	for _, d := range f.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("doctor not found")
}

func (f *fakeDoctorRepo) Update(ctx context.Context, d *model.Doctor) error { return nil }

func (f *fakeDoctorRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	d, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Active = false
	return nil
}

func (f *fakeDoctorRepo) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	return f.doctors, nil
}

func (f *fakeDoctorRepo) ListExternalActive(ctx context.Context) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range f.doctors {
		if d.Active && d.TeamID == nil {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	patients []*model.Patient
}

func (f *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	p.Status = model.PatientStatusActive
	f.patients = append(f.patients, p)
	return nil
}

func (f *fakePatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("patient not found")
}

func (f *fakePatientRepo) Update(ctx context.Context, p *model.Patient) error { return nil }

func (f *fakePatientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return f.patients, nil
}

func (f *fakePatientRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.patients {
		if p.DoctorID == doctorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePatientRepo) Finalize(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p.Status = model.PatientStatusFinalized
	p.FinalizedAt = &now
	return p, nil
}

type fakeSessionRepo struct {
	sessions []*model.Session
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *model.Session) error {
	s.ID = uuid.New()
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session not found")
}

func (f *fakeSessionRepo) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	return f.sessions, nil
}

func (f *fakeSessionRepo) Complete(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.Completed = true
	s.CompletedAt = &now
	return s, nil
}

func (f *fakeSessionRepo) NextSequenceNumber(ctx context.Context, patientID uuid.UUID) (int, error) {
	max := 0
	for _, s := range f.sessions {
		if s.PatientID == patientID && s.SequenceNumber > max {
			max = s.SequenceNumber
		}
	}
	return max + 1, nil
}

func (f *fakeSessionRepo) CountCompletedInMonth(ctx context.Context, patientID uuid.UUID, month model.ReferenceMonth) (int, error) {
	count := 0
	for _, s := range f.sessions {
		if s.PatientID == patientID && s.Completed && month.Contains(s.Date) {
			count++
		}
	}
	return count, nil
}

type fakeLedgerRepo struct {
	revenue   map[string]*model.ClinicRevenueEntry
	teams     map[string]*model.TeamPayoutEntry
	external  map[string]*model.ExternalPayoutEntry
	summaries map[model.ReferenceMonth]*model.ReconciliationSummary
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		revenue:   map[string]*model.ClinicRevenueEntry{},
		teams:     map[string]*model.TeamPayoutEntry{},
		external:  map[string]*model.ExternalPayoutEntry{},
		summaries: map[model.ReferenceMonth]*model.ReconciliationSummary{},
	}
}

func (f *fakeLedgerRepo) UpsertClinicRevenueEntry(ctx context.Context, e *model.ClinicRevenueEntry) error {
	key := e.AuthorizationID.String() + "/" + e.ReferenceMonth.String()
	if existing, ok := f.revenue[key]; ok {
		e.ID = existing.ID
	} else if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.ComputedAt = time.Now()
	copied := *e
	f.revenue[key] = &copied
	return nil
}

func (f *fakeLedgerRepo) UpsertTeamPayoutEntry(ctx context.Context, e *model.TeamPayoutEntry) error {
	key := e.TeamID.String() + "/" + e.ReferenceMonth.String()
	if existing, ok := f.teams[key]; ok {
		e.ID = existing.ID
	} else if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.ComputedAt = time.Now()
	copied := *e
	f.teams[key] = &copied
	return nil
}

func (f *fakeLedgerRepo) UpsertExternalPayoutEntry(ctx context.Context, e *model.ExternalPayoutEntry) error {
	key := e.DoctorID.String() + "/" + e.PatientID.String() + "/" + e.ReferenceMonth.String()
	if existing, ok := f.external[key]; ok {
		e.ID = existing.ID
		e.Status = existing.Status
		e.PaidAt = existing.PaidAt
	} else if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.ComputedAt = time.Now()
	copied := *e
	f.external[key] = &copied
	return nil
}

func (f *fakeLedgerRepo) UpsertReconciliationSummary(ctx context.Context, s *model.ReconciliationSummary) error {
	if existing, ok := f.summaries[s.ReferenceMonth]; ok {
		s.ID = existing.ID
	} else if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.ComputedAt = time.Now()
	copied := *s
	f.summaries[s.ReferenceMonth] = &copied
	return nil
}

func (f *fakeLedgerRepo) DeleteRevenueEntries(ctx context.Context, month model.ReferenceMonth) error {
	for key, e := range f.revenue {
		if e.ReferenceMonth == month {
			delete(f.revenue, key)
		}
	}
	return nil
}

func (f *fakeLedgerRepo) DeleteTeamPayoutEntries(ctx context.Context, month model.ReferenceMonth) error {
	for key, e := range f.teams {
		if e.ReferenceMonth == month {
			delete(f.teams, key)
		}
	}
	return nil
}

func (f *fakeLedgerRepo) DeleteCalculatedExternalPayouts(ctx context.Context, month model.ReferenceMonth) error {
	for key, e := range f.external {
		if e.ReferenceMonth == month && e.Status == model.PayoutStatusCalculated {
			delete(f.external, key)
		}
	}
	return nil
}

func (f *fakeLedgerRepo) ListRevenueEntries(ctx context.Context, month model.ReferenceMonth) ([]*model.ClinicRevenueEntry, error) {
	var out []*model.ClinicRevenueEntry
	for _, e := range f.revenue {
		if e.ReferenceMonth == month {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListTeamPayoutHistory(ctx context.Context, teamID uuid.UUID, limit int) ([]*model.TeamPayoutEntry, error) {
	var out []*model.TeamPayoutEntry
	for _, e := range f.teams {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListExternalPayoutHistory(ctx context.Context, doctorID uuid.UUID, limit int) ([]*model.ExternalPayoutEntry, error) {
	var out []*model.ExternalPayoutEntry
	for _, e := range f.external {
		if e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) ListSummaries(ctx context.Context, limit int) ([]*model.ReconciliationSummary, error) {
	var out []*model.ReconciliationSummary
	for _, s := range f.summaries {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeLedgerRepo) MarkExternalPayoutsPaid(ctx context.Context, doctorID uuid.UUID, month model.ReferenceMonth) (int64, error) {
	var rows int64
	now := time.Now()
	for _, e := range f.external {
		if e.DoctorID == doctorID && e.ReferenceMonth == month && e.Status == model.PayoutStatusCalculated {
			e.Status = model.PayoutStatusPaid
			e.PaidAt = &now
			rows++
		}
	}
	return rows, nil
}
