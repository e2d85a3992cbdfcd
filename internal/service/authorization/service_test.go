package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/service/report"
)

type fakeAuthRepo struct {
	auths []*model.Authorization
}

func (f *fakeAuthRepo) Create(ctx context.Context, a *model.Authorization) error {
	a.ID = uuid.New()
	f.auths = append(f.auths, a)
	return nil
}

func (f *fakeAuthRepo) Get(ctx context.Context, id uuid.UUID) (*model.Authorization, error) {
	for _, a := range f.auths {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("authorization not found")
}

func (f *fakeAuthRepo) List(ctx context.Context, filters *model.AuthorizationFilters) ([]*model.Authorization, error) {
	return f.auths, nil
}

func (f *fakeAuthRepo) Approve(ctx context.Context, id, approvedBy uuid.UUID) (*model.Authorization, error) {
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

func (f *fakeAuthRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	a, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	a.Active = false
	return nil
}

func (f *fakeAuthRepo) ListApprovedForMonth(ctx context.Context, month model.ReferenceMonth) ([]*model.Authorization, error) {
	return nil, nil
}

func (f *fakeAuthRepo) SumApprovedForTeamMonth(ctx context.Context, teamID uuid.UUID, month model.ReferenceMonth) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeAuthRepo) ApprovedKinds(ctx context.Context, patientID uuid.UUID) ([]model.AuthorizationKind, error) {
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

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, fmt.Errorf("patient not found")
	}
	return p, nil
}
func (f *fakePatientRepo) Update(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}
func (f *fakePatientRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}
func (f *fakePatientRepo) Finalize(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return f.Get(ctx, id)
}

type fakeReportRepo struct {
	reports map[uuid.UUID]*model.Report
}

func (f *fakeReportRepo) Create(ctx context.Context, r *model.Report) error {
	r.ID = uuid.New()
	f.reports[r.PatientID] = r
	return nil
}

func (f *fakeReportRepo) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Report, error) {
	r, ok := f.reports[patientID]
	if !ok {
		return nil, fmt.Errorf("report not found")
	}
	return r, nil
}

func (f *fakeReportRepo) MarkReleased(ctx context.Context, patientID uuid.UUID) (bool, error) {
	r, ok := f.reports[patientID]
	if !ok {
		return false, fmt.Errorf("report not found")
	}
	if r.ReleasedForDelivery {
		return false, nil
	}
	now := time.Now()
	r.ReleasedForDelivery = true
	r.ReleasedAt = &now
	return true, nil
}

func setup() (*Service, *fakeAuthRepo, *fakeReportRepo, *model.Patient) {
	patient := &model.Patient{
		Base: model.Base{ID: uuid.New()},
		Name: "Ana",
	}
	auths := &fakeAuthRepo{}
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{patient.ID: patient}}
	reports := &fakeReportRepo{reports: map[uuid.UUID]*model.Report{
		patient.ID: {Base: model.Base{ID: uuid.New()}, PatientID: patient.ID},
	}}
	reportSvc := report.NewService(reports, auths, patients, nil, nil)
	svc := NewService(auths, patients, nil, nil, reportSvc)
	return svc, auths, reports, patient
}

func pendingAuth(patientID uuid.UUID, kind model.AuthorizationKind) *model.Authorization {
	return &model.Authorization{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patientID,
		Kind:      kind,
		Code:      "AUT-001",
		Value:     decimal.NewFromInt(100),
		Active:    true,
	}
}

func TestApproveSingleKindKeepsReportHeld(t *testing.T) {
	svc, auths, reports, patient := setup()
	evaluation := pendingAuth(patient.ID, model.AuthorizationKindEvaluation)
	auths.auths = append(auths.auths, evaluation)

	_, err := svc.Approve(context.Background(), evaluation.ID, uuid.New())
	require.NoError(t, err)

	assert.False(t, reports.reports[patient.ID].ReleasedForDelivery)
}

func TestApprovingLastMissingKindReleasesReport(t *testing.T) {
	svc, auths, reports, patient := setup()
	evaluation := pendingAuth(patient.ID, model.AuthorizationKindEvaluation)
	bundle := pendingAuth(patient.ID, model.AuthorizationKindSessionBundle)
	auths.auths = append(auths.auths, evaluation, bundle)
	admin := uuid.New()

	_, err := svc.Approve(context.Background(), evaluation.ID, admin)
	require.NoError(t, err)
	assert.False(t, reports.reports[patient.ID].ReleasedForDelivery)

	_, err = svc.Approve(context.Background(), bundle.ID, admin)
	require.NoError(t, err)

	rep := reports.reports[patient.ID]
	assert.True(t, rep.ReleasedForDelivery)
	assert.NotNil(t, rep.ReleasedAt)
}

func TestBatchApproveReleasesReport(t *testing.T) {
	svc, auths, reports, patient := setup()
	evaluation := pendingAuth(patient.ID, model.AuthorizationKindEvaluation)
	bundle := pendingAuth(patient.ID, model.AuthorizationKindSessionBundle)
	auths.auths = append(auths.auths, evaluation, bundle)

	result := svc.BatchApprove(context.Background(), &model.BatchApproveRequest{
		AuthorizationIDs: []uuid.UUID{evaluation.ID, bundle.ID},
	}, uuid.New())

	assert.Len(t, result.Approved, 2)
	assert.Empty(t, result.Failed)
	assert.True(t, reports.reports[patient.ID].ReleasedForDelivery)
}

func TestApproveRejectedAuthorizationRefused(t *testing.T) {
	svc, auths, reports, patient := setup()
	bundle := pendingAuth(patient.ID, model.AuthorizationKindSessionBundle)
	bundle.Active = false
	auths.auths = append(auths.auths, bundle)

	_, err := svc.Approve(context.Background(), bundle.ID, uuid.New())
	assert.Error(t, err)
	assert.False(t, reports.reports[patient.ID].ReleasedForDelivery)
}
