package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	"github.com/saudemente/clinic-api/internal/service/event"
	apperrors "github.com/saudemente/clinic-api/pkg/errors"
)

type Service struct {
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	reportRepo  repository.ReportRepository
	events      *event.Service
}

func NewService(
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	reportRepo repository.ReportRepository,
	events *event.Service,
) *Service {
	return &Service{
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		reportRepo:  reportRepo,
		events:      events,
	}
}

// Create registers a patient under a doctor and opens the patient's
// report record, which stays unreleased until the release gate allows it.
func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	doctor, err := s.doctorRepo.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Active {
		return nil, apperrors.NewBadRequest("cannot assign a patient to an inactive doctor", nil)
	}

	patient := &model.Patient{
		Name:        req.Name,
		DocumentID:  req.DocumentID,
		DateOfBirth: req.DateOfBirth,
		DoctorID:    req.DoctorID,
		Status:      model.PatientStatusActive,
	}
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	report := &model.Report{PatientID: patient.ID}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create patient report record: %w", err)
	}

	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patientRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.patientRepo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.DocumentID != nil {
		patient.DocumentID = *req.DocumentID
	}
	if req.DoctorID != nil {
		if _, err := s.doctorRepo.Get(ctx, *req.DoctorID); err != nil {
			return nil, err
		}
		patient.DoctorID = *req.DoctorID
	}

	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

// Finalize closes the patient's treatment package. The transition is
// what switches the patient's external payout from metered billing to
// the flat guarantee, attributed to this month.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patient.IsFinalized() {
		return nil, apperrors.NewConflict("patient is already finalized", nil)
	}

	finalized, err := s.patientRepo.Finalize(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize patient: %w", err)
	}

	if s.events != nil {
		if err := s.events.Record(ctx, model.EventPatientFinalized, map[string]any{
			"patient_id":   finalized.ID,
			"doctor_id":    finalized.DoctorID,
			"finalized_at": finalized.FinalizedAt,
		}); err != nil {
			log.Warn().Err(err).Str("patient_id", id.String()).Msg("failed to record patient finalized event")
		}
	}

	return finalized, nil
}
