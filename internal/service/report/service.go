package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saudemente/clinic-api/internal/email"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	"github.com/saudemente/clinic-api/internal/service/event"
	apperrors "github.com/saudemente/clinic-api/pkg/errors"
)

// Service enforces the report release gate: an evaluation report may
// only be released for delivery once the patient has an approved, active
// authorization of every kind. The gate is re-derived from authorization
// state on each check, so a later rejection closes it again.
type Service struct {
	reportRepo  repository.ReportRepository
	authRepo    repository.AuthorizationRepository
	patientRepo repository.PatientRepository
	events      *event.Service
	notifier    email.Notifier
}

func NewService(
	reportRepo repository.ReportRepository,
	authRepo repository.AuthorizationRepository,
	patientRepo repository.PatientRepository,
	events *event.Service,
	notifier email.Notifier,
) *Service {
	return &Service{
		reportRepo:  reportRepo,
		authRepo:    authRepo,
		patientRepo: patientRepo,
		events:      events,
		notifier:    notifier,
	}
}

// ReleaseAllowed reports whether both authorization kinds are approved
// and active for the patient.
func (s *Service) ReleaseAllowed(ctx context.Context, patientID uuid.UUID) (bool, error) {
	kinds, err := s.authRepo.ApprovedKinds(ctx, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to check approved authorizations: %w", err)
	}

	var hasEvaluation, hasBundle bool
	for _, k := range kinds {
		switch k {
		case model.AuthorizationKindEvaluation:
			hasEvaluation = true
		case model.AuthorizationKindSessionBundle:
			hasBundle = true
		}
	}
	return hasEvaluation && hasBundle, nil
}

// ReleaseStatus returns the gate state alongside whether the report has
// already been released.
func (s *Service) ReleaseStatus(ctx context.Context, patientID uuid.UUID) (*model.ReleaseStatus, error) {
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		return nil, err
	}

	allowed, err := s.ReleaseAllowed(ctx, patientID)
	if err != nil {
		return nil, err
	}

	status := &model.ReleaseStatus{
		PatientID:      patientID,
		ReleaseAllowed: allowed,
	}

	rep, err := s.reportRepo.GetByPatient(ctx, patientID)
	if err == nil {
		status.Released = rep.ReleasedForDelivery
		status.ReleasedAt = rep.ReleasedAt
	}

	return status, nil
}

// Release marks the patient's report as released for delivery. The gate
// is checked first; releasing with a pending or rejected authorization
// is refused.
func (s *Service) Release(ctx context.Context, patientID uuid.UUID) (*model.ReleaseStatus, error) {
	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.ReleaseAllowed(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewConflict("report release requires approved evaluation and session bundle authorizations", nil)
	}

	if err := s.markReleased(ctx, patientID, patient.Name); err != nil {
		return nil, err
	}

	return s.ReleaseStatus(ctx, patientID)
}

// ReleaseIfEligible releases the report when the gate has just opened,
// typically right after an authorization approval. A still-closed gate
// is not an error here, and an already-released report is left alone.
func (s *Service) ReleaseIfEligible(ctx context.Context, patientID uuid.UUID) error {
	allowed, err := s.ReleaseAllowed(ctx, patientID)
	if err != nil {
		return err
	}
	if !allowed {
		return nil
	}

	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		return err
	}
	return s.markReleased(ctx, patientID, patient.Name)
}

func (s *Service) markReleased(ctx context.Context, patientID uuid.UUID, patientName string) error {
	released, err := s.reportRepo.MarkReleased(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to release report: %w", err)
	}
	if !released {
		return nil
	}

	if s.events != nil {
		if err := s.events.Record(ctx, model.EventReportReleased, map[string]any{
			"patient_id": patientID,
		}); err != nil {
			log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("failed to record report release event")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.SendReportReleased("", patientName); err != nil {
			log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("failed to send report release notice")
		}
	}
	return nil
}
