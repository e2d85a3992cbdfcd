package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	apperrors "github.com/saudemente/clinic-api/pkg/errors"
)

type Service struct {
	sessionRepo repository.SessionRepository
	patientRepo repository.PatientRepository
}

func NewService(sessionRepo repository.SessionRepository, patientRepo repository.PatientRepository) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		patientRepo: patientRepo,
	}
}

// Create schedules a session for an open package, numbering it after the
// patient's latest session.
func (s *Service) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.IsFinalized() {
		return nil, apperrors.NewConflict("cannot schedule sessions for a finalized patient", nil)
	}

	seq, err := s.sessionRepo.NextSequenceNumber(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine session sequence: %w", err)
	}

	session := &model.Session{
		PatientID:      req.PatientID,
		SequenceNumber: seq,
		Date:           req.Date,
		Notes:          req.Notes,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return s.sessionRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	return s.sessionRepo.List(ctx, filters)
}

// Complete marks the session performed. Only completed sessions count
// toward metered external payouts.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, apperrors.NewConflict("session is already completed", nil)
	}

	completed, err := s.sessionRepo.Complete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	return completed, nil
}
