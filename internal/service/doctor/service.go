package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
)

type Service struct {
	doctorRepo repository.DoctorRepository
	teamRepo   repository.TeamRepository
}

func NewService(doctorRepo repository.DoctorRepository, teamRepo repository.TeamRepository) *Service {
	return &Service{
		doctorRepo: doctorRepo,
		teamRepo:   teamRepo,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if req.TeamID != nil {
		if _, err := s.teamRepo.Get(ctx, *req.TeamID); err != nil {
			return nil, err
		}
	}

	doctor := &model.Doctor{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		TeamID:         req.TeamID,
		RatePerSession: req.RatePerSession,
		Active:         true,
	}
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctorRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	return s.doctorRepo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.TeamID != nil {
		if _, err := s.teamRepo.Get(ctx, *req.TeamID); err != nil {
			return nil, err
		}
		doctor.TeamID = req.TeamID
	}
	if req.RatePerSession != nil {
		doctor.RatePerSession = *req.RatePerSession
	}
	if req.Active != nil {
		doctor.Active = *req.Active
	}

	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.doctorRepo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.doctorRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate doctor: %w", err)
	}
	return nil
}
