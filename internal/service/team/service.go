package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/config"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	apperrors "github.com/saudemente/clinic-api/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

type Service struct {
	teamRepo repository.TeamRepository
	cfg      config.BillingConfig
}

func NewService(teamRepo repository.TeamRepository, cfg config.BillingConfig) *Service {
	return &Service{
		teamRepo: teamRepo,
		cfg:      cfg,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateTeamRequest) (*model.Team, error) {
	share := s.cfg.DefaultTeamSharePercent
	if req.RevenueSharePercent != nil {
		share = *req.RevenueSharePercent
	}
	if share.IsNegative() || share.GreaterThan(oneHundred) {
		return nil, apperrors.NewBadRequest("revenue share must be between 0 and 100", nil)
	}

	team := &model.Team{
		Name:                req.Name,
		RevenueSharePercent: share,
		Active:              true,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return s.teamRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Team, error) {
	return s.teamRepo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTeamRequest) (*model.Team, error) {
	team, err := s.teamRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.RevenueSharePercent != nil {
		share := *req.RevenueSharePercent
		if share.IsNegative() || share.GreaterThan(oneHundred) {
			return nil, apperrors.NewBadRequest("revenue share must be between 0 and 100", nil)
		}
		team.RevenueSharePercent = share
	}
	if req.Active != nil {
		team.Active = *req.Active
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.teamRepo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.teamRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate team: %w", err)
	}
	return nil
}
