package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
)

func (r *teamRepository) Create(ctx context.Context, team *model.Team) error {
	query := `
		INSERT INTO teams (
			id, name, revenue_share_percent, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	team.ID = uuid.New()
	team.CreatedAt = time.Now()
	team.UpdatedAt = time.Now()
	team.Active = true

	_, err := r.db.ExecContext(ctx, query,
		team.ID,
		team.Name,
		team.RevenueSharePercent,
		team.Active,
		team.CreatedAt,
		team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *teamRepository) Get(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	query := `
		SELECT id, name, revenue_share_percent, active, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	var team model.Team
	err := r.db.GetContext(ctx, &team, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (r *teamRepository) Update(ctx context.Context, team *model.Team) error {
	query := `
		UPDATE teams
		SET name = $1, revenue_share_percent = $2, active = $3, updated_at = $4
		WHERE id = $5
	`
	team.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		team.Name,
		team.RevenueSharePercent,
		team.Active,
		team.UpdatedAt,
		team.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("team not found")
	}

	return nil
}

func (r *teamRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE teams
		SET active = false, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate team: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("team not found")
	}

	return nil
}

func (r *teamRepository) List(ctx context.Context) ([]*model.Team, error) {
	query := `
		SELECT id, name, revenue_share_percent, active, created_at, updated_at
		FROM teams
		ORDER BY name ASC
	`
	var teams []*model.Team
	err := r.db.SelectContext(ctx, &teams, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (r *teamRepository) ListActive(ctx context.Context) ([]*model.Team, error) {
	query := `
		SELECT id, name, revenue_share_percent, active, created_at, updated_at
		FROM teams
		WHERE active = true
		ORDER BY name ASC
	`
	var teams []*model.Team
	err := r.db.SelectContext(ctx, &teams, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active teams: %w", err)
	}
	return teams, nil
}
