package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

func (r *authorizationRepository) Create(ctx context.Context, auth *model.Authorization) error {
	query := `
		INSERT INTO authorizations (
			id, patient_id, kind, code, value, active, approved,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	auth.ID = uuid.New()
	auth.CreatedAt = time.Now()
	auth.UpdatedAt = time.Now()
	auth.Active = true
	auth.Approved = false

	_, err := r.db.ExecContext(ctx, query,
		auth.ID,
		auth.PatientID,
		auth.Kind,
		auth.Code,
		auth.Value,
		auth.Active,
		auth.Approved,
		auth.CreatedAt,
		auth.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create authorization: %w", err)
	}
	return nil
}

func (r *authorizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Authorization, error) {
	query := `
		SELECT id, patient_id, kind, code, value, active, approved,
			   approved_by, approved_at, created_at, updated_at
		FROM authorizations
		WHERE id = $1
	`
	var auth model.Authorization
	err := r.db.GetContext(ctx, &auth, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization: %w", err)
	}
	return &auth, nil
}

func (r *authorizationRepository) List(ctx context.Context, filters *model.AuthorizationFilters) ([]*model.Authorization, error) {
	query := `
		SELECT id, patient_id, kind, code, value, active, approved,
			   approved_by, approved_at, created_at, updated_at
		FROM authorizations
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, *filters.PatientID)
			argCount++
		}
		if filters.Kind != "" {
			query += fmt.Sprintf(" AND kind = $%d", argCount)
			args = append(args, filters.Kind)
			argCount++
		}
		if filters.PendingOnly {
			query += " AND approved = false AND active = true"
		}
	}

	query += " ORDER BY created_at DESC"

	var auths []*model.Authorization
	err := r.db.SelectContext(ctx, &auths, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizations: %w", err)
	}
	return auths, nil
}

func (r *authorizationRepository) Approve(ctx context.Context, id, approvedBy uuid.UUID) (*model.Authorization, error) {
	query := `
		UPDATE authorizations
		SET approved = true, approved_by = $1, approved_at = $2, updated_at = $2
		WHERE id = $3 AND active = true
		RETURNING id, patient_id, kind, code, value, active, approved,
				  approved_by, approved_at, created_at, updated_at
	`
	var auth model.Authorization
	err := r.db.GetContext(ctx, &auth, query, approvedBy, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to approve authorization: %w", err)
	}
	return &auth, nil
}

func (r *authorizationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE authorizations
		SET active = false, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate authorization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("authorization not found")
	}

	return nil
}

func (r *authorizationRepository) ListApprovedForMonth(ctx context.Context, month model.ReferenceMonth) ([]*model.Authorization, error) {
	query := `
		SELECT id, patient_id, kind, code, value, active, approved,
			   approved_by, approved_at, created_at, updated_at
		FROM authorizations
		WHERE active = true
		AND approved = true
		AND to_char(COALESCE(approved_at, created_at), 'YYYY-MM') = $1
		ORDER BY created_at ASC
	`
	var auths []*model.Authorization
	err := r.db.SelectContext(ctx, &auths, query, month.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list approved authorizations: %w", err)
	}
	return auths, nil
}

func (r *authorizationRepository) SumApprovedForTeamMonth(ctx context.Context, teamID uuid.UUID, month model.ReferenceMonth) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(a.value), 0)
		FROM authorizations a
		JOIN patients p ON a.patient_id = p.id
		JOIN doctors d ON p.doctor_id = d.id
		WHERE d.team_id = $1
		AND a.active = true
		AND a.approved = true
		AND to_char(COALESCE(a.approved_at, a.created_at), 'YYYY-MM') = $2
	`
	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, query, teamID, month.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum team revenue: %w", err)
	}
	return sum, nil
}

func (r *authorizationRepository) ApprovedKinds(ctx context.Context, patientID uuid.UUID) ([]model.AuthorizationKind, error) {
	query := `
		SELECT DISTINCT kind
		FROM authorizations
		WHERE patient_id = $1
		AND approved = true
		AND active = true
	`
	var kinds []model.AuthorizationKind
	err := r.db.SelectContext(ctx, &kinds, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved kinds: %w", err)
	}
	return kinds, nil
}
