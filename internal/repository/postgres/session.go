package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
)

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, patient_id, sequence_number, date, completed, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PatientID,
		session.SequenceNumber,
		session.Date,
		session.Completed,
		session.Notes,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, patient_id, sequence_number, date, completed,
			   completed_at, notes, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context, filters *model.SessionFilters) ([]*model.Session, error) {
	query := `
		SELECT id, patient_id, sequence_number, date, completed,
			   completed_at, notes, created_at, updated_at
		FROM sessions
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
		if filters.CompletedOnly {
			query += " AND completed = true"
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND date < $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY date ASC, sequence_number ASC"

	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Complete(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		UPDATE sessions
		SET completed = true, completed_at = $1, updated_at = $1
		WHERE id = $2
		RETURNING id, patient_id, sequence_number, date, completed,
				  completed_at, notes, created_at, updated_at
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) NextSequenceNumber(ctx context.Context, patientID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence_number), 0) + 1
		FROM sessions
		WHERE patient_id = $1
	`
	var next int
	err := r.db.GetContext(ctx, &next, query, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to get next sequence number: %w", err)
	}
	return next, nil
}

func (r *sessionRepository) CountCompletedInMonth(ctx context.Context, patientID uuid.UUID, month model.ReferenceMonth) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sessions
		WHERE patient_id = $1
		AND completed = true
		AND to_char(date, 'YYYY-MM') = $2
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, patientID, month.String())
	if err != nil {
		return 0, fmt.Errorf("failed to count completed sessions: %w", err)
	}
	return count, nil
}
