package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
)

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (
			id, patient_id, released_for_delivery, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5)
	`
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.PatientID,
		report.ReleasedForDelivery,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Report, error) {
	query := `
		SELECT id, patient_id, released_for_delivery, released_at,
			   created_at, updated_at
		FROM reports
		WHERE patient_id = $1
	`
	var report model.Report
	err := r.db.GetContext(ctx, &report, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) MarkReleased(ctx context.Context, patientID uuid.UUID) (bool, error) {
	query := `
		UPDATE reports
		SET released_for_delivery = true, released_at = $1, updated_at = $1
		WHERE patient_id = $2 AND released_for_delivery = false
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), patientID)
	if err != nil {
		return false, fmt.Errorf("failed to mark report released: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
