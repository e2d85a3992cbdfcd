package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, name, document_id, date_of_birth, doctor_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	patient.Status = model.PatientStatusActive

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.DocumentID,
		patient.DateOfBirth,
		patient.DoctorID,
		patient.Status,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, name, document_id, date_of_birth, doctor_id,
			   status, finalized_at, created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, document_id = $2, doctor_id = $3, updated_at = $4
		WHERE id = $5
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.DocumentID,
		patient.DoctorID,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("patient not found")
	}

	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `
		SELECT id, name, document_id, date_of_birth, doctor_id,
			   status, finalized_at, created_at, updated_at
		FROM patients
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY name ASC"

	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	query := `
		SELECT id, name, document_id, date_of_birth, doctor_id,
			   status, finalized_at, created_at, updated_at
		FROM patients
		WHERE doctor_id = $1
		ORDER BY name ASC
	`
	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients by doctor: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Finalize(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		UPDATE patients
		SET status = $1, finalized_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING id, name, document_id, date_of_birth, doctor_id,
				  status, finalized_at, created_at, updated_at
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query,
		model.PatientStatusFinalized,
		time.Now(),
		id,
		model.PatientStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize patient: %w", err)
	}
	return &patient, nil
}
