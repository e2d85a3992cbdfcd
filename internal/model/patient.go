package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	// PatientStatusActive means the treatment package is open and sessions
	// are billed incrementally.
	PatientStatusActive PatientStatus = "active"
	// PatientStatusFinalized means the package is closed; external doctors
	// are owed the full session guarantee for the patient.
	PatientStatusFinalized PatientStatus = "finalized"
)

type Patient struct {
	Base
	Name        string        `db:"name" json:"name"`
	DocumentID  string        `db:"document_id" json:"document_id,omitempty"`
	DateOfBirth *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	DoctorID    uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Status      PatientStatus `db:"status" json:"status"`
	FinalizedAt *time.Time    `db:"finalized_at" json:"finalized_at,omitempty"`
}

// IsFinalized reports whether the treatment package is closed.
func (p *Patient) IsFinalized() bool {
	return p.Status == PatientStatusFinalized
}

type CreatePatientRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	DocumentID  string     `json:"document_id" validate:"max=20"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	DoctorID    uuid.UUID  `json:"doctor_id" validate:"required"`
}

type UpdatePatientRequest struct {
	Name       *string    `json:"name" validate:"omitempty,max=200"`
	DocumentID *string    `json:"document_id" validate:"omitempty,max=20"`
	DoctorID   *uuid.UUID `json:"doctor_id"`
}

type PatientFilters struct {
	DoctorID *uuid.UUID
	Status   PatientStatus
}
