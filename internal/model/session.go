package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is a single treatment appointment within a patient's package.
// Sessions carry no price; they only gate how much of an external
// doctor's guarantee is earned in a month.
type Session struct {
	Base
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	SequenceNumber int        `db:"sequence_number" json:"sequence_number"`
	Date           time.Time  `db:"date" json:"date"`
	Completed      bool       `db:"completed" json:"completed"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
}

type CreateSessionRequest struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Notes     string    `json:"notes" validate:"max=1000"`
}

type SessionFilters struct {
	PatientID     *uuid.UUID
	CompletedOnly bool
	StartDate     time.Time
	EndDate       time.Time
}
