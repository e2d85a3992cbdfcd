package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor is a treating professional. A doctor without a team is an
// external contractor paid per session; a doctor with a team is paid
// through the team's revenue share.
type Doctor struct {
	Base
	Name           string          `db:"name" json:"name"`
	Email          string          `db:"email" json:"email"`
	Phone          string          `db:"phone" json:"phone,omitempty"`
	TeamID         *uuid.UUID      `db:"team_id" json:"team_id,omitempty"`
	RatePerSession decimal.Decimal `db:"rate_per_session" json:"rate_per_session"`
	Active         bool            `db:"active" json:"active"`
}

// IsExternal reports whether the doctor is independently contracted.
func (d *Doctor) IsExternal() bool {
	return d.TeamID == nil
}

type CreateDoctorRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Email          string          `json:"email" validate:"required,email"`
	Phone          string          `json:"phone" validate:"max=30"`
	TeamID         *uuid.UUID      `json:"team_id"`
	RatePerSession decimal.Decimal `json:"rate_per_session"`
}

type UpdateDoctorRequest struct {
	Name           *string          `json:"name" validate:"omitempty,max=200"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	Phone          *string          `json:"phone" validate:"omitempty,max=30"`
	TeamID         *uuid.UUID       `json:"team_id"`
	RatePerSession *decimal.Decimal `json:"rate_per_session"`
	Active         *bool            `json:"active"`
}

type DoctorFilters struct {
	TeamID       *uuid.UUID
	ExternalOnly bool
	Active       *bool
}
