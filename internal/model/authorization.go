package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuthorizationKind string

const (
	// AuthorizationKindEvaluation covers the neuropsychological evaluation,
	// priced as a single fixed item.
	AuthorizationKindEvaluation AuthorizationKind = "evaluation"
	// AuthorizationKindSessionBundle covers the session package.
	AuthorizationKindSessionBundle AuthorizationKind = "session_bundle"
)

// Authorization is a priced, admin-approvable entitlement tied to a
// patient. Approved, active authorizations are the sole source of clinic
// revenue. Rejection is modeled as deactivation; rows are never deleted.
type Authorization struct {
	Base
	PatientID  uuid.UUID         `db:"patient_id" json:"patient_id"`
	Kind       AuthorizationKind `db:"kind" json:"kind"`
	Code       string            `db:"code" json:"code"`
	Value      decimal.Decimal   `db:"value" json:"value"`
	Active     bool              `db:"active" json:"active"`
	Approved   bool              `db:"approved" json:"approved"`
	ApprovedBy *uuid.UUID        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt *time.Time        `db:"approved_at" json:"approved_at,omitempty"`
}

// EffectiveMonth is the reference month the authorization's value counts
// toward: approval month when approved, creation month otherwise.
func (a *Authorization) EffectiveMonth() ReferenceMonth {
	if a.ApprovedAt != nil {
		return MonthOf(*a.ApprovedAt)
	}
	return MonthOf(a.CreatedAt)
}

// CountsTowardRevenue reports whether the authorization contributes to
// clinic revenue for the given month.
func (a *Authorization) CountsTowardRevenue(month ReferenceMonth) bool {
	return a.Active && a.Approved && a.EffectiveMonth() == month
}

type CreateAuthorizationRequest struct {
	PatientID uuid.UUID         `json:"patient_id" validate:"required"`
	Kind      AuthorizationKind `json:"kind" validate:"required,oneof=evaluation session_bundle"`
	Code      string            `json:"code" validate:"required,max=50"`
	Value     decimal.Decimal   `json:"value" validate:"required"`
}

type AuthorizationFilters struct {
	PatientID   *uuid.UUID
	Kind        AuthorizationKind
	PendingOnly bool
}

type BatchApproveRequest struct {
	AuthorizationIDs []uuid.UUID `json:"authorization_ids" validate:"required,min=1"`
}

type BatchApproveFailure struct {
	AuthorizationID uuid.UUID `json:"authorization_id"`
	Reason          string    `json:"reason"`
}

type BatchApproveResult struct {
	Approved []uuid.UUID           `json:"approved"`
	Failed   []BatchApproveFailure `json:"failed,omitempty"`
}
