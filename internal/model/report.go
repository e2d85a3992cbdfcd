package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is a patient's evaluation report. Delivery is gated on both
// authorization kinds being active and approved for the patient.
type Report struct {
	Base
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	ReleasedForDelivery bool       `db:"released_for_delivery" json:"released_for_delivery"`
	ReleasedAt          *time.Time `db:"released_at" json:"released_at,omitempty"`
}

// ReleaseStatus is the release-gate answer exposed to the delivery workflow.
type ReleaseStatus struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	ReleaseAllowed bool       `json:"release_allowed"`
	Released       bool       `json:"released"`
	ReleasedAt     *time.Time `json:"released_at,omitempty"`
}
