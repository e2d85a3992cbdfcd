package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/saudemente/clinic-api/internal/model"
)

// calculateExternalPayouts computes what each independently contracted
// doctor is owed per patient for the month.
//
// Payout policy, per patient:
//   - Package closed (patient finalized): the doctor is owed the flat
//     guarantee of GuaranteedSessions × rate, regardless of how many
//     sessions were actually performed. The row is attributed to the
//     closure month and written only when that month is being computed,
//     so the guarantee is billed exactly once.
//   - Package open: ordinary metered billing, completed sessions in the
//     month × rate. Months with no completed sessions produce no row.
//
// The two branches are mutually exclusive for a given patient and month;
// a finalized patient is never also metered.
func (s *Service) calculateExternalPayouts(ctx context.Context, month model.ReferenceMonth) ([]*model.ExternalPayoutEntry, error) {
	doctors, err := s.doctorRepo.ListExternalActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list external doctors: %w", err)
	}

	// Clear the month's unpaid rows first. A finalization re-attributes
	// the patient to the closure month, and the pre-closure metered row
	// must not survive the recompute. Paid rows stay.
	if err := s.ledgerRepo.DeleteCalculatedExternalPayouts(ctx, month); err != nil {
		return nil, fmt.Errorf("failed to clear external payout entries: %w", err)
	}

	payouts := make([]*model.ExternalPayoutEntry, 0)

	for _, doctor := range doctors {
		rate := doctor.RatePerSession
		if rate.IsZero() {
			// A doctor without a configured rate still gets a best-effort
			// figure from the fallback rate.
			rate = s.cfg.DefaultSessionRate
		}

		patients, err := s.patientRepo.ListByDoctor(ctx, doctor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list patients for doctor %s: %w", doctor.ID, err)
		}

		for _, patient := range patients {
			entry, err := s.patientPayout(ctx, doctor, patient, rate, month)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				continue
			}

			if err := s.ledgerRepo.UpsertExternalPayoutEntry(ctx, entry); err != nil {
				return nil, fmt.Errorf("failed to record external payout: %w", err)
			}
			s.countRow("external_payout")

			payouts = append(payouts, entry)
		}
	}

	return payouts, nil
}

func (s *Service) patientPayout(ctx context.Context, doctor *model.Doctor, patient *model.Patient, rate decimal.Decimal, month model.ReferenceMonth) (*model.ExternalPayoutEntry, error) {
	performed, err := s.sessionRepo.CountCompletedInMonth(ctx, patient.ID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions for patient %s: %w", patient.ID, err)
	}

	if patient.IsFinalized() {
		if s.closureMonth(patient) != month {
			// The guarantee was (or will be) billed in the closure month;
			// a closed package generates nothing in any other month.
			return nil, nil
		}
		paid := s.cfg.GuaranteedSessions
		return &model.ExternalPayoutEntry{
			DoctorID:          doctor.ID,
			PatientID:         patient.ID,
			ReferenceMonth:    month,
			SessionsPerformed: performed,
			SessionsPaid:      paid,
			RatePerSession:    rate,
			Total:             rate.Mul(decimal.NewFromInt(int64(paid))).Round(2),
			GuaranteeApplied:  true,
			Status:            model.PayoutStatusCalculated,
		}, nil
	}

	if performed == 0 {
		return nil, nil
	}

	return &model.ExternalPayoutEntry{
		DoctorID:          doctor.ID,
		PatientID:         patient.ID,
		ReferenceMonth:    month,
		SessionsPerformed: performed,
		SessionsPaid:      performed,
		RatePerSession:    rate,
		Total:             rate.Mul(decimal.NewFromInt(int64(performed))).Round(2),
		GuaranteeApplied:  false,
		Status:            model.PayoutStatusCalculated,
	}, nil
}

// closureMonth is the month the guarantee is attributed to. Finalization
// timestamps are recorded on the status transition; rows that predate
// that column fall back to the patient's last update.
func (s *Service) closureMonth(patient *model.Patient) model.ReferenceMonth {
	if patient.FinalizedAt != nil {
		return model.MonthOf(*patient.FinalizedAt)
	}
	return model.MonthOf(patient.UpdatedAt)
}
