package authorization

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saudemente/clinic-api/internal/email"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/repository"
	"github.com/saudemente/clinic-api/internal/service/event"
	apperrors "github.com/saudemente/clinic-api/pkg/errors"
)

// ReportReleaser re-checks the patient's report release gate after an
// approval changes authorization state, releasing the report when both
// kinds are now approved.
type ReportReleaser interface {
	ReleaseIfEligible(ctx context.Context, patientID uuid.UUID) error
}

// Service manages authorization lifecycle. Authorizations start pending
// and inactive for revenue purposes until an admin approves them;
// rejection deactivates the row rather than deleting it, so the audit
// trail survives.
type Service struct {
	authRepo    repository.AuthorizationRepository
	patientRepo repository.PatientRepository
	events      *event.Service
	notifier    email.Notifier
	reports     ReportReleaser
}

func NewService(
	authRepo repository.AuthorizationRepository,
	patientRepo repository.PatientRepository,
	events *event.Service,
	notifier email.Notifier,
	reports ReportReleaser,
) *Service {
	return &Service{
		authRepo:    authRepo,
		patientRepo: patientRepo,
		events:      events,
		notifier:    notifier,
		reports:     reports,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAuthorizationRequest) (*model.Authorization, error) {
	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !req.Value.IsPositive() {
		return nil, apperrors.NewBadRequest("authorization value must be positive", nil)
	}

	auth := &model.Authorization{
		PatientID: req.PatientID,
		Kind:      req.Kind,
		Code:      req.Code,
		Value:     req.Value,
		Active:    true,
	}
	if err := s.authRepo.Create(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to create authorization: %w", err)
	}

	s.record(ctx, model.EventAuthorizationCreated, auth)

	if s.notifier != nil {
		if err := s.notifier.SendAuthorizationPending("", patient.Name, auth.Code); err != nil {
			log.Warn().Err(err).Str("authorization_id", auth.ID.String()).Msg("failed to send pending authorization notice")
		}
	}

	return auth, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Authorization, error) {
	return s.authRepo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AuthorizationFilters) ([]*model.Authorization, error) {
	return s.authRepo.List(ctx, filters)
}

// Approve marks the authorization approved, stamping the approver and
// the approval time. The approval month is what the revenue aggregator
// attributes the value to. If this was the last kind the patient was
// missing, the report is released in the same step.
func (s *Service) Approve(ctx context.Context, id, approvedBy uuid.UUID) (*model.Authorization, error) {
	auth, err := s.authRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.Active {
		return nil, apperrors.NewConflict("cannot approve a rejected authorization", nil)
	}
	if auth.Approved {
		return nil, apperrors.NewConflict("authorization is already approved", nil)
	}

	approved, err := s.authRepo.Approve(ctx, id, approvedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to approve authorization: %w", err)
	}

	s.record(ctx, model.EventAuthorizationApproved, approved)

	if s.reports != nil {
		if err := s.reports.ReleaseIfEligible(ctx, approved.PatientID); err != nil {
			log.Warn().Err(err).Str("patient_id", approved.PatientID.String()).Msg("failed to re-check report release gate")
		}
	}

	return approved, nil
}

// Reject deactivates the authorization. Its value no longer counts
// toward revenue and the patient's report release gate closes if this
// was the only approved authorization of its kind.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	auth, err := s.authRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !auth.Active {
		return apperrors.NewConflict("authorization is already rejected", nil)
	}

	if err := s.authRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to reject authorization: %w", err)
	}

	s.record(ctx, model.EventAuthorizationRejected, map[string]any{
		"authorization_id": id,
		"patient_id":       auth.PatientID,
	})

	return nil
}

// BatchApprove approves the given authorizations, skipping ones that
// fail and reporting per-id results.
func (s *Service) BatchApprove(ctx context.Context, req *model.BatchApproveRequest, approvedBy uuid.UUID) *model.BatchApproveResult {
	result := &model.BatchApproveResult{}
	for _, id := range req.AuthorizationIDs {
		if _, err := s.Approve(ctx, id, approvedBy); err != nil {
			log.Warn().Err(err).Str("authorization_id", id.String()).Msg("batch approve item failed")
			result.Failed = append(result.Failed, model.BatchApproveFailure{
				AuthorizationID: id,
				Reason:          err.Error(),
			})
			continue
		}
		result.Approved = append(result.Approved, id)
	}
	return result
}

func (s *Service) record(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
