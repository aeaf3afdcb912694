package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"frontdesk-backend/internal/acquisition"
	"frontdesk-backend/internal/models"
	"frontdesk-backend/internal/repositories"
)

// SessionStore is the persisted checkout-session port. Consume is single
// shot; a second consume for the same session fails.
type SessionStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	Consume(ctx context.Context, sessionID, outcome string) (*models.CheckoutSession, error)
}

// AcquisitionService fronts the draft workflow and reconciles checkout
// outcomes that arrive out-of-band, via the return redirect or the
// provider webhook.
type AcquisitionService struct {
	Workflow    *acquisition.Workflow
	Sessions    SessionStore
	Provisioner acquisition.Provisioner
}

func NewAcquisitionService(workflow *acquisition.Workflow, sessions SessionStore, provisioner acquisition.Provisioner) *AcquisitionService {
	return &AcquisitionService{
		Workflow:    workflow,
		Sessions:    sessions,
		Provisioner: provisioner,
	}
}

// HandleReturn resolves the browser's return trip from the checkout page.
// The session outcome is consumed exactly once; when the webhook already
// consumed it, the stored outcome still drives the draft's result mode.
func (s *AcquisitionService) HandleReturn(ctx context.Context, draftID, outcomeParam string) (models.DraftView, error) {
	outcome := normalizeOutcome(outcomeParam)

	session, err := s.Sessions.GetBySessionID(ctx, draftID)
	if err != nil {
		return models.DraftView{}, fmt.Errorf("failed to load checkout session: %w", err)
	}
	if session == nil {
		return models.DraftView{}, acquisition.ErrDraftNotFound
	}

	// A webhook may have landed first with the provider's authoritative
	// outcome; prefer it over the redirect parameter.
	if stored := models.CheckoutOutcome(session.Outcome); stored != models.OutcomeNone && stored != "" {
		outcome = stored
	}

	consumed, err := s.Sessions.Consume(ctx, draftID, string(outcome))
	if errors.Is(err, repositories.ErrSessionConsumed) {
		// Already reconciled; re-render result mode without replaying anything.
		return s.Workflow.Reconcile(draftID, outcome), nil
	}
	if err != nil {
		return models.DraftView{}, fmt.Errorf("failed to consume checkout outcome: %w", err)
	}

	return s.applyOutcome(ctx, consumed, outcome), nil
}

// ApplySessionOutcome reconciles a webhook-reported outcome. The session is
// consumed here so a later return trip cannot replay it.
func (s *AcquisitionService) ApplySessionOutcome(ctx context.Context, session *models.CheckoutSession, outcome models.CheckoutOutcome) (models.DraftView, error) {
	consumed, err := s.Sessions.Consume(ctx, session.SessionID, string(outcome))
	if errors.Is(err, repositories.ErrSessionConsumed) {
		return s.Workflow.Reconcile(session.SessionID, outcome), nil
	}
	if err != nil {
		return models.DraftView{}, fmt.Errorf("failed to consume checkout outcome: %w", err)
	}

	return s.applyOutcome(ctx, consumed, outcome), nil
}

// applyOutcome fulfills a paid number and moves the draft to result mode.
func (s *AcquisitionService) applyOutcome(ctx context.Context, session *models.CheckoutSession, outcome models.CheckoutOutcome) models.DraftView {
	if outcome == models.OutcomeSuccess {
		req := models.ProvisionRequest{
			Provider:    models.ProvisionCheckout,
			BusinessID:  session.BusinessID,
			PhoneNumber: session.PhoneNumber,
		}
		if err := s.Provisioner.Provision(ctx, req); err != nil {
			// The payment succeeded; fulfillment must not be dropped quietly.
			log.Printf("[Acquisition] Fulfillment failed for session %s (%s): %v",
				session.SessionID, session.PhoneNumber, err)
		}
	}
	return s.Workflow.Reconcile(session.SessionID, outcome)
}

func normalizeOutcome(param string) models.CheckoutOutcome {
	switch param {
	case "success", "paid":
		return models.OutcomeSuccess
	default:
		return models.OutcomeCancelled
	}
}
