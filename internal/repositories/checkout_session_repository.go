package repositories

import (
	"context"
	"errors"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSessionConsumed is returned when a session outcome was already
// reconciled once and a second read is attempted.
var ErrSessionConsumed = errors.New("checkout session outcome already consumed")

type CheckoutSessionRepository struct {
	DB *pgxpool.Pool
}

func NewCheckoutSessionRepository(db *pgxpool.Pool) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{DB: db}
}

// Create inserts a new handed-off checkout session
func (r *CheckoutSessionRepository) Create(ctx context.Context, s *models.CheckoutSession) error {
	query := `
		INSERT INTO checkout_sessions(session_id, business_id, phone_number, provider_ref, checkout_url, outcome)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		s.SessionID,
		s.BusinessID,
		s.PhoneNumber,
		s.ProviderRef,
		s.CheckoutURL,
		s.Outcome,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetBySessionID retrieves a session by its draft-scoped session ID.
// A missing session returns (nil, nil).
func (r *CheckoutSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	query := `
		SELECT id, session_id, business_id, phone_number, provider_ref, checkout_url, outcome, reconciled, created_at, reconciled_at
		FROM checkout_sessions
		WHERE session_id = $1
	`

	var s models.CheckoutSession
	err := r.DB.QueryRow(ctx, query, sessionID).Scan(
		&s.ID,
		&s.SessionID,
		&s.BusinessID,
		&s.PhoneNumber,
		&s.ProviderRef,
		&s.CheckoutURL,
		&s.Outcome,
		&s.Reconciled,
		&s.CreatedAt,
		&s.ReconciledAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// SetOutcomeByProviderRef records the provider-reported outcome on a session
// that has not been reconciled yet. Used by the webhook path.
func (r *CheckoutSessionRepository) SetOutcomeByProviderRef(ctx context.Context, providerRef, outcome string) (*models.CheckoutSession, error) {
	query := `
		UPDATE checkout_sessions
		SET outcome = $2
		WHERE provider_ref = $1 AND reconciled = FALSE
		RETURNING id, session_id, business_id, phone_number, provider_ref, checkout_url, outcome, reconciled, created_at, reconciled_at
	`

	var s models.CheckoutSession
	err := r.DB.QueryRow(ctx, query, providerRef, outcome).Scan(
		&s.ID,
		&s.SessionID,
		&s.BusinessID,
		&s.PhoneNumber,
		&s.ProviderRef,
		&s.CheckoutURL,
		&s.Outcome,
		&s.Reconciled,
		&s.CreatedAt,
		&s.ReconciledAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Consume marks the session outcome as reconciled and returns the session.
// The guard on reconciled makes this a single-shot read: a second call for
// the same session returns ErrSessionConsumed.
func (r *CheckoutSessionRepository) Consume(ctx context.Context, sessionID, outcome string) (*models.CheckoutSession, error) {
	query := `
		UPDATE checkout_sessions
		SET outcome = $2, reconciled = TRUE, reconciled_at = CURRENT_TIMESTAMP
		WHERE session_id = $1 AND reconciled = FALSE
		RETURNING id, session_id, business_id, phone_number, provider_ref, checkout_url, outcome, reconciled, created_at, reconciled_at
	`

	var s models.CheckoutSession
	err := r.DB.QueryRow(ctx, query, sessionID, outcome).Scan(
		&s.ID,
		&s.SessionID,
		&s.BusinessID,
		&s.PhoneNumber,
		&s.ProviderRef,
		&s.CheckoutURL,
		&s.Outcome,
		&s.Reconciled,
		&s.CreatedAt,
		&s.ReconciledAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionConsumed
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}
