package repositories

import (
	"context"
	"time"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VerificationCodeRepository struct {
	DB *pgxpool.Pool
}

func NewVerificationCodeRepository(db *pgxpool.Pool) *VerificationCodeRepository {
	return &VerificationCodeRepository{DB: db}
}

// Create inserts a new verification code record
func (r *VerificationCodeRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes(account_id, kind, phone, code, expires_at)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		code.AccountID,
		code.Kind,
		code.Phone,
		code.Code,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

// GetLatest retrieves the most recent code for an account and channel kind
func (r *VerificationCodeRepository) GetLatest(ctx context.Context, accountID string, kind models.ChannelKind) (*models.VerificationCode, error) {
	query := `
		SELECT id, account_id, kind, phone, code, created_at, expires_at, verified, attempts
		FROM verification_codes
		WHERE account_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var code models.VerificationCode
	err := r.DB.QueryRow(ctx, query, accountID, kind).Scan(
		&code.ID,
		&code.AccountID,
		&code.Kind,
		&code.Phone,
		&code.Code,
		&code.CreatedAt,
		&code.ExpiresAt,
		&code.Verified,
		&code.Attempts,
	)

	if err != nil {
		return nil, err
	}

	return &code, nil
}

// IncrementAttempts increments the verification attempt counter
func (r *VerificationCodeRepository) IncrementAttempts(ctx context.Context, id int) error {
	query := `UPDATE verification_codes SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.DB.Exec(ctx, query, id)
	return err
}

// MarkVerified marks a code as successfully confirmed
func (r *VerificationCodeRepository) MarkVerified(ctx context.Context, id int) error {
	query := `UPDATE verification_codes SET verified = TRUE WHERE id = $1`
	_, err := r.DB.Exec(ctx, query, id)
	return err
}

// CountRecentRequests counts code sends for an account within a time duration
func (r *VerificationCodeRepository) CountRecentRequests(ctx context.Context, accountID string, kind models.ChannelKind, duration time.Duration) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_codes
		WHERE account_id = $1 AND kind = $2 AND created_at > NOW() - $3::interval
	`

	var count int
	err := r.DB.QueryRow(ctx, query, accountID, kind, duration.String()).Scan(&count)
	return count, err
}

// CleanupExpiredCodes removes old code records (should be run as a background job)
func (r *VerificationCodeRepository) CleanupExpiredCodes(ctx context.Context) error {
	query := `DELETE FROM verification_codes WHERE expires_at < NOW() - INTERVAL '1 day'`
	_, err := r.DB.Exec(ctx, query)
	return err
}
