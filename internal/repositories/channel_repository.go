package repositories

import (
	"context"
	"errors"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChannelRepository struct {
	DB *pgxpool.Pool
}

func NewChannelRepository(db *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{DB: db}
}

// Get retrieves the channel record for an account and kind. A missing record
// is not an error; it returns (nil, nil).
func (r *ChannelRepository) Get(ctx context.Context, accountID string, kind models.ChannelKind) (*models.NotificationChannel, error) {
	query := `
		SELECT id, account_id, kind, phone_number, verified, enabled, created_at, updated_at
		FROM notification_channels
		WHERE account_id = $1 AND kind = $2
	`

	var ch models.NotificationChannel
	err := r.DB.QueryRow(ctx, query, accountID, kind).Scan(
		&ch.ID,
		&ch.AccountID,
		&ch.Kind,
		&ch.PhoneNumber,
		&ch.Verified,
		&ch.Enabled,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ch, nil
}

// ListByAccount retrieves all channel records for an account.
func (r *ChannelRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.NotificationChannel, error) {
	query := `
		SELECT id, account_id, kind, phone_number, verified, enabled, created_at, updated_at
		FROM notification_channels
		WHERE account_id = $1
		ORDER BY kind
	`

	rows, err := r.DB.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*models.NotificationChannel
	for rows.Next() {
		ch := &models.NotificationChannel{}
		err := rows.Scan(
			&ch.ID,
			&ch.AccountID,
			&ch.Kind,
			&ch.PhoneNumber,
			&ch.Verified,
			&ch.Enabled,
			&ch.CreatedAt,
			&ch.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// UpsertPending stores an unverified candidate number for the channel.
// A previously verified number is replaced and the channel drops back to
// unverified until the new number confirms a code.
func (r *ChannelRepository) UpsertPending(ctx context.Context, accountID string, kind models.ChannelKind, phone string) error {
	query := `
		INSERT INTO notification_channels (account_id, kind, phone_number, verified, enabled)
		VALUES ($1, $2, $3, FALSE, FALSE)
		ON CONFLICT (account_id, kind)
		DO UPDATE SET phone_number = $3, verified = FALSE, enabled = FALSE, updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.DB.Exec(ctx, query, accountID, kind, phone)
	return err
}

// MarkVerified flips the channel to verified and enables delivery.
func (r *ChannelRepository) MarkVerified(ctx context.Context, accountID string, kind models.ChannelKind) error {
	query := `
		UPDATE notification_channels
		SET verified = TRUE, enabled = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND kind = $2
	`

	_, err := r.DB.Exec(ctx, query, accountID, kind)
	return err
}

// SetEnabled toggles delivery on a verified channel.
func (r *ChannelRepository) SetEnabled(ctx context.Context, accountID string, kind models.ChannelKind, enabled bool) error {
	query := `
		UPDATE notification_channels
		SET enabled = $3, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = $1 AND kind = $2 AND verified = TRUE
	`

	tag, err := r.DB.Exec(ctx, query, accountID, kind, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("channel is not verified")
	}
	return nil
}

// Remove deletes the channel record for an account and kind.
func (r *ChannelRepository) Remove(ctx context.Context, accountID string, kind models.ChannelKind) error {
	query := `DELETE FROM notification_channels WHERE account_id = $1 AND kind = $2`
	_, err := r.DB.Exec(ctx, query, accountID, kind)
	return err
}
