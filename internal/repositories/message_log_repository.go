package repositories

import (
	"context"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageLogRepository struct {
	DB *pgxpool.Pool
}

func NewMessageLogRepository(db *pgxpool.Pool) *MessageLogRepository {
	return &MessageLogRepository{DB: db}
}

// Create inserts a new message log entry
func (r *MessageLogRepository) Create(ctx context.Context, log *models.MessageLog) error {
	query := `
		INSERT INTO message_logs(account_id, phone, channel, message_type, message, status, error_message, reference_id)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		log.AccountID,
		log.Phone,
		log.Channel,
		log.MessageType,
		log.Message,
		log.Status,
		log.ErrorMessage,
		log.ReferenceID,
	).Scan(&log.ID, &log.CreatedAt)
}

// ListByAccount retrieves recent message logs for an account, newest first
func (r *MessageLogRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.MessageLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account_id, phone, channel, message_type, message, status, error_message, reference_id, created_at
		FROM message_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.MessageLog
	for rows.Next() {
		l := &models.MessageLog{}
		err := rows.Scan(
			&l.ID,
			&l.AccountID,
			&l.Phone,
			&l.Channel,
			&l.MessageType,
			&l.Message,
			&l.Status,
			&l.ErrorMessage,
			&l.ReferenceID,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, nil
}
