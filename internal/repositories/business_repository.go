package repositories

import (
	"context"
	"errors"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BusinessRepository struct {
	DB *pgxpool.Pool
}

func NewBusinessRepository(db *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{DB: db}
}

// Create inserts a new business profile
func (r *BusinessRepository) Create(ctx context.Context, b *models.Business) error {
	query := `
		INSERT INTO businesses(id, account_id, name, country)
		VALUES($1, $2, $3, $4)
		RETURNING created_at
	`

	return r.DB.QueryRow(ctx, query,
		b.ID,
		b.AccountID,
		b.Name,
		b.Country,
	).Scan(&b.CreatedAt)
}

// GetByID retrieves a business by its ID. A missing business returns (nil, nil).
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	query := `
		SELECT id, account_id, name, country, created_at
		FROM businesses
		WHERE id = $1
	`

	var b models.Business
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.AccountID,
		&b.Name,
		&b.Country,
		&b.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// ListByAccount retrieves all businesses owned by an account
func (r *BusinessRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Business, error) {
	query := `
		SELECT id, account_id, name, country, created_at
		FROM businesses
		WHERE account_id = $1
		ORDER BY name
	`

	rows, err := r.DB.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []*models.Business
	for rows.Next() {
		b := &models.Business{}
		err := rows.Scan(
			&b.ID,
			&b.AccountID,
			&b.Name,
			&b.Country,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}

	return businesses, nil
}
