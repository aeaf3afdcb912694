package repositories

import (
	"context"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PhoneNumberRepository struct {
	DB *pgxpool.Pool
}

func NewPhoneNumberRepository(db *pgxpool.Pool) *PhoneNumberRepository {
	return &PhoneNumberRepository{DB: db}
}

// Create records a number assigned to a business
func (r *PhoneNumberRepository) Create(ctx context.Context, n *models.PhoneNumber) error {
	query := `
		INSERT INTO phone_numbers(business_id, phone_number, number_type, source, monthly_price)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return r.DB.QueryRow(ctx, query,
		n.BusinessID,
		n.PhoneNumber,
		n.NumberType,
		n.Source,
		n.MonthlyPrice,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListByBusiness retrieves the numbers assigned to a business
func (r *PhoneNumberRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.PhoneNumber, error) {
	query := `
		SELECT id, business_id, phone_number, number_type, source, monthly_price, created_at
		FROM phone_numbers
		WHERE business_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []*models.PhoneNumber
	for rows.Next() {
		n := &models.PhoneNumber{}
		err := rows.Scan(
			&n.ID,
			&n.BusinessID,
			&n.PhoneNumber,
			&n.NumberType,
			&n.Source,
			&n.MonthlyPrice,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}

	return numbers, nil
}

// ExistsByNumber reports whether a number is already assigned to any business
func (r *PhoneNumberRepository) ExistsByNumber(ctx context.Context, phoneNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM phone_numbers WHERE phone_number = $1)`

	var exists bool
	err := r.DB.QueryRow(ctx, query, phoneNumber).Scan(&exists)
	return exists, err
}
