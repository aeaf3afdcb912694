package repositories

import (
	"context"

	"frontdesk-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProvisionOrderRepository struct {
	DB *pgxpool.Pool
}

func NewProvisionOrderRepository(db *pgxpool.Pool) *ProvisionOrderRepository {
	return &ProvisionOrderRepository{DB: db}
}

// Create inserts a new provisioning order in pending status
func (r *ProvisionOrderRepository) Create(ctx context.Context, order *models.ProvisionOrder) error {
	query := `
		INSERT INTO provision_orders(business_id, provider, phone_number, area_code, status)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRow(ctx, query,
		order.BusinessID,
		order.Provider,
		order.PhoneNumber,
		order.AreaCode,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// HasPendingForNumber reports whether an unfinished order already exists for
// a specific number. Used to reject duplicate submissions.
func (r *ProvisionOrderRepository) HasPendingForNumber(ctx context.Context, phoneNumber string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM provision_orders
			WHERE phone_number = $1 AND status = $2
		)
	`

	var exists bool
	err := r.DB.QueryRow(ctx, query, phoneNumber, models.OrderStatusPending).Scan(&exists)
	return exists, err
}

// UpdateStatus moves an order to a new status
func (r *ProvisionOrderRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	query := `
		UPDATE provision_orders
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	_, err := r.DB.Exec(ctx, query, id, status)
	return err
}

// ListByBusiness retrieves orders for a business, newest first
func (r *ProvisionOrderRepository) ListByBusiness(ctx context.Context, businessID string) ([]*models.ProvisionOrder, error) {
	query := `
		SELECT id, business_id, provider, phone_number, area_code, status, created_at, updated_at
		FROM provision_orders
		WHERE business_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.ProvisionOrder
	for rows.Next() {
		o := &models.ProvisionOrder{}
		err := rows.Scan(
			&o.ID,
			&o.BusinessID,
			&o.Provider,
			&o.PhoneNumber,
			&o.AreaCode,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}
