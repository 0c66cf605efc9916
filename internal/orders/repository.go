package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Repository defines persistence operations for customer orders. Soft-deleted
// orders are invisible to every read.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, customerID string, page shared.PageRequest) ([]Order, int, error)
	Update(ctx context.Context, o *Order) error
	SoftDelete(ctx context.Context, id string) (*Order, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `o.id::text, o.customer_id::text, o.start_date, o.end_date, o.status::text,
o.notes, o.location_refer, o.lat, o.lng, o.created_at, o.updated_at,
u.username, u.email, u.phone`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var c Customer
	err := row.Scan(&o.ID, &o.CustomerID, &o.StartDate, &o.EndDate, &o.Status,
		&o.Notes, &o.LocationRefer, &o.Lat, &o.Lng, &o.CreatedAt, &o.UpdatedAt,
		&c.Username, &c.Email, &c.Phone)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	o.Customer = &c
	return &o, nil
}

// Create inserts o and reloads it with its customer summary.
func (r *PGRepository) Create(ctx context.Context, o *Order) error {
	created, err := scanOrder(r.pool.QueryRow(ctx, `WITH o AS (
    INSERT INTO customer_order (customer_id, start_date, end_date, status, notes, location_refer, lat, lng)
    VALUES ($1, $2, $3, $4::customer_order_status, $5, $6, $7, $8)
    RETURNING *
)
SELECT `+orderColumns+` FROM o JOIN users u ON u.id = o.customer_id`,
		o.CustomerID, o.StartDate, o.EndDate, o.Status, o.Notes, o.LocationRefer, o.Lat, o.Lng))
	if err != nil {
		return err
	}
	*o = *created
	return nil
}

// FindByID loads a live order.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
FROM customer_order o JOIN users u ON u.id = o.customer_id
WHERE o.id = $1 AND o.deleted_at IS NULL`, id))
}

// List returns one page of live orders. An empty customerID lists every customer.
func (r *PGRepository) List(ctx context.Context, customerID string, page shared.PageRequest) ([]Order, int, error) {
	const where = `WHERE o.deleted_at IS NULL AND ($1 = '' OR o.customer_id::text = $1)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customer_order o `+where, customerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
FROM customer_order o JOIN users u ON u.id = o.customer_id
`+where+`
ORDER BY o.created_at DESC, o.id
LIMIT $2 OFFSET $3`, customerID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders := make([]Order, 0, page.Limit())
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update writes every mutable column of o.
func (r *PGRepository) Update(ctx context.Context, o *Order) error {
	updated, err := scanOrder(r.pool.QueryRow(ctx, `WITH o AS (
    UPDATE customer_order
    SET start_date = $2, end_date = $3, status = $4::customer_order_status, notes = $5,
        location_refer = $6, lat = $7, lng = $8, updated_at = timezone('utc', now())
    WHERE id = $1 AND deleted_at IS NULL
    RETURNING *
)
SELECT `+orderColumns+` FROM o JOIN users u ON u.id = o.customer_id`,
		o.ID, o.StartDate, o.EndDate, o.Status, o.Notes, o.LocationRefer, o.Lat, o.Lng))
	if err != nil {
		return err
	}
	*o = *updated
	return nil
}

// SoftDelete stamps deleted_at and returns the order's last state.
func (r *PGRepository) SoftDelete(ctx context.Context, id string) (*Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `WITH o AS (
    UPDATE customer_order
    SET deleted_at = timezone('utc', now()), updated_at = timezone('utc', now())
    WHERE id = $1 AND deleted_at IS NULL
    RETURNING *
)
SELECT `+orderColumns+` FROM o JOIN users u ON u.id = o.customer_id`, id))
}

var _ Repository = (*PGRepository)(nil)
