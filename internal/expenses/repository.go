package expenses

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Repository defines persistence operations for expenses.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	FindByID(ctx context.Context, id string) (*Expense, error)
	List(ctx context.Context, page shared.PageRequest) ([]Expense, int, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const expenseColumns = `id::text, description, amount_in_cents, category, paid_at, due_date_at, created_at, updated_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	if err := row.Scan(&e.ID, &e.Description, &e.AmountInCents, &e.Category, &e.PaidAt, &e.DueDateAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts e and fills its generated columns.
func (r *PGRepository) Create(ctx context.Context, e *Expense) error {
	created, err := scanExpense(r.pool.QueryRow(ctx, `INSERT INTO financial_expenses
    (description, amount_in_cents, category, paid_at, due_date_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+expenseColumns,
		e.Description, e.AmountInCents, e.Category, e.PaidAt, e.DueDateAt))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

// FindByID loads an expense.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM financial_expenses WHERE id = $1`, id))
}

// List returns one page of expenses, most recent first.
func (r *PGRepository) List(ctx context.Context, page shared.PageRequest) ([]Expense, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM financial_expenses`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+expenseColumns+` FROM financial_expenses
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	expenses := make([]Expense, 0, page.Limit())
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// Update writes every mutable column of e.
func (r *PGRepository) Update(ctx context.Context, e *Expense) error {
	updated, err := scanExpense(r.pool.QueryRow(ctx, `UPDATE financial_expenses
SET description = $2, amount_in_cents = $3, category = $4, paid_at = $5, due_date_at = $6,
    updated_at = timezone('utc', now())
WHERE id = $1
RETURNING `+expenseColumns,
		e.ID, e.Description, e.AmountInCents, e.Category, e.PaidAt, e.DueDateAt))
	if err != nil {
		return err
	}
	*e = *updated
	return nil
}

// Delete removes an expense.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM financial_expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
