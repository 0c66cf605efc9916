package expenses

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Categories lists the accepted expense categories.
var Categories = []string{
	"utilities", "rent", "payroll", "taxes", "maintenance",
	"supplies", "services", "transport", "marketing", "others",
}

// Expense is an operating cost of the rental business.
type Expense struct {
	ID            string     `json:"id"`
	Description   string     `json:"description" validate:"required"`
	AmountInCents int64      `json:"amount_in_cents" validate:"gte=0"`
	Category      *string    `json:"category" validate:"omitempty,oneof=utilities rent payroll taxes maintenance supplies services transport marketing others"`
	PaidAt        *time.Time `json:"paid_at"`
	DueDateAt     *time.Time `json:"due_date_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateExpenseRequest is the payload accepted by POST /financialexpenses.
type CreateExpenseRequest struct {
	Description   string     `json:"description" validate:"required"`
	AmountInCents *int64     `json:"amount_in_cents" validate:"required,gte=0"`
	Category      *string    `json:"category" validate:"omitempty,oneof=utilities rent payroll taxes maintenance supplies services transport marketing others"`
	PaidAt        *time.Time `json:"paid_at"`
	DueDateAt     *time.Time `json:"due_date_at"`
}

type expensePatch struct {
	Description   *string    `json:"description"`
	AmountInCents *int64     `json:"amount_in_cents"`
	Category      *string    `json:"category"`
	PaidAt        *time.Time `json:"paid_at"`
	DueDateAt     *time.Time `json:"due_date_at"`
}

var nullableFields = []string{"category", "paid_at", "due_date_at"}

// Domain errors.
var (
	ErrExpenseNotFound = httpx.NewError(httpx.ErrNotFound,
		"The expense was not found.",
		"Check that the id is spelled correctly.")
	ErrNothingToUpdate = httpx.NewError(httpx.ErrValidation,
		"No value was provided for the update.",
		"Send at least one valid field to perform this operation.")
)
