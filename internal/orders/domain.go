package orders

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Customer is the account summary embedded in order responses.
type Customer struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Order is a customer's request to rent a kit for a period.
type Order struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id" validate:"required"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required"`
	Status        string    `json:"status" validate:"required,oneof=pending approved rejected completed canceled"`
	Notes         *string   `json:"notes"`
	LocationRefer *string   `json:"location_refer"`
	Lat           *float64  `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64  `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Customer      *Customer `json:"customer,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnerID implements authz.Owned: an order belongs to its customer.
func (o *Order) OwnerID() (string, bool) {
	if o == nil || o.CustomerID == "" {
		return "", false
	}
	return o.CustomerID, true
}

var _ authz.Owned = (*Order)(nil)

// CreateOrderRequest is the payload accepted by POST /customerorder.
type CreateOrderRequest struct {
	CustomerID    string     `json:"customer_id" validate:"required,uuid"`
	StartDate     *time.Time `json:"start_date" validate:"required"`
	EndDate       *time.Time `json:"end_date" validate:"required"`
	Status        *string    `json:"status" validate:"omitempty,oneof=pending approved rejected completed canceled"`
	Notes         *string    `json:"notes"`
	LocationRefer *string    `json:"location_refer"`
	Lat           *float64   `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64   `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

type orderPatch struct {
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Status        *string    `json:"status"`
	Notes         *string    `json:"notes"`
	LocationRefer *string    `json:"location_refer"`
	Lat           *float64   `json:"lat"`
	Lng           *float64   `json:"lng"`
}

var nullableFields = []string{"status", "notes", "location_refer", "lat", "lng"}

// Domain errors.
var (
	ErrOrderNotFound = httpx.NewError(httpx.ErrNotFound,
		"The customer order was not found.",
		"Check the customer order id and try again.")
	ErrCustomerNotFound = httpx.NewError(httpx.ErrNotFound,
		"The customer id was not found.",
		"Check that the id is spelled correctly.")
	ErrEndBeforeStart = httpx.NewError(httpx.ErrValidation,
		"The end date cannot be earlier than the start date.",
		"Check the dates and try again.")
	ErrOrderLocked = httpx.NewError(httpx.ErrForbidden,
		"You are no longer permitted to update this order.",
		"Only pending orders can be updated by the customer.")
	ErrStatusNotPermitted = httpx.NewError(httpx.ErrForbidden,
		"You do not have permission to set the status of this order.",
		`Remove the field "status", check the feature "update:orders:status" or whether the order belongs to you.`)
)
