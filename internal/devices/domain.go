package devices

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Device statuses.
const (
	StatusAvailable   = "available"
	StatusRented      = "rented"
	StatusMaintenance = "maintenance"
	StatusBlocked     = "blocked"
)

// Device is a rentable satellite kit.
type Device struct {
	ID                 string    `json:"id"`
	EmailAcc           string    `json:"email_acc" validate:"required,email,max=254"`
	UTIDDevice         string    `json:"utid_device" validate:"required,max=254"`
	SerialNumber       string    `json:"serial_number" validate:"required,max=254"`
	SerialNumberRouter string    `json:"serial_number_router" validate:"required,max=254"`
	Model              string    `json:"model" validate:"required,max=100"`
	Provider           *string   `json:"provider" validate:"omitempty,max=254"`
	TrackerCode        *string   `json:"tracker_code" validate:"omitempty,max=254"`
	Status             string    `json:"status" validate:"required,oneof=available rented maintenance blocked"`
	Notes              *string   `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateDeviceRequest is the payload accepted by POST /devices.
type CreateDeviceRequest struct {
	EmailAcc           string  `json:"email_acc" validate:"required,email,max=254"`
	UTIDDevice         string  `json:"utid_device" validate:"required,max=254"`
	SerialNumber       string  `json:"serial_number" validate:"required,max=254"`
	SerialNumberRouter string  `json:"serial_number_router" validate:"required,max=254"`
	Model              string  `json:"model" validate:"required,max=100"`
	Provider           *string `json:"provider"`
	TrackerCode        *string `json:"tracker_code"`
	Status             string  `json:"status" validate:"omitempty,oneof=available rented maintenance blocked"`
	Notes              *string `json:"notes"`
}

type devicePatch struct {
	EmailAcc           *string `json:"email_acc"`
	UTIDDevice         *string `json:"utid_device"`
	SerialNumber       *string `json:"serial_number"`
	SerialNumberRouter *string `json:"serial_number_router"`
	Model              *string `json:"model"`
	Provider           *string `json:"provider"`
	TrackerCode        *string `json:"tracker_code"`
	Status             *string `json:"status"`
	Notes              *string `json:"notes"`
}

// ListFilter narrows GET /devices.
type ListFilter struct {
	Status string `json:"status" validate:"omitempty,oneof=available rented maintenance blocked"`
}

var nullableFields = []string{"provider", "tracker_code", "notes"}

// Domain errors.
var (
	ErrDeviceNotFound = httpx.NewError(httpx.ErrNotFound,
		"The device was not found.",
		"Check that the id is spelled correctly.")
	ErrUTIDTaken = httpx.NewError(httpx.ErrValidation,
		"The UTID is already in use.",
		"Use another UTID to perform this operation.")
	ErrSerialTaken = httpx.NewError(httpx.ErrValidation,
		"The serial number is already in use.",
		"Use another serial number to perform this operation.")
	ErrUpdateNotPermitted = httpx.NewError(httpx.ErrForbidden,
		"You do not have permission to update this device's data.",
		"Contact support if you need help.")
)
