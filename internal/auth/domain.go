package auth

import (
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// LoginRequest is the payload accepted by POST /sessions.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ErrLoginNotPermitted is returned to accounts that exist but may not open sessions yet.
var ErrLoginNotPermitted = httpx.NewError(httpx.ErrForbidden,
	"You do not have permission to log in.",
	"Activate your account using the link sent by email.")
