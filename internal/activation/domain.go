package activation

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Token is a single-use activation token.
type Token struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at"`
}

// Domain errors.
var (
	ErrTokenNotFound = httpx.NewError(httpx.ErrNotFound,
		"The activation token was not found or has expired.",
		"Register again or request a new activation link.")
	ErrAlreadyActivated = httpx.NewError(httpx.ErrForbidden,
		"You can no longer use activation tokens.",
		"Log in with your account.")
)
