package shared

import (
	"errors"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

var (
	// ErrSessionNotFound indicates an unknown or expired session token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = httpx.NewError(httpx.ErrUnauthorized,
		"The email or password is incorrect.",
		"Check your credentials and try again.")
	// ErrInvalidSession is returned to clients carrying a session cookie that no longer resolves.
	ErrInvalidSession = httpx.NewError(httpx.ErrUnauthorized,
		"The user does not have an active session.",
		"Check that the user is logged in and try again.")
)
