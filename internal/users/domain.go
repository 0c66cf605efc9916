package users

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// User is a platform account. It doubles as the authenticated principal.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username" validate:"required,max=30"`
	Email     string    `json:"email" validate:"required,email,max=254"`
	Password  string    `json:"-"`
	Features  []string  `json:"features"`
	CPF       string    `json:"cpf" validate:"required,max=14"`
	Phone     string    `json:"phone" validate:"required,max=20"`
	Address   string    `json:"address" validate:"required"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID implements authz.Principal.
func (u *User) GetID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

// GetFeatures implements authz.Principal.
func (u *User) GetFeatures() []string {
	if u == nil {
		return nil
	}
	return u.Features
}

// OwnerID implements authz.Owned: an account belongs to itself.
func (u *User) OwnerID() (string, bool) {
	if u == nil || u.ID == "" {
		return "", false
	}
	return u.ID, true
}

var (
	_ authz.Principal = (*User)(nil)
	_ authz.Owned     = (*User)(nil)
)

// CreateUserRequest is the payload accepted by POST /users.
type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,max=30"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	CPF      string  `json:"cpf" validate:"required,max=14"`
	Phone    string  `json:"phone" validate:"required,max=20"`
	Address  string  `json:"address" validate:"required"`
	Notes    *string `json:"notes"`
}

type userPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	CPF      *string `json:"cpf"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SetRoleRequest is the payload accepted by PUT /users/{username}/role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// Domain errors.
var (
	ErrUserNotFound = httpx.NewError(httpx.ErrNotFound,
		"The user was not found.",
		"Check that the username is spelled correctly.")
	ErrUsernameTaken = httpx.NewError(httpx.ErrValidation,
		"The username is already in use.",
		"Use another username to perform this operation.")
	ErrEmailTaken = httpx.NewError(httpx.ErrValidation,
		"The email is already in use.",
		"Use another email to perform this operation.")
	ErrCPFTaken = httpx.NewError(httpx.ErrValidation,
		"The CPF is already in use.",
		"Use another CPF to perform this operation.")
	ErrUnknownRole = httpx.NewError(httpx.ErrValidation,
		"The role is not recognised.",
		"Use one of the platform roles.")
)
