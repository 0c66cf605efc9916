package users

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByCPF(ctx context.Context, cpf string) (*User, error)
	Update(ctx context.Context, u *User) error
	SetFeatures(ctx context.Context, id string, features []string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id::text, username, email, password, features, cpf, phone, address, notes, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Features,
		&u.CPF, &u.Phone, &u.Address, &u.Notes, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Features == nil {
		u.Features = []string{}
	}
	return &u, nil
}

// Create inserts u and fills its generated columns.
func (r *PGRepository) Create(ctx context.Context, u *User) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (username, email, password, features, cpf, phone, address, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+userColumns,
		u.Username, u.Email, u.Password, u.Features, u.CPF, u.Phone, u.Address, u.Notes)
	created, err := scanUser(row)
	if err != nil {
		return mapUniqueViolation(err)
	}
	*u = *created
	return nil
}

// FindByID loads a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByUsername loads a user by username, ignoring case.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`, username))
}

// FindByEmail loads a user by email, ignoring case.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, email))
}

// FindByCPF loads a user by CPF.
func (r *PGRepository) FindByCPF(ctx context.Context, cpf string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE cpf = $1 LIMIT 1`, cpf))
}

// Update writes every mutable column of u.
func (r *PGRepository) Update(ctx context.Context, u *User) error {
	row := r.pool.QueryRow(ctx, `UPDATE users
SET username = $2, email = $3, password = $4, cpf = $5, phone = $6, address = $7, notes = $8,
    updated_at = timezone('utc', now())
WHERE id = $1
RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.Password, u.CPF, u.Phone, u.Address, u.Notes)
	updated, err := scanUser(row)
	if err != nil {
		return mapUniqueViolation(err)
	}
	*u = *updated
	return nil
}

// SetFeatures replaces the feature list of a user.
func (r *PGRepository) SetFeatures(ctx context.Context, id string, features []string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `UPDATE users
SET features = $2, updated_at = timezone('utc', now())
WHERE id = $1
RETURNING `+userColumns, id, features))
}

func mapUniqueViolation(err error) error {
	constraint, ok := db.IsUniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(constraint, "username"):
		return ErrUsernameTaken
	case strings.Contains(constraint, "email"):
		return ErrEmailTaken
	case strings.Contains(constraint, "cpf"):
		return ErrCPFTaken
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
