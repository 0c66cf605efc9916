package devices

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentdesk/rentdesk/internal/platform/db"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// Repository defines persistence operations for devices.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	FindByID(ctx context.Context, id string) (*Device, error)
	FindByUTID(ctx context.Context, utid string) (*Device, error)
	FindBySerial(ctx context.Context, serial string) (*Device, error)
	List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Device, int, error)
	Update(ctx context.Context, d *Device) error
	Delete(ctx context.Context, id string) (*Device, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const deviceColumns = `id::text, email_acc, utid_device, serial_number, serial_number_router, model,
provider, tracker_code, status, notes, created_at, updated_at`

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.EmailAcc, &d.UTIDDevice, &d.SerialNumber, &d.SerialNumberRouter, &d.Model,
		&d.Provider, &d.TrackerCode, &d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts d and fills its generated columns.
func (r *PGRepository) Create(ctx context.Context, d *Device) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO devices
    (email_acc, utid_device, serial_number, serial_number_router, model, provider, tracker_code, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+deviceColumns,
		d.EmailAcc, d.UTIDDevice, d.SerialNumber, d.SerialNumberRouter, d.Model, d.Provider, d.TrackerCode, d.Status, d.Notes)
	created, err := scanDevice(row)
	if err != nil {
		return mapUniqueViolation(err)
	}
	*d = *created
	return nil
}

// FindByID loads a device.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Device, error) {
	return scanDevice(r.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
}

// FindByUTID loads a device by UTID, ignoring case.
func (r *PGRepository) FindByUTID(ctx context.Context, utid string) (*Device, error) {
	return scanDevice(r.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE LOWER(utid_device) = LOWER($1) LIMIT 1`, utid))
}

// FindBySerial loads a device by serial number, ignoring case.
func (r *PGRepository) FindBySerial(ctx context.Context, serial string) (*Device, error) {
	return scanDevice(r.pool.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE LOWER(serial_number) = LOWER($1) LIMIT 1`, serial))
}

// List returns one page of devices and the total matching count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Device, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices WHERE ($1 = '' OR status = $1)`, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+deviceColumns+` FROM devices
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`, filter.Status, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	devices := make([]Device, 0, page.Limit())
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return devices, total, nil
}

// Update writes every mutable column of d.
func (r *PGRepository) Update(ctx context.Context, d *Device) error {
	row := r.pool.QueryRow(ctx, `UPDATE devices
SET email_acc = $2, utid_device = $3, serial_number = $4, serial_number_router = $5, model = $6,
    provider = $7, tracker_code = $8, status = $9, notes = $10, updated_at = timezone('utc', now())
WHERE id = $1
RETURNING `+deviceColumns,
		d.ID, d.EmailAcc, d.UTIDDevice, d.SerialNumber, d.SerialNumberRouter, d.Model, d.Provider, d.TrackerCode, d.Status, d.Notes)
	updated, err := scanDevice(row)
	if err != nil {
		return mapUniqueViolation(err)
	}
	*d = *updated
	return nil
}

// Delete removes a device and returns its last state.
func (r *PGRepository) Delete(ctx context.Context, id string) (*Device, error) {
	return scanDevice(r.pool.QueryRow(ctx, `DELETE FROM devices WHERE id = $1 RETURNING `+deviceColumns, id))
}

func mapUniqueViolation(err error) error {
	constraint, ok := db.IsUniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(constraint, "utid"):
		return ErrUTIDTaken
	case strings.Contains(constraint, "serial"):
		return ErrSerialTaken
	default:
		return err
	}
}

var _ Repository = (*PGRepository)(nil)
