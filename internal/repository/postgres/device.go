package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zenit-qa/zenit/internal/domain"
)

// DeviceRepository implements domain.DeviceRepository with PostgreSQL
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

type deviceRow struct {
	ID            uuid.UUID  `db:"id"`
	Name          string     `db:"name"`
	Type          string     `db:"type"`
	Status        string     `db:"status"`
	CheckedOutBy  []byte     `db:"checked_out_by"`
	CheckedOutAt  *time.Time `db:"checked_out_at"`
	Location      string     `db:"location"`
	AssignedTo    string     `db:"assigned_to"`
	AuditStatus   string     `db:"audit_status"`
	LastAuditDate *time.Time `db:"last_audit_date"`
	Accessories   []byte     `db:"accessories"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

const deviceColumns = `id, name, type, status, checked_out_by, checked_out_at, location, assigned_to,
	audit_status, last_audit_date, accessories, created_at, updated_at`

func (r *deviceRow) toDomain() (*domain.Device, error) {
	d := &domain.Device{
		ID:            r.ID,
		Name:          r.Name,
		Type:          domain.DeviceType(r.Type),
		Status:        domain.DeviceStatus(r.Status),
		CheckedOutAt:  r.CheckedOutAt,
		Location:      r.Location,
		AssignedTo:    r.AssignedTo,
		AuditStatus:   domain.AuditStatus(r.AuditStatus),
		LastAuditDate: r.LastAuditDate,
		Timestamps: domain.Timestamps{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
	}

	if len(r.CheckedOutBy) > 0 && string(r.CheckedOutBy) != "null" {
		var h domain.Holder
		if err := json.Unmarshal(r.CheckedOutBy, &h); err != nil {
			return nil, fmt.Errorf("decoding holder: %w", err)
		}
		d.CheckedOutBy = &h
	}
	if len(r.Accessories) > 0 {
		if err := json.Unmarshal(r.Accessories, &d.Accessories); err != nil {
			return nil, fmt.Errorf("decoding accessories: %w", err)
		}
	}

	return d, nil
}

func encodeDevice(d *domain.Device) (holder, accessories []byte, err error) {
	if d.CheckedOutBy != nil {
		if holder, err = json.Marshal(d.CheckedOutBy); err != nil {
			return nil, nil, err
		}
	}
	if accessories, err = json.Marshal(d.Accessories); err != nil {
		return nil, nil, err
	}
	return holder, accessories, nil
}

// Create inserts a new device
func (r *DeviceRepository) Create(ctx context.Context, d *domain.Device) error {
	holder, accessories, err := encodeDevice(d)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO keepr_devices (
			id, name, type, status, checked_out_by, checked_out_at, location, assigned_to,
			audit_status, last_audit_date, accessories, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		string(d.Type),
		string(d.Status),
		holder,
		d.CheckedOutAt,
		d.Location,
		d.AssignedTo,
		string(d.AuditStatus),
		d.LastAuditDate,
		accessories,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExistsError("device", "id", d.ID.String())
		}
		return err
	}

	return nil
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM keepr_devices WHERE id = $1`

	var row deviceRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("device", id)
		}
		return nil, err
	}

	return row.toDomain()
}

// List retrieves devices by name, optionally filtered by status or pending audit
func (r *DeviceRepository) List(ctx context.Context, status domain.DeviceStatus, auditPendingOnly bool) ([]*domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM keepr_devices
		WHERE ($1 = '' OR status = $1)
		  AND (NOT $2 OR audit_status = 'pending')
		ORDER BY name, id
	`

	var rows []deviceRow
	if err := r.db.SelectContext(ctx, &rows, query, string(status), auditPendingOnly); err != nil {
		return nil, err
	}

	devices := make([]*domain.Device, len(rows))
	for i, row := range rows {
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		devices[i] = d
	}

	return devices, nil
}

const updateDevice = `
	UPDATE keepr_devices
	SET name = $2, type = $3, status = $4, checked_out_by = $5, checked_out_at = $6,
	    location = $7, assigned_to = $8, audit_status = $9, last_audit_date = $10,
	    accessories = $11, updated_at = $12
	WHERE id = $1
`

func updateDeviceArgs(d *domain.Device) ([]any, error) {
	holder, accessories, err := encodeDevice(d)
	if err != nil {
		return nil, err
	}
	return []any{
		d.ID,
		d.Name,
		string(d.Type),
		string(d.Status),
		holder,
		d.CheckedOutAt,
		d.Location,
		d.AssignedTo,
		string(d.AuditStatus),
		d.LastAuditDate,
		accessories,
		d.UpdatedAt,
	}, nil
}

// Update saves every mutable field of a device
func (r *DeviceRepository) Update(ctx context.Context, d *domain.Device) error {
	args, err := updateDeviceArgs(d)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, updateDevice, args...)
	if err != nil {
		return err
	}

	return expectRow(result, "device", d.ID)
}

// UpdateWithAudit saves the device and appends an audit log entry atomically.
// A nil log only saves the device.
func (r *DeviceRepository) UpdateWithAudit(ctx context.Context, d *domain.Device, log *domain.AuditLog) error {
	args, err := updateDeviceArgs(d)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, updateDevice, args...)
		if err != nil {
			return err
		}
		if err := expectRow(result, "device", d.ID); err != nil {
			return err
		}
		if log == nil {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO keepr_audit_logs (id, device_id, device_name, status, auditor, location, notes, date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			log.ID,
			log.DeviceID,
			log.DeviceName,
			string(log.Status),
			log.Auditor,
			log.Location,
			log.Notes,
			log.Date,
		)
		if isForeignKeyViolation(err) {
			return domain.NotFoundError("device", log.DeviceID)
		}
		return err
	})
}

// ListAuditLogs returns the most recent audit entries
func (r *DeviceRepository) ListAuditLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, device_id, device_name, status, auditor, location, notes, date
		FROM keepr_audit_logs
		ORDER BY date DESC
		LIMIT $1
	`

	var logs []*domain.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, err
	}

	return logs, nil
}
