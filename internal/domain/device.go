package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeviceType groups lab devices
type DeviceType string

const (
	DeviceTypePhone  DeviceType = "phone"
	DeviceTypeTablet DeviceType = "tablet"
	DeviceTypeTV     DeviceType = "tv"
	DeviceTypeLaptop DeviceType = "laptop"
	DeviceTypeOther  DeviceType = "other"
)

func (t DeviceType) IsValid() bool {
	switch t {
	case DeviceTypePhone, DeviceTypeTablet, DeviceTypeTV, DeviceTypeLaptop, DeviceTypeOther:
		return true
	}
	return false
}

// DeviceStatus is the availability of a device
type DeviceStatus string

const (
	DeviceAvailable   DeviceStatus = "available"
	DeviceCheckedOut  DeviceStatus = "checked-out"
	DeviceMaintenance DeviceStatus = "maintenance"
)

func (s DeviceStatus) IsValid() bool {
	switch s {
	case DeviceAvailable, DeviceCheckedOut, DeviceMaintenance:
		return true
	}
	return false
}

// AuditStatus is the result of the last physical audit
type AuditStatus string

const (
	AuditPending  AuditStatus = "pending"
	AuditVerified AuditStatus = "verified"
	AuditMissing  AuditStatus = "missing"
)

func (s AuditStatus) IsValid() bool {
	switch s {
	case AuditPending, AuditVerified, AuditMissing:
		return true
	}
	return false
}

// Holder is the person a device is checked out to
type Holder struct {
	ID   string `json:"uid"`
	Name string `json:"name"`
}

// Accessories tracks what ships with a device
type Accessories struct {
	Box        bool   `json:"box,omitempty"`
	Adapter    bool   `json:"adapter,omitempty"`
	Cable      bool   `json:"cable,omitempty"`
	HDMICable  bool   `json:"hdmi_cable,omitempty"`
	PowerCable bool   `json:"power_cable,omitempty"`
	Notes      string `json:"notes"`
}

// Device is a physical test device tracked by the lab inventory
type Device struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Type          DeviceType   `json:"type" db:"type"`
	Status        DeviceStatus `json:"status" db:"status"`
	CheckedOutBy  *Holder      `json:"checked_out_by,omitempty"`
	CheckedOutAt  *time.Time   `json:"checked_out_at,omitempty" db:"checked_out_at"`
	Location      string       `json:"location" db:"location"`
	AssignedTo    string       `json:"assigned_to,omitempty" db:"assigned_to"`
	AuditStatus   AuditStatus  `json:"audit_status" db:"audit_status"`
	LastAuditDate *time.Time   `json:"last_audit_date,omitempty" db:"last_audit_date"`
	Accessories   Accessories  `json:"accessories"`
	Timestamps
}

// NewDevice registers an available, unaudited device
func NewDevice(name string, typ DeviceType, location string, acc Accessories) (*Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("name", "device name is required")
	}
	if typ == "" {
		typ = DeviceTypeOther
	}
	if !typ.IsValid() {
		return nil, ValidationError("type", "unknown device type: "+string(typ))
	}
	d := &Device{
		ID:          uuid.New(),
		Name:        name,
		Type:        typ,
		Status:      DeviceAvailable,
		Location:    strings.TrimSpace(location),
		AuditStatus: AuditPending,
		Accessories: acc,
	}
	d.SetTimestamps()
	return d, nil
}

// CheckOut hands the device to holder
func (d *Device) CheckOut(holder Holder) error {
	if d.Status != DeviceAvailable {
		return ConflictError("device", fmt.Sprintf("device %s is %s", d.Name, d.Status))
	}
	if strings.TrimSpace(holder.Name) == "" {
		return ValidationError("name", "checkout requires the holder's name")
	}
	now := time.Now().UTC()
	d.Status = DeviceCheckedOut
	d.CheckedOutBy = &holder
	d.CheckedOutAt = &now
	d.AssignedTo = holder.Name
	d.Touch()
	return nil
}

// CheckIn returns the device to the rack
func (d *Device) CheckIn() error {
	if d.Status != DeviceCheckedOut {
		return InvalidStateError("device", d.Status, "device "+d.Name+" is not checked out")
	}
	d.Status = DeviceAvailable
	d.CheckedOutBy = nil
	d.CheckedOutAt = nil
	d.AssignedTo = ""
	d.Touch()
	return nil
}

// AuditUpdate carries the findings of a device audit
type AuditUpdate struct {
	Status      AuditStatus  `json:"status"`
	Location    *string      `json:"location,omitempty"`
	Accessories *Accessories `json:"accessories,omitempty"`
}

// Audit records an audit result on the device. It returns the log entry to
// persist, or nil when the status is pending.
func (d *Device) Audit(u AuditUpdate, auditor string) (*AuditLog, error) {
	if !u.Status.IsValid() {
		return nil, ValidationError("status", "unknown audit status: "+string(u.Status))
	}
	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)
	if u.Location != nil {
		d.Location = strings.TrimSpace(*u.Location)
	}
	if u.Accessories != nil {
		d.Accessories = *u.Accessories
	}
	d.AuditStatus = u.Status
	d.LastAuditDate = &day
	d.Touch()

	if u.Status == AuditPending {
		return nil, nil
	}
	if auditor == "" {
		auditor = "System"
	}
	notes := ""
	if u.Accessories != nil {
		notes = u.Accessories.Notes
	}
	return &AuditLog{
		ID:         uuid.New(),
		DeviceID:   d.ID,
		DeviceName: d.Name,
		Status:     u.Status,
		Auditor:    auditor,
		Location:   d.Location,
		Notes:      notes,
		Date:       now,
	}, nil
}

// AuditLog is one entry in the device audit trail
type AuditLog struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	DeviceID   uuid.UUID   `json:"device_id" db:"device_id"`
	DeviceName string      `json:"device" db:"device_name"`
	Status     AuditStatus `json:"status" db:"status"`
	Auditor    string      `json:"auditor" db:"auditor"`
	Location   string      `json:"location" db:"location"`
	Notes      string      `json:"notes" db:"notes"`
	Date       time.Time   `json:"date" db:"date"`
}

// DeviceStats counts devices by state
type DeviceStats struct {
	Total        int `json:"total"`
	Available    int `json:"available"`
	CheckedOut   int `json:"checked_out"`
	Maintenance  int `json:"maintenance"`
	PendingAudit int `json:"pending_audit"`
}

// CountDevices tallies stats over a device list
func CountDevices(devices []*Device) DeviceStats {
	stats := DeviceStats{Total: len(devices)}
	for _, d := range devices {
		switch d.Status {
		case DeviceAvailable:
			stats.Available++
		case DeviceCheckedOut:
			stats.CheckedOut++
		case DeviceMaintenance:
			stats.Maintenance++
		}
		if d.AuditStatus == AuditPending {
			stats.PendingAudit++
		}
	}
	return stats
}

var reportCategories = []struct {
	typ   DeviceType
	title string
}{
	{DeviceTypePhone, "Android Devices"},
	{DeviceTypeTablet, "Tablets"},
	{DeviceTypeTV, "TV & Streaming Devices"},
	{DeviceTypeLaptop, "Laptops"},
	{DeviceTypeOther, "Other Assets"},
}

// AuditReport renders the plain-text inventory report shared after an audit
func AuditReport(devices []*Device, verifier string, date time.Time) string {
	if verifier == "" {
		verifier = "System Admin"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ZENIT DEVICE AUDIT REPORT\nDate: %s\nStatus: COMPLETED\n-----------------------------------\n\n", date.Format("2006-01-02"))

	for _, cat := range reportCategories {
		var items []*Device
		for _, d := range devices {
			if d.Type == cat.typ {
				items = append(items, d)
			}
		}
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s list:\n", cat.title)
		for i, d := range items {
			fmt.Fprintf(&b, "%d. %s%s\n", i+1, d.Name, reportLine(d))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "-----------------------------------\nVerified by: %s", verifier)
	return b.String()
}

func reportLine(d *Device) string {
	var line string
	switch d.AuditStatus {
	case AuditMissing:
		line = " - Missing."
		if d.Accessories.Notes != "" {
			line += " " + d.Accessories.Notes + "."
		}
		if d.AssignedTo != "" {
			line += " Given to " + d.AssignedTo + "."
		}
		return line + " (Reported Missing)"
	case AuditVerified:
		line = accessoryText(d)
		if d.Accessories.Notes != "" {
			line += " " + d.Accessories.Notes + "."
		}
		if d.AssignedTo != "" && d.Status == DeviceCheckedOut {
			return line + " (Handed over to " + d.AssignedTo + ")"
		}
		return line + " (Available in Rack)"
	}
	return " (Not yet verified)"
}

func accessoryText(d *Device) string {
	a := d.Accessories
	switch d.Type {
	case DeviceTypePhone, DeviceTypeTablet:
		if a.Box && a.Adapter && a.Cable {
			return " - & box with charger & cable are here."
		}
		var missing []string
		if !a.Box {
			missing = append(missing, "box")
		}
		if !a.Adapter {
			missing = append(missing, "adapter")
		}
		if !a.Cable {
			missing = append(missing, "cable")
		}
		return " - " + strings.Join(missing, " & ") + " missing."
	case DeviceTypeTV:
		if a.HDMICable && a.PowerCable {
			return " - with HDMI & Power cable are here."
		}
		var missing []string
		if !a.HDMICable {
			missing = append(missing, "HDMI cable")
		}
		if !a.PowerCable {
			missing = append(missing, "Power cable")
		}
		return " - " + strings.Join(missing, " & ") + " missing."
	}
	return " - with all accessories are here."
}

// DeviceRepository defines data access for lab devices
type DeviceRepository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*Device, error)
	List(ctx context.Context, status DeviceStatus, auditPendingOnly bool) ([]*Device, error)
	Update(ctx context.Context, d *Device) error
	// UpdateWithAudit saves the device and appends log in one transaction.
	UpdateWithAudit(ctx context.Context, d *Device, log *AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]*AuditLog, error)
}
