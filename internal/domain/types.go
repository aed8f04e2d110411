package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Common types used across domain models

// Platform is the device family a session or case targets
type Platform string

const (
	PlatformAndroidTV     Platform = "Android TV"
	PlatformAppleTV       Platform = "Apple TV"
	PlatformFireTV        Platform = "Fire TV"
	PlatformLGTV          Platform = "LG TV"
	PlatformSamsungTV     Platform = "Samsung TV"
	PlatformRoku          Platform = "Roku"
	PlatformWeb           Platform = "Web"
	PlatformMobileAndroid Platform = "Mobile (Android)"
	PlatformMobileIOS     Platform = "Mobile (iOS)"
	PlatformOther         Platform = "Other"
)

func (p Platform) IsValid() bool {
	switch p {
	case PlatformAndroidTV, PlatformAppleTV, PlatformFireTV, PlatformLGTV, PlatformSamsungTV,
		PlatformRoku, PlatformWeb, PlatformMobileAndroid, PlatformMobileIOS, PlatformOther:
		return true
	}
	return false
}

// Priority for repository test cases
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Timestamps provides common time fields
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// SetTimestamps sets CreatedAt and UpdatedAt to current time
func (t *Timestamps) SetTimestamps() {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch moves UpdatedAt to the current time
func (t *Timestamps) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// StringList is a string slice stored as a JSONB array
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for StringList")
	}
	return json.Unmarshal(bytes, (*[]string)(s))
}

// Actor identifies the user performing an operation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListFilter carries paging for list queries
type ListFilter struct {
	Limit  int
	Offset int
}
