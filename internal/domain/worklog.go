package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxHoursPerEntry = 24

// WorkLog is one block of hours a user spent on a project
type WorkLog struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Project     string    `json:"project" db:"project"`
	Date        time.Time `json:"date" db:"date"`
	Hours       float64   `json:"hours" db:"hours"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewWorkLog validates and creates an entry for the given day
func NewWorkLog(userID, project string, date time.Time, hours float64, description string) (*WorkLog, error) {
	project = strings.TrimSpace(project)
	if userID == "" {
		return nil, ValidationError("user_id", "user id is required")
	}
	if project == "" {
		return nil, ValidationError("project", "project is required")
	}
	if hours <= 0 || hours > MaxHoursPerEntry {
		return nil, ValidationError("hours", "hours must be greater than 0 and at most 24")
	}
	if date.IsZero() {
		date = time.Now()
	}
	y, m, d := date.Date()
	return &WorkLog{
		ID:          uuid.New(),
		UserID:      userID,
		Project:     project,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Hours:       hours,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ProjectHours totals logged hours per project
type ProjectHours struct {
	Project string  `json:"project" db:"project"`
	Hours   float64 `json:"hours" db:"hours"`
	Entries int     `json:"entries" db:"entries"`
}

// SumByProject aggregates entries, largest total first
func SumByProject(logs []*WorkLog) []ProjectHours {
	idx := make(map[string]int)
	var out []ProjectHours
	for _, l := range logs {
		i, ok := idx[l.Project]
		if !ok {
			i = len(out)
			idx[l.Project] = i
			out = append(out, ProjectHours{Project: l.Project})
		}
		out[i].Hours += l.Hours
		out[i].Entries++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Hours > out[b].Hours })
	return out
}

// WorkLogFilter narrows work log queries to a user and date range
type WorkLogFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	ListFilter
}

// WorkLogRepository defines data access for work logs
type WorkLogRepository interface {
	Create(ctx context.Context, w *WorkLog) error
	List(ctx context.Context, filter WorkLogFilter) ([]*WorkLog, error)
	HoursByProject(ctx context.Context, filter WorkLogFilter) ([]ProjectHours, error)
}
