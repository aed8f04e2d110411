package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/zenit-qa/zenit/internal/domain"
)

// WorkLogRepository implements domain.WorkLogRepository with PostgreSQL
type WorkLogRepository struct {
	db *sqlx.DB
}

// NewWorkLogRepository creates a new work log repository
func NewWorkLogRepository(db *sqlx.DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

// Create inserts a new work log entry
func (r *WorkLogRepository) Create(ctx context.Context, w *domain.WorkLog) error {
	query := `
		INSERT INTO work_logs (id, user_id, project, date, hours, description, created_at)
		VALUES (:id, :user_id, :project, :date, :hours, :description, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExistsError("work_log", "id", w.ID.String())
		}
		return err
	}

	return nil
}

func workLogWhere(filter domain.WorkLogFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{filter.UserID}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// List retrieves a user's entries in the filter's date range, newest first
func (r *WorkLogRepository) List(ctx context.Context, filter domain.WorkLogFilter) ([]*domain.WorkLog, error) {
	where, args := workLogWhere(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, project, date, hours, description, created_at
		FROM work_logs
		WHERE %s
		ORDER BY date DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	var logs []*domain.WorkLog
	if err := r.db.SelectContext(ctx, &logs, query, append(args, limit, filter.Offset)...); err != nil {
		return nil, err
	}

	return logs, nil
}

// HoursByProject totals a user's hours per project, largest first
func (r *WorkLogRepository) HoursByProject(ctx context.Context, filter domain.WorkLogFilter) ([]domain.ProjectHours, error) {
	where, args := workLogWhere(filter)

	query := `
		SELECT project, SUM(hours)::float8 AS hours, COUNT(*) AS entries
		FROM work_logs
		WHERE ` + where + `
		GROUP BY project
		ORDER BY hours DESC, project
	`

	var totals []domain.ProjectHours
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, err
	}

	return totals, nil
}
