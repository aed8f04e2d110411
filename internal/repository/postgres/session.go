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

// SessionRepository implements domain.SessionRepository with PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionRow struct {
	ID                    uuid.UUID  `db:"id"`
	UserID                string     `db:"user_id"`
	UserName              string     `db:"user_name"`
	PlatformDetails       []byte     `db:"platform_details"`
	TestCases             []byte     `db:"test_cases"`
	Status                string     `db:"status"`
	Summary               []byte     `db:"summary"`
	ReasonForIncompletion string     `db:"reason_for_incompletion"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
	CompletedAt           *time.Time `db:"completed_at"`
}

const sessionColumns = `id, user_id, user_name, platform_details, test_cases, status, summary,
	reason_for_incompletion, created_at, updated_at, completed_at`

func (r *sessionRow) toDomain() (*domain.TestSession, error) {
	s := &domain.TestSession{
		ID:                    r.ID,
		UserID:                r.UserID,
		UserName:              r.UserName,
		Status:                domain.SessionStatus(r.Status),
		ReasonForIncompletion: r.ReasonForIncompletion,
		CompletedAt:           r.CompletedAt,
		Timestamps: domain.Timestamps{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
	}

	if err := json.Unmarshal(r.PlatformDetails, &s.Platform); err != nil {
		return nil, fmt.Errorf("decoding platform details: %w", err)
	}
	if err := json.Unmarshal(r.TestCases, &s.TestCases); err != nil {
		return nil, fmt.Errorf("decoding test cases: %w", err)
	}
	if err := json.Unmarshal(r.Summary, &s.Summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}

	return s, nil
}

func encodeSession(s *domain.TestSession) (platform, cases, summary []byte, err error) {
	if platform, err = json.Marshal(s.Platform); err != nil {
		return nil, nil, nil, err
	}
	tcs := s.TestCases
	if tcs == nil {
		tcs = []domain.SessionCase{}
	}
	if cases, err = json.Marshal(tcs); err != nil {
		return nil, nil, nil, err
	}
	if summary, err = json.Marshal(s.Summary); err != nil {
		return nil, nil, nil, err
	}
	return platform, cases, summary, nil
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, s *domain.TestSession) error {
	platform, cases, summary, err := encodeSession(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO test_sessions (
			id, user_id, user_name, platform_details, test_cases, status, summary,
			reason_for_incompletion, created_at, updated_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.UserName,
		platform,
		cases,
		string(s.Status),
		summary,
		s.ReasonForIncompletion,
		s.CreatedAt,
		s.UpdatedAt,
		s.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExistsError("session", "id", s.ID.String())
		}
		return err
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TestSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("session", id)
		}
		return nil, err
	}

	return row.toDomain()
}

// ListByUser retrieves a user's sessions, newest first
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, filter domain.ListFilter) ([]*domain.TestSession, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM test_sessions WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM test_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, filter.Limit, filter.Offset); err != nil {
		return nil, 0, err
	}

	sessions := make([]*domain.TestSession, len(rows))
	for i, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, 0, err
		}
		sessions[i] = s
	}

	return sessions, total, nil
}

// Update saves results, summary and lifecycle fields of a session
func (r *SessionRepository) Update(ctx context.Context, s *domain.TestSession) error {
	_, cases, summary, err := encodeSession(s)
	if err != nil {
		return err
	}

	query := `
		UPDATE test_sessions
		SET test_cases = $2, status = $3, summary = $4, reason_for_incompletion = $5,
		    completed_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID,
		cases,
		string(s.Status),
		summary,
		s.ReasonForIncompletion,
		s.CompletedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return expectRow(result, "session", s.ID)
}
