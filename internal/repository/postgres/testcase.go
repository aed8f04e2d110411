package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/zenit-qa/zenit/internal/domain"
)

// TestCaseRepository implements domain.TestCaseRepository with PostgreSQL
type TestCaseRepository struct {
	db *sqlx.DB
}

// NewTestCaseRepository creates a new test case repository
func NewTestCaseRepository(db *sqlx.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

type testCaseRow struct {
	ID               uuid.UUID         `db:"id"`
	Title            string            `db:"title"`
	Module           string            `db:"module"`
	Priority         string            `db:"priority"`
	Status           string            `db:"status"`
	Preconditions    string            `db:"preconditions"`
	TestData         string            `db:"test_data"`
	TestSteps        domain.StringList `db:"test_steps"`
	ExpectedResult   string            `db:"expected_result"`
	AutomationTag    string            `db:"automation_tag"`
	Source           string            `db:"source"`
	Phase            string            `db:"phase"`
	LastUpdatedBy    string            `db:"last_updated_by"`
	LastUpdatedByUID string            `db:"last_updated_by_uid"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
	DeletedAt        *time.Time        `db:"deleted_at"`
}

const testCaseColumns = `id, title, module, priority, status, preconditions, test_data, test_steps,
	expected_result, automation_tag, source, phase, last_updated_by, last_updated_by_uid,
	created_at, updated_at, deleted_at`

func (r *testCaseRow) toDomain() *domain.ManagedTestCase {
	steps := r.TestSteps
	if steps == nil {
		steps = domain.StringList{}
	}
	return &domain.ManagedTestCase{
		ID:               r.ID,
		Title:            r.Title,
		Module:           r.Module,
		Priority:         domain.Priority(r.Priority),
		Status:           domain.TestCaseStatus(r.Status),
		Preconditions:    r.Preconditions,
		TestData:         r.TestData,
		TestSteps:        steps,
		ExpectedResult:   r.ExpectedResult,
		AutomationTag:    r.AutomationTag,
		Source:           domain.TestCaseSource(r.Source),
		Phase:            r.Phase,
		LastUpdatedBy:    r.LastUpdatedBy,
		LastUpdatedByUID: r.LastUpdatedByUID,
		Timestamps: domain.Timestamps{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			DeletedAt: r.DeletedAt,
		},
	}
}

const insertTestCase = `
	INSERT INTO managed_test_cases (
		id, title, module, priority, status, preconditions, test_data, test_steps,
		expected_result, automation_tag, source, phase, last_updated_by, last_updated_by_uid,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

func testCaseArgs(tc *domain.ManagedTestCase) []any {
	return []any{
		tc.ID,
		tc.Title,
		tc.Module,
		string(tc.Priority),
		string(tc.Status),
		tc.Preconditions,
		tc.TestData,
		tc.TestSteps,
		tc.ExpectedResult,
		tc.AutomationTag,
		string(tc.Source),
		tc.Phase,
		tc.LastUpdatedBy,
		tc.LastUpdatedByUID,
		tc.CreatedAt,
		tc.UpdatedAt,
	}
}

// Create inserts a new test case
func (r *TestCaseRepository) Create(ctx context.Context, tc *domain.ManagedTestCase) error {
	if _, err := r.db.ExecContext(ctx, insertTestCase, testCaseArgs(tc)...); err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExistsError("test_case", "id", tc.ID.String())
		}
		return err
	}
	return nil
}

// CreateBatch inserts multiple test cases in a single transaction
func (r *TestCaseRepository) CreateBatch(ctx context.Context, tcs []*domain.ManagedTestCase) error {
	if len(tcs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertTestCase)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tc := range tcs {
		if _, err := stmt.ExecContext(ctx, testCaseArgs(tc)...); err != nil {
			return fmt.Errorf("inserting test case %q: %w", tc.Title, err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a test case by ID
func (r *TestCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ManagedTestCase, error) {
	query := `SELECT ` + testCaseColumns + ` FROM managed_test_cases WHERE id = $1 AND deleted_at IS NULL`

	var row testCaseRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("test_case", id)
		}
		return nil, err
	}

	return row.toDomain(), nil
}

// List retrieves paginated test cases, optionally narrowed by module and status
func (r *TestCaseRepository) List(ctx context.Context, filter domain.TestCaseFilter) ([]*domain.ManagedTestCase, int, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []any
	if filter.Module != "" {
		args = append(args, filter.Module)
		conds = append(conds, fmt.Sprintf("module = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM managed_test_cases WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM managed_test_cases
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, testCaseColumns, where, len(args)+1, len(args)+2)

	var rows []testCaseRow
	if err := r.db.SelectContext(ctx, &rows, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, err
	}

	cases := make([]*domain.ManagedTestCase, len(rows))
	for i := range rows {
		cases[i] = rows[i].toDomain()
	}

	return cases, total, nil
}

// ListByIDs retrieves the test cases with the given ids
func (r *TestCaseRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.ManagedTestCase, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `
		SELECT ` + testCaseColumns + `
		FROM managed_test_cases
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL
		ORDER BY created_at, id
	`

	var rows []testCaseRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(strIDs)); err != nil {
		return nil, err
	}

	cases := make([]*domain.ManagedTestCase, len(rows))
	for i := range rows {
		cases[i] = rows[i].toDomain()
	}
	return cases, nil
}

// Update updates an existing test case
func (r *TestCaseRepository) Update(ctx context.Context, tc *domain.ManagedTestCase) error {
	query := `
		UPDATE managed_test_cases
		SET title = $2, module = $3, priority = $4, status = $5, preconditions = $6,
		    test_data = $7, test_steps = $8, expected_result = $9, automation_tag = $10,
		    source = $11, phase = $12, last_updated_by = $13, last_updated_by_uid = $14,
		    updated_at = $15
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		tc.ID,
		tc.Title,
		tc.Module,
		string(tc.Priority),
		string(tc.Status),
		tc.Preconditions,
		tc.TestData,
		tc.TestSteps,
		tc.ExpectedResult,
		tc.AutomationTag,
		string(tc.Source),
		tc.Phase,
		tc.LastUpdatedBy,
		tc.LastUpdatedByUID,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return expectRow(result, "test_case", tc.ID)
}

// UpdateAutomationTags sets the automation tag of several cases at once
func (r *TestCaseRepository) UpdateAutomationTags(ctx context.Context, tags map[uuid.UUID]string) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for id, tag := range tags {
		_, err := tx.ExecContext(ctx,
			`UPDATE managed_test_cases SET automation_tag = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`,
			id, tag, now,
		)
		if err != nil {
			return fmt.Errorf("tagging test case %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Delete soft deletes a test case
func (r *TestCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE managed_test_cases
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}

	return expectRow(result, "test_case", id)
}
