package domain

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// TestCaseStatus is the last known result of a repository case
type TestCaseStatus string

const (
	TestCaseStatusPass    TestCaseStatus = "Pass"
	TestCaseStatusFail    TestCaseStatus = "Fail"
	TestCaseStatusBlocked TestCaseStatus = "Blocked"
	TestCaseStatusNotRun  TestCaseStatus = "Not Run"
)

func (s TestCaseStatus) IsValid() bool {
	switch s {
	case TestCaseStatusPass, TestCaseStatusFail, TestCaseStatusBlocked, TestCaseStatusNotRun:
		return true
	}
	return false
}

// TestCaseSource records where a repository case came from
type TestCaseSource string

const (
	SourcePRD    TestCaseSource = "PRD"
	SourceManual TestCaseSource = "Manual"
	SourceAI     TestCaseSource = "AI"
	SourceRules  TestCaseSource = "Rules"
)

func (s TestCaseSource) IsValid() bool {
	switch s {
	case SourcePRD, SourceManual, SourceAI, SourceRules:
		return true
	}
	return false
}

// ManagedTestCase is a case stored in the shared test repository
type ManagedTestCase struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Title            string         `json:"title" db:"title"`
	Module           string         `json:"module" db:"module"`
	Priority         Priority       `json:"priority" db:"priority"`
	Status           TestCaseStatus `json:"status" db:"status"`
	Preconditions    string         `json:"preconditions,omitempty" db:"preconditions"`
	TestData         string         `json:"test_data,omitempty" db:"test_data"`
	TestSteps        StringList     `json:"test_steps" db:"test_steps"`
	ExpectedResult   string         `json:"expected_result" db:"expected_result"`
	AutomationTag    string         `json:"automation_tag,omitempty" db:"automation_tag"`
	Source           TestCaseSource `json:"source,omitempty" db:"source"`
	Phase            string         `json:"phase,omitempty" db:"phase"`
	LastUpdatedBy    string         `json:"last_updated_by" db:"last_updated_by"`
	LastUpdatedByUID string         `json:"last_updated_by_uid" db:"last_updated_by_uid"`
	Timestamps
}

// NewManagedTestCase creates a repository case. Empty priority, status and
// source default to Medium, Not Run and Manual.
func NewManagedTestCase(actor Actor, title, module string, steps []string, expected string) *ManagedTestCase {
	tc := &ManagedTestCase{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(title),
		Module:           strings.TrimSpace(module),
		Priority:         PriorityMedium,
		Status:           TestCaseStatusNotRun,
		TestSteps:        StringList(steps),
		ExpectedResult:   expected,
		Source:           SourceManual,
		LastUpdatedBy:    actor.Name,
		LastUpdatedByUID: actor.ID,
	}
	tc.SetTimestamps()
	return tc
}

// Normalize fills defaults and checks required fields
func (tc *ManagedTestCase) Normalize() error {
	tc.Title = strings.TrimSpace(tc.Title)
	tc.Module = strings.TrimSpace(tc.Module)
	if tc.Title == "" {
		return ValidationError("title", "title is required")
	}
	if tc.Priority == "" {
		tc.Priority = PriorityMedium
	}
	if tc.Status == "" {
		tc.Status = TestCaseStatusNotRun
	}
	if tc.Source == "" {
		tc.Source = SourceManual
	}
	if !tc.Priority.IsValid() {
		return ValidationError("priority", "unknown priority: "+string(tc.Priority))
	}
	if !tc.Status.IsValid() {
		return ValidationError("status", "unknown status: "+string(tc.Status))
	}
	if !tc.Source.IsValid() {
		return ValidationError("source", "unknown source: "+string(tc.Source))
	}
	if tc.TestSteps == nil {
		tc.TestSteps = StringList{}
	}
	return nil
}

// MarkUpdatedBy stamps the editing user
func (tc *ManagedTestCase) MarkUpdatedBy(actor Actor) {
	tc.LastUpdatedBy = actor.Name
	tc.LastUpdatedByUID = actor.ID
	tc.Touch()
}

var (
	slugSpace   = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^\w-]+`)
	slugDashes  = regexp.MustCompile(`--+`)
)

// Slugify lowercases title and joins its words with dashes
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// AutomationTag derives a stable tag for a case from its title and id.
// Returns "" for an empty title.
func AutomationTag(id, title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	suffix := id
	if len(suffix) > 5 {
		suffix = suffix[:5]
	}
	return Slugify(title) + "-" + suffix
}

// AutomationTags derives tags for every case with a title
func AutomationTags(cases []*ManagedTestCase) map[uuid.UUID]string {
	tags := make(map[uuid.UUID]string, len(cases))
	for _, tc := range cases {
		if tag := AutomationTag(tc.ID.String(), tc.Title); tag != "" {
			tags[tc.ID] = tag
		}
	}
	return tags
}

// TestCaseFilter narrows repository listings
type TestCaseFilter struct {
	Module string
	Status TestCaseStatus
	ListFilter
}

// TestCaseRepository defines data access for repository cases
type TestCaseRepository interface {
	Create(ctx context.Context, tc *ManagedTestCase) error
	CreateBatch(ctx context.Context, tcs []*ManagedTestCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*ManagedTestCase, error)
	List(ctx context.Context, filter TestCaseFilter) ([]*ManagedTestCase, int, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*ManagedTestCase, error)
	Update(ctx context.Context, tc *ManagedTestCase) error
	UpdateAutomationTags(ctx context.Context, tags map[uuid.UUID]string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
