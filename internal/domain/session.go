package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a test session
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAborted    SessionStatus = "aborted"
)

// IsFinished reports whether the session no longer accepts results
func (s SessionStatus) IsFinished() bool {
	return s == SessionCompleted || s == SessionAborted
}

// ResultStatus is the outcome of one case in a session
type ResultStatus string

const (
	ResultPass      ResultStatus = "Pass"
	ResultFail      ResultStatus = "Fail"
	ResultNA        ResultStatus = "N/A"
	ResultUntested  ResultStatus = "Untested"
	ResultFailKnown ResultStatus = "Fail (Known)"
)

func (s ResultStatus) IsValid() bool {
	switch s {
	case ResultPass, ResultFail, ResultNA, ResultUntested, ResultFailKnown:
		return true
	}
	return false
}

// PlatformDetails describes the build and device a session runs against
type PlatformDetails struct {
	Platform   Platform `json:"platform"`
	Device     string   `json:"device,omitempty"`
	OSVersion  string   `json:"os_version,omitempty"`
	AppVersion string   `json:"app_version,omitempty"`
	Build      string   `json:"build,omitempty"`
}

// SessionCase is one executable case inside a session
type SessionCase struct {
	ID             string       `json:"id"`
	OrderIndex     int          `json:"order_index"`
	TestBed        string       `json:"test_bed,omitempty"`
	Title          string       `json:"title"`
	Steps          string       `json:"steps"`
	ExpectedResult string       `json:"expected_result"`
	ActualResult   string       `json:"actual_result,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Status         ResultStatus `json:"status"`
	BugID          string       `json:"bug_id,omitempty"`
	NAReason       string       `json:"na_reason,omitempty"`
	Attachments    []string     `json:"attachments,omitempty"`
	LastModified   *time.Time   `json:"last_modified,omitempty"`
}

// SessionSummary counts case results
type SessionSummary struct {
	Total     int `json:"total"`
	Pass      int `json:"pass"`
	Fail      int `json:"fail"`
	NA        int `json:"na"`
	Untested  int `json:"untested"`
	FailKnown int `json:"fail_known"`
}

// TestSession is a manual execution run of a set of cases on one platform
type TestSession struct {
	ID                    uuid.UUID       `json:"id" db:"id"`
	UserID                string          `json:"user_id" db:"user_id"`
	UserName              string          `json:"user_name" db:"user_name"`
	Platform              PlatformDetails `json:"platform_details"`
	TestCases             []SessionCase   `json:"test_cases"`
	Status                SessionStatus   `json:"status" db:"status"`
	Summary               SessionSummary  `json:"summary"`
	ReasonForIncompletion string          `json:"reason_for_incompletion,omitempty" db:"reason_for_incompletion"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Timestamps
}

// CaseResult is the update a tester records against one case
type CaseResult struct {
	Status       ResultStatus `json:"status"`
	ActualResult string       `json:"actual_result"`
	Notes        string       `json:"notes"`
	BugID        string       `json:"bug_id"`
	NAReason     string       `json:"na_reason"`
	Attachments  []string     `json:"attachments"`
}

// NewTestSession creates an in-progress session. Every case starts Untested.
func NewTestSession(actor Actor, platform PlatformDetails, cases []SessionCase) (*TestSession, error) {
	if actor.ID == "" {
		return nil, ValidationError("user_id", "user id is required")
	}
	if !platform.Platform.IsValid() {
		return nil, ValidationError("platform", "unknown platform: "+string(platform.Platform))
	}
	if len(cases) == 0 {
		return nil, ValidationError("test_cases", "a session needs at least one test case")
	}

	s := &TestSession{
		ID:        uuid.New(),
		UserID:    actor.ID,
		UserName:  actor.Name,
		Platform:  platform,
		TestCases: make([]SessionCase, len(cases)),
		Status:    SessionInProgress,
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Title) == "" {
			return nil, ValidationError("title", "test case title is required")
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.OrderIndex = i
		c.Status = ResultUntested
		s.TestCases[i] = c
	}
	s.RecomputeSummary()
	s.SetTimestamps()
	return s, nil
}

// RecomputeSummary recounts case results
func (s *TestSession) RecomputeSummary() {
	sum := SessionSummary{Total: len(s.TestCases)}
	for _, c := range s.TestCases {
		switch c.Status {
		case ResultPass:
			sum.Pass++
		case ResultFail:
			sum.Fail++
		case ResultNA:
			sum.NA++
		case ResultFailKnown:
			sum.FailKnown++
		default:
			sum.Untested++
		}
	}
	s.Summary = sum
}

// RecordResult applies a result to the case with the given id
func (s *TestSession) RecordResult(caseID string, r CaseResult) (*SessionCase, error) {
	if s.Status.IsFinished() {
		return nil, InvalidStateError("session", s.Status, "session is "+string(s.Status)+" and no longer accepts results")
	}
	if !r.Status.IsValid() {
		return nil, ValidationError("status", "unknown result status: "+string(r.Status))
	}
	if r.Status == ResultNA && strings.TrimSpace(r.NAReason) == "" {
		return nil, ValidationError("na_reason", "a reason is required when marking a case N/A")
	}

	for i := range s.TestCases {
		c := &s.TestCases[i]
		if c.ID != caseID {
			continue
		}
		now := time.Now().UTC()
		c.Status = r.Status
		c.ActualResult = r.ActualResult
		c.Notes = r.Notes
		c.Attachments = r.Attachments
		c.BugID, c.NAReason = "", ""
		switch r.Status {
		case ResultFail, ResultFailKnown:
			c.BugID = strings.TrimSpace(r.BugID)
		case ResultNA:
			c.NAReason = strings.TrimSpace(r.NAReason)
		}
		c.LastModified = &now
		s.RecomputeSummary()
		s.Touch()
		return c, nil
	}
	return nil, NotFoundError("session case", caseID)
}

// Complete finishes the session
func (s *TestSession) Complete() error {
	return s.finish(SessionCompleted, "")
}

// Abort finishes the session early with a reason
func (s *TestSession) Abort(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ValidationError("reason", "a reason is required to abort a session")
	}
	return s.finish(SessionAborted, strings.TrimSpace(reason))
}

func (s *TestSession) finish(status SessionStatus, reason string) error {
	if s.Status.IsFinished() {
		return InvalidStateError("session", s.Status, "session is already "+string(s.Status))
	}
	now := time.Now().UTC()
	s.Status = status
	s.ReasonForIncompletion = reason
	s.CompletedAt = &now
	s.Touch()
	return nil
}

// SessionRepository defines data access for test sessions
type SessionRepository interface {
	Create(ctx context.Context, s *TestSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestSession, error)
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]*TestSession, int, error)
	Update(ctx context.Context, s *TestSession) error
}
