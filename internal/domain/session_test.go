package domain

import (
	"errors"
	"testing"
)

func newTestSession(t *testing.T) *TestSession {
	t.Helper()
	s, err := NewTestSession(
		Actor{ID: "u-1", Name: "Priya"},
		PlatformDetails{Platform: PlatformFireTV, Device: "Fire TV Cube", Build: "4.2.1"},
		[]SessionCase{
			{ID: "c1", Title: "Launch app", ExpectedResult: "Home screen shows"},
			{ID: "c2", Title: "Play trailer", ExpectedResult: "Video plays"},
			{Title: "Open settings", ExpectedResult: "Settings page opens"},
		},
	)
	if err != nil {
		t.Fatalf("NewTestSession() error = %v", err)
	}
	return s
}

func TestNewTestSession(t *testing.T) {
	s := newTestSession(t)

	if s.Status != SessionInProgress {
		t.Errorf("Status = %v, want %v", s.Status, SessionInProgress)
	}
	if s.UserID != "u-1" || s.UserName != "Priya" {
		t.Errorf("user = %s/%s, want u-1/Priya", s.UserID, s.UserName)
	}
	want := SessionSummary{Total: 3, Untested: 3}
	if s.Summary != want {
		t.Errorf("Summary = %+v, want %+v", s.Summary, want)
	}
	for i, c := range s.TestCases {
		if c.OrderIndex != i {
			t.Errorf("TestCases[%d].OrderIndex = %d", i, c.OrderIndex)
		}
		if c.Status != ResultUntested {
			t.Errorf("TestCases[%d].Status = %v, want Untested", i, c.Status)
		}
		if c.ID == "" {
			t.Errorf("TestCases[%d].ID is empty", i)
		}
	}
}

func TestNewTestSession_Validation(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		platform Platform
		cases    []SessionCase
	}{
		{"no user", Actor{}, PlatformWeb, []SessionCase{{Title: "a"}}},
		{"bad platform", Actor{ID: "u"}, Platform("Toaster"), []SessionCase{{Title: "a"}}},
		{"no cases", Actor{ID: "u"}, PlatformWeb, nil},
		{"blank title", Actor{ID: "u"}, PlatformWeb, []SessionCase{{Title: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTestSession(tt.actor, PlatformDetails{Platform: tt.platform}, tt.cases)
			if !IsValidationError(err) {
				t.Errorf("NewTestSession() error = %v, want validation error", err)
			}
		})
	}
}

func TestTestSession_RecordResult(t *testing.T) {
	s := newTestSession(t)

	c, err := s.RecordResult("c1", CaseResult{Status: ResultPass, ActualResult: "ok"})
	if err != nil {
		t.Fatalf("RecordResult() error = %v", err)
	}
	if c.Status != ResultPass || c.LastModified == nil {
		t.Errorf("case = %+v, want Pass with LastModified", c)
	}

	if _, err := s.RecordResult("c2", CaseResult{Status: ResultFailKnown, BugID: " BUG-12 "}); err != nil {
		t.Fatalf("RecordResult() error = %v", err)
	}
	if s.TestCases[1].BugID != "BUG-12" {
		t.Errorf("BugID = %q, want BUG-12", s.TestCases[1].BugID)
	}

	want := SessionSummary{Total: 3, Pass: 1, FailKnown: 1, Untested: 1}
	if s.Summary != want {
		t.Errorf("Summary = %+v, want %+v", s.Summary, want)
	}

	// Re-recording replaces the previous result and clears stale fields.
	if _, err := s.RecordResult("c2", CaseResult{Status: ResultNA, NAReason: "Not on this build", BugID: "X"}); err != nil {
		t.Fatalf("RecordResult() error = %v", err)
	}
	if s.TestCases[1].BugID != "" || s.TestCases[1].NAReason != "Not on this build" {
		t.Errorf("case = %+v", s.TestCases[1])
	}
	want = SessionSummary{Total: 3, Pass: 1, NA: 1, Untested: 1}
	if s.Summary != want {
		t.Errorf("Summary = %+v, want %+v", s.Summary, want)
	}
}

func TestTestSession_RecordResultErrors(t *testing.T) {
	s := newTestSession(t)

	if _, err := s.RecordResult("c1", CaseResult{Status: ResultNA}); !IsValidationError(err) {
		t.Errorf("N/A without reason: error = %v, want validation error", err)
	}
	if _, err := s.RecordResult("c1", CaseResult{Status: "Skipped"}); !IsValidationError(err) {
		t.Errorf("unknown status: error = %v, want validation error", err)
	}
	if _, err := s.RecordResult("nope", CaseResult{Status: ResultPass}); !IsNotFoundError(err) {
		t.Errorf("unknown case: error = %v, want not found", err)
	}
}

func TestTestSession_CompleteAndAbort(t *testing.T) {
	s := newTestSession(t)

	if err := s.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if s.Status != SessionCompleted || s.CompletedAt == nil {
		t.Errorf("Status = %v, CompletedAt = %v", s.Status, s.CompletedAt)
	}

	_, err := s.RecordResult("c1", CaseResult{Status: ResultPass})
	if !errors.Is(err, ErrInvalidStateVal) {
		t.Errorf("RecordResult() on completed session error = %v, want invalid state", err)
	}
	if err := s.Abort("late"); !errors.Is(err, ErrInvalidStateVal) {
		t.Errorf("Abort() on completed session error = %v, want invalid state", err)
	}

	s2 := newTestSession(t)
	if err := s2.Abort(" "); !IsValidationError(err) {
		t.Errorf("Abort() without reason error = %v, want validation error", err)
	}
	if err := s2.Abort("Build crashed on launch"); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	if s2.Status != SessionAborted || s2.ReasonForIncompletion != "Build crashed on launch" {
		t.Errorf("Status = %v, reason = %q", s2.Status, s2.ReasonForIncompletion)
	}
}
