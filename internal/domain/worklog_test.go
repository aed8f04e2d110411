package domain

import (
	"testing"
	"time"
)

func TestNewWorkLog(t *testing.T) {
	day := time.Date(2026, 5, 12, 17, 30, 0, 0, time.UTC)

	w, err := NewWorkLog("u-1", " Mobile App ", day, 2.5, "API testing")
	if err != nil {
		t.Fatalf("NewWorkLog() error = %v", err)
	}
	if w.Project != "Mobile App" {
		t.Errorf("Project = %q", w.Project)
	}
	if !w.Date.Equal(time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want start of day", w.Date)
	}

	tests := []struct {
		name    string
		user    string
		project string
		hours   float64
	}{
		{"no user", "", "p", 1},
		{"no project", "u", " ", 1},
		{"zero hours", "u", "p", 0},
		{"negative hours", "u", "p", -1},
		{"too many hours", "u", "p", 24.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorkLog(tt.user, tt.project, day, tt.hours, ""); !IsValidationError(err) {
				t.Errorf("NewWorkLog() error = %v, want validation error", err)
			}
		})
	}

	if _, err := NewWorkLog("u", "p", day, MaxHoursPerEntry, ""); err != nil {
		t.Errorf("NewWorkLog() with 24h error = %v", err)
	}
}

func TestSumByProject(t *testing.T) {
	logs := []*WorkLog{
		{Project: "Dashboard", Hours: 2},
		{Project: "Zenit Platform", Hours: 3},
		{Project: "Dashboard", Hours: 1.5},
		{Project: "Zenit Platform", Hours: 4},
	}

	got := SumByProject(logs)
	want := []ProjectHours{
		{Project: "Zenit Platform", Hours: 7, Entries: 2},
		{Project: "Dashboard", Hours: 3.5, Entries: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("SumByProject() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SumByProject()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if SumByProject(nil) != nil {
		t.Error("SumByProject(nil) should be nil")
	}
}
