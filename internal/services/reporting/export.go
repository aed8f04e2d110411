package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zenit-qa/zenit/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

var caseHeader = []string{
	"Session ID", "Tester Name", "Platform", "Order", "Test Bed",
	"Test Case Title", "Test Steps", "Expected Result", "Actual Result",
	"Status", "Bug ID", "N/A Reason", "Notes", "Test Case Last Modified",
}

var summaryHeader = []string{
	"Session ID", "Session Date", "Tester Name", "Session Duration", "Platform",
	"Device Model", "OS Version", "App Version", "Build", "Status",
	"Total Cases", "Passed", "Failed (New)", "Failed (Known)", "N/A", "Untested",
}

// SessionCSV writes one row per case of the session
func SessionCSV(s *domain.TestSession) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(caseHeader); err != nil {
		return nil, err
	}

	for _, c := range s.TestCases {
		modified := ""
		if c.LastModified != nil {
			modified = c.LastModified.UTC().Format(timeLayout)
		}
		row := []string{
			s.ID.String(),
			s.UserName,
			string(s.Platform.Platform),
			strconv.Itoa(c.OrderIndex + 1),
			c.TestBed,
			c.Title,
			c.Steps,
			c.ExpectedResult,
			c.ActualResult,
			string(c.Status),
			c.BugID,
			c.NAReason,
			c.Notes,
			modified,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing case %s: %w", c.ID, err)
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// SummaryCSV writes one row per session with its result counts
func SummaryCSV(sessions []*domain.TestSession) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(summaryHeader); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		row := []string{
			s.ID.String(),
			s.CreatedAt.UTC().Format(timeLayout),
			s.UserName,
			Duration(s),
			string(s.Platform.Platform),
			s.Platform.Device,
			s.Platform.OSVersion,
			s.Platform.AppVersion,
			s.Platform.Build,
			string(s.Status),
			strconv.Itoa(s.Summary.Total),
			strconv.Itoa(s.Summary.Pass),
			strconv.Itoa(s.Summary.Fail),
			strconv.Itoa(s.Summary.FailKnown),
			strconv.Itoa(s.Summary.NA),
			strconv.Itoa(s.Summary.Untested),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing session %s: %w", s.ID, err)
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// Duration formats how long a finished session ran, or "In progress"
func Duration(s *domain.TestSession) string {
	if s.CompletedAt == nil {
		return "In progress"
	}
	d := s.CompletedAt.Sub(s.CreatedAt).Round(time.Minute)
	if d < time.Minute {
		return "under a minute"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	var parts []string
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// PassRate is the share of executed cases that passed, in percent. N/A and
// untested cases are not executed.
func PassRate(sum domain.SessionSummary) float64 {
	executed := sum.Pass + sum.Fail + sum.FailKnown
	if executed == 0 {
		return 0
	}
	return float64(sum.Pass) / float64(executed) * 100
}
