package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
)

func testSession(t *testing.T) *domain.TestSession {
	t.Helper()
	s, err := domain.NewTestSession(
		domain.Actor{ID: "u1", Name: "Dana"},
		domain.PlatformDetails{Platform: domain.PlatformMobileAndroid, Device: "Pixel 8", AppVersion: "4.2"},
		[]domain.SessionCase{
			{ID: "c1", Title: "Login", Steps: "Open app\nSign in", ExpectedResult: "Home shown"},
			{ID: "c2", Title: "Logout, then back", Steps: "Tap logout", ExpectedResult: "Login shown"},
			{ID: "c3", Title: "Offline", Steps: "Disable wifi", ExpectedResult: "Banner"},
		},
	)
	require.NoError(t, err)

	_, err = s.RecordResult("c1", domain.CaseResult{Status: domain.ResultPass})
	require.NoError(t, err)
	_, err = s.RecordResult("c2", domain.CaseResult{Status: domain.ResultFail, BugID: "BUG-7", ActualResult: "Crash"})
	require.NoError(t, err)
	return s
}

type memExports struct {
	data map[string][]byte
	err  error
}

func (m *memExports) SaveExport(_ context.Context, id uuid.UUID, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	key := "exports/" + id.String() + "/now.csv"
	m.data[key] = data
	return key, nil
}

func (m *memExports) GetPresignedURL(_ context.Context, key string) (string, error) {
	return "https://minio.test/" + key + "?sig=1", nil
}

func TestSessionCSV(t *testing.T) {
	s := testSession(t)

	data, err := SessionCSV(s)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, caseHeader, rows[0])
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "Open app\nSign in", rows[1][6])
	assert.Equal(t, "Pass", rows[1][9])
	assert.NotEmpty(t, rows[1][13])
	assert.Equal(t, "Logout, then back", rows[2][5])
	assert.Equal(t, "BUG-7", rows[2][10])
	assert.Equal(t, "Untested", rows[3][9])
	assert.Empty(t, rows[3][13])
}

func TestSummaryCSV(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Abort("build broke"))

	data, err := SummaryCSV([]*domain.TestSession{s})
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"3", "1", "1", "0", "0", "1"}, rows[1][10:])
	assert.Equal(t, "aborted", rows[1][9])
	assert.Equal(t, "Pixel 8", rows[1][5])
}

func TestDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  *time.Time
		want string
	}{
		{"in progress", nil, "In progress"},
		{"seconds", ptr(start.Add(20 * time.Second)), "under a minute"},
		{"minutes", ptr(start.Add(25 * time.Minute)), "25 minutes"},
		{"hour", ptr(start.Add(time.Hour + time.Minute)), "1 hour 1 minute"},
		{"hours", ptr(start.Add(2 * time.Hour)), "2 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.TestSession{CompletedAt: tt.end}
			s.CreatedAt = start
			if got := Duration(s); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPassRate(t *testing.T) {
	assert.Equal(t, 0.0, PassRate(domain.SessionSummary{NA: 2}))
	assert.InDelta(t, 50.0, PassRate(domain.SessionSummary{Pass: 1, Fail: 1, Untested: 4}), 1e-9)
}

func TestPublish(t *testing.T) {
	store := &memExports{}
	metrics := observability.NewMetrics("test")
	g, err := NewGenerator(store, metrics, zap.NewNop())
	require.NoError(t, err)
	s := testSession(t)

	exp, err := g.Publish(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, s.ID, exp.SessionID)
	assert.Contains(t, exp.URL, exp.Key)
	assert.Equal(t, len(store.data[exp.Key]), exp.Size)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ExportsUploaded))
}

func TestPublish_Errors(t *testing.T) {
	g, err := NewGenerator(nil, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = g.Publish(context.Background(), testSession(t))
	assert.Equal(t, domain.ErrCodeServiceUnavail, domain.GetErrorCode(err))

	g, err = NewGenerator(&memExports{err: errors.New("bucket gone")}, nil, zap.NewNop())
	require.NoError(t, err)
	_, err = g.Publish(context.Background(), testSession(t))
	assert.Equal(t, domain.ErrCodeServiceUnavail, domain.GetErrorCode(err))
}

func TestRenderHTML(t *testing.T) {
	g, err := NewGenerator(nil, nil, zap.NewNop())
	require.NoError(t, err)
	s := testSession(t)
	s.TestCases[2].Title = "<script>alert(1)</script>"

	html, err := g.RenderHTML(s)
	require.NoError(t, err)

	assert.Contains(t, html, "Session Report")
	assert.Contains(t, html, "Pixel 8")
	assert.Contains(t, html, `class="status-Fail"`)
	assert.Contains(t, html, "BUG-7")
	assert.Contains(t, html, "50%")
	assert.NotContains(t, html, "<script>alert")
}

func TestFileName(t *testing.T) {
	s := testSession(t)
	s.CreatedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	name := FileName(s)
	assert.True(t, strings.HasPrefix(name, "mobile-android-20240301-"), name)
	assert.True(t, strings.HasSuffix(name, ".csv"))
}

func ptr(t time.Time) *time.Time { return &t }
