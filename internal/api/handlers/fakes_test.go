package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

var tester = domain.Actor{ID: "u-1", Name: "Tess"}

// newRequest builds a request with chi URL params and, when actor is set,
// the caller identity
func newRequest(method, target string, body io.Reader, params map[string]string, actor *domain.Actor) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actor != nil {
		ctx = middleware.WithActor(ctx, *actor)
	}
	return req.WithContext(ctx)
}

func jsonBody(s string) io.Reader {
	return bytes.NewBufferString(s)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// decodeData re-decodes the envelope data into v
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	require.True(t, resp.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

type memTestCases struct {
	domain.TestCaseRepository
	mu    sync.Mutex
	cases map[uuid.UUID]*domain.ManagedTestCase
	tags  map[uuid.UUID]string
}

func newMemTestCases(cases ...*domain.ManagedTestCase) *memTestCases {
	m := &memTestCases{cases: make(map[uuid.UUID]*domain.ManagedTestCase)}
	for _, tc := range cases {
		m.cases[tc.ID] = tc
	}
	return m
}

func (m *memTestCases) Create(_ context.Context, tc *domain.ManagedTestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[tc.ID] = tc
	return nil
}

func (m *memTestCases) CreateBatch(ctx context.Context, tcs []*domain.ManagedTestCase) error {
	for _, tc := range tcs {
		m.Create(ctx, tc)
	}
	return nil
}

func (m *memTestCases) GetByID(_ context.Context, id uuid.UUID) (*domain.ManagedTestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tc, ok := m.cases[id]
	if !ok {
		return nil, domain.NotFoundError("test case", id)
	}
	return tc, nil
}

func (m *memTestCases) List(_ context.Context, filter domain.TestCaseFilter) ([]*domain.ManagedTestCase, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ManagedTestCase
	for _, tc := range m.cases {
		if filter.Module != "" && tc.Module != filter.Module {
			continue
		}
		if filter.Status != "" && tc.Status != filter.Status {
			continue
		}
		out = append(out, tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (m *memTestCases) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.ManagedTestCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ManagedTestCase
	for _, id := range ids {
		if tc, ok := m.cases[id]; ok {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (m *memTestCases) Update(_ context.Context, tc *domain.ManagedTestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[tc.ID] = tc
	return nil
}

func (m *memTestCases) UpdateAutomationTags(_ context.Context, tags map[uuid.UUID]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = tags
	for id, tag := range tags {
		if tc, ok := m.cases[id]; ok {
			tc.AutomationTag = tag
		}
	}
	return nil
}

func (m *memTestCases) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[id]; !ok {
		return domain.NotFoundError("test case", id)
	}
	delete(m.cases, id)
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.TestSession
	updates  int
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[uuid.UUID]*domain.TestSession)}
}

func (m *memSessions) Create(_ context.Context, s *domain.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id uuid.UUID) (*domain.TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.NotFoundError("session", id)
	}
	return s, nil
}

func (m *memSessions) ListByUser(_ context.Context, userID string, _ domain.ListFilter) ([]*domain.TestSession, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.TestSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memSessions) Update(_ context.Context, s *domain.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.updates++
	return nil
}

type memDevices struct {
	mu      sync.Mutex
	devices map[uuid.UUID]*domain.Device
	logs    []*domain.AuditLog
}

func newMemDevices(devices ...*domain.Device) *memDevices {
	m := &memDevices{devices: make(map[uuid.UUID]*domain.Device)}
	for _, d := range devices {
		m.devices[d.ID] = d
	}
	return m
}

func (m *memDevices) Create(_ context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = d
	return nil
}

func (m *memDevices) GetByID(_ context.Context, id uuid.UUID) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, domain.NotFoundError("device", id)
	}
	return d, nil
}

func (m *memDevices) List(_ context.Context, status domain.DeviceStatus, auditPendingOnly bool) ([]*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Device
	for _, d := range m.devices {
		if status != "" && d.Status != status {
			continue
		}
		if auditPendingOnly && d.AuditStatus != domain.AuditPending {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDevices) Update(_ context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = d
	return nil
}

func (m *memDevices) UpdateWithAudit(ctx context.Context, d *domain.Device, log *domain.AuditLog) error {
	m.Update(ctx, d)
	if log == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *memDevices) ListAuditLogs(_ context.Context, limit int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.logs) > limit {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

type memWorkLogs struct {
	mu      sync.Mutex
	entries []*domain.WorkLog
	filters []domain.WorkLogFilter
}

func (m *memWorkLogs) Create(_ context.Context, w *domain.WorkLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, w)
	return nil
}

func (m *memWorkLogs) List(_ context.Context, filter domain.WorkLogFilter) ([]*domain.WorkLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	var out []*domain.WorkLog
	for _, e := range m.entries {
		if e.UserID == filter.UserID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memWorkLogs) HoursByProject(ctx context.Context, filter domain.WorkLogFilter) ([]domain.ProjectHours, error) {
	logs, _ := m.List(ctx, filter)
	return domain.SumByProject(logs), nil
}
