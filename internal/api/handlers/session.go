package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/internal/services/reporting"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// SessionHandler handles execution session endpoints
type SessionHandler struct {
	sessions domain.SessionRepository
	cases    domain.TestCaseRepository
	reports  *reporting.Generator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	sessions domain.SessionRepository,
	cases domain.TestCaseRepository,
	reports *reporting.Generator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SessionHandler {
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &SessionHandler{
		sessions: sessions,
		cases:    cases,
		reports:  reports,
		metrics:  metrics,
		logger:   logger,
	}
}

// SessionCaseInput is a case typed in or uploaded for a session
type SessionCaseInput struct {
	ID             string `json:"id,omitempty"`
	TestBed        string `json:"test_bed,omitempty"`
	Title          string `json:"title"`
	Steps          string `json:"steps"`
	ExpectedResult string `json:"expected_result"`
}

// CreateSessionRequest represents the request body for starting a session.
// Cases come either inline or as repository case ids.
type CreateSessionRequest struct {
	Platform  domain.PlatformDetails `json:"platform_details"`
	TestCases []SessionCaseInput     `json:"test_cases,omitempty"`
	CaseIDs   []uuid.UUID            `json:"case_ids,omitempty"`
}

// SessionListItem is the summary row of a session listing
type SessionListItem struct {
	ID          uuid.UUID              `json:"id"`
	Platform    domain.PlatformDetails `json:"platform_details"`
	Status      domain.SessionStatus   `json:"status"`
	Summary     domain.SessionSummary  `json:"summary"`
	PassRate    float64                `json:"pass_rate"`
	Duration    string                 `json:"duration"`
	CreatedAt   string                 `json:"created_at"`
	CompletedAt string                 `json:"completed_at,omitempty"`
}

func toSessionListItem(s *domain.TestSession) SessionListItem {
	item := SessionListItem{
		ID:        s.ID,
		Platform:  s.Platform,
		Status:    s.Status,
		Summary:   s.Summary,
		PassRate:  reporting.PassRate(s.Summary),
		Duration:  reporting.Duration(s),
		CreatedAt: s.CreatedAt.Format(timeFormat),
	}
	if s.CompletedAt != nil {
		item.CompletedAt = s.CompletedAt.Format(timeFormat)
	}
	return item
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	cases, err := h.sessionCases(r, req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	session, err := domain.NewTestSession(middleware.GetActor(r.Context()), req.Platform, cases)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := h.sessions.Create(r.Context(), session); err != nil {
		h.logger.Error("Failed to create session", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("Session started",
		zap.String("session_id", session.ID.String()),
		zap.String("platform", string(session.Platform.Platform)),
		zap.Int("cases", len(session.TestCases)),
	)

	httputil.JSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) sessionCases(r *http.Request, req CreateSessionRequest) ([]domain.SessionCase, error) {
	if len(req.CaseIDs) == 0 {
		cases := make([]domain.SessionCase, len(req.TestCases))
		for i, c := range req.TestCases {
			cases[i] = domain.SessionCase{
				ID:             c.ID,
				TestBed:        c.TestBed,
				Title:          c.Title,
				Steps:          c.Steps,
				ExpectedResult: c.ExpectedResult,
			}
		}
		return cases, nil
	}

	found, err := h.cases.ListByIDs(r.Context(), req.CaseIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.ManagedTestCase, len(found))
	for _, tc := range found {
		byID[tc.ID] = tc
	}

	cases := make([]domain.SessionCase, 0, len(req.CaseIDs))
	for _, id := range req.CaseIDs {
		tc, ok := byID[id]
		if !ok {
			return nil, domain.NotFoundError("test case", id)
		}
		cases = append(cases, domain.SessionCase{
			ID:             tc.ID.String(),
			TestBed:        tc.Module,
			Title:          tc.Title,
			Steps:          strings.Join(tc.TestSteps, "\n"),
			ExpectedResult: tc.ExpectedResult,
		})
	}
	return cases, nil
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	p := httputil.GetPagination(r, 20, 100)

	sessions, total, err := h.sessions.ListByUser(r.Context(), userID, p.ListFilter())
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	items := make([]SessionListItem, len(sessions))
	for i, s := range sessions {
		items[i] = toSessionListItem(s)
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, &httputil.Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: httputil.CalculateTotalPages(total, p.PerPage),
	})
}

// Get handles GET /api/v1/sessions/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.JSON(w, http.StatusOK, session)
}

// UpdateCase handles PUT /api/v1/sessions/{sessionID}/cases/{caseID}
func (h *SessionHandler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}

	var req domain.CaseResult
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	updated, err := session.RecordResult(chi.URLParam(r, "caseID"), req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.sessions.Update(r.Context(), session); err != nil {
		h.logger.Error("Failed to save session result", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.metrics.RecordSessionResult(string(updated.Status))
	httputil.JSON(w, http.StatusOK, map[string]any{
		"test_case": updated,
		"summary":   session.Summary,
	})
}

// AbortRequest carries the reason a session ended early
type AbortRequest struct {
	Reason string `json:"reason"`
}

// Complete handles POST /api/v1/sessions/{sessionID}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}
	h.finish(w, r, session, session.Complete())
}

// Abort handles POST /api/v1/sessions/{sessionID}/abort
func (h *SessionHandler) Abort(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}

	var req AbortRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	h.finish(w, r, session, session.Abort(req.Reason))
}

func (h *SessionHandler) finish(w http.ResponseWriter, r *http.Request, session *domain.TestSession, err error) {
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.sessions.Update(r.Context(), session); err != nil {
		h.logger.Error("Failed to finish session", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("Session finished",
		zap.String("session_id", session.ID.String()),
		zap.String("status", string(session.Status)),
	)
	httputil.JSON(w, http.StatusOK, toSessionListItem(session))
}

// Export handles GET /api/v1/sessions/{sessionID}/export. The CSV is sent
// as a download unless publish=true, which uploads it and returns a link.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("publish") == "true" {
		export, err := h.reports.Publish(r.Context(), session)
		if err != nil {
			httputil.ErrorFromDomain(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, export)
		return
	}

	data, err := reporting.SessionCSV(session)
	if err != nil {
		h.logger.Error("Failed to build export", zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrInternal("could not build export"))
		return
	}
	writeCSV(w, reporting.FileName(session), data)
}

// Report handles GET /api/v1/sessions/{sessionID}/report
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	session, ok := h.load(w, r)
	if !ok {
		return
	}

	html, err := h.reports.RenderHTML(session)
	if err != nil {
		h.logger.Error("Failed to render report", zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrInternal("could not render report"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ExportAll handles GET /api/v1/sessions/export, one summary row per
// session of the caller
func (h *SessionHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	sessions, _, err := h.sessions.ListByUser(r.Context(), userID, domain.ListFilter{Limit: 1000})
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	data, err := reporting.SummaryCSV(sessions)
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ErrInternal("could not build export"))
		return
	}
	writeCSV(w, "sessions-summary.csv", data)
}

// load fetches the session in the URL. Sessions of other users read as
// missing.
func (h *SessionHandler) load(w http.ResponseWriter, r *http.Request) (*domain.TestSession, bool) {
	id, ok := pathID(w, r, "sessionID", "session")
	if !ok {
		return nil, false
	}

	session, err := h.sessions.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return nil, false
	}
	if userID, _ := middleware.GetUserID(r.Context()); session.UserID != userID {
		httputil.ErrorFromDomain(w, domain.NotFoundError("session", id))
		return nil, false
	}
	return session, true
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
