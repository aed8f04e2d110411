package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

const dateFormat = "2006-01-02"

// WorkLogHandler handles Wrklog hour entries
type WorkLogHandler struct {
	repo    domain.WorkLogRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWorkLogHandler creates a new work log handler
func NewWorkLogHandler(repo domain.WorkLogRepository, metrics *observability.Metrics, logger *zap.Logger) *WorkLogHandler {
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &WorkLogHandler{repo: repo, metrics: metrics, logger: logger}
}

// CreateWorkLogRequest represents the request body for logging hours
type CreateWorkLogRequest struct {
	Project     string  `json:"project"`
	Date        string  `json:"date,omitempty"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
}

// Create handles POST /api/v1/wrklog/entries
func (h *WorkLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkLogRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		if date, err = time.Parse(dateFormat, req.Date); err != nil {
			httputil.ErrorFromDomain(w, domain.ValidationError("date", "date must be YYYY-MM-DD"))
			return
		}
	}

	userID, _ := middleware.GetUserID(r.Context())
	entry, err := domain.NewWorkLog(userID, req.Project, date, req.Hours, req.Description)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := h.repo.Create(r.Context(), entry); err != nil {
		h.logger.Error("Failed to log hours", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.metrics.RecordHoursLogged(entry.Hours)
	httputil.JSON(w, http.StatusCreated, entry)
}

// List handles GET /api/v1/wrklog/entries
func (h *WorkLogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	entries, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list work logs", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.WorkLog{}
	}
	httputil.JSON(w, http.StatusOK, entries)
}

// Projects handles GET /api/v1/wrklog/projects
func (h *WorkLogHandler) Projects(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.filter(w, r)
	if !ok {
		return
	}

	totals, err := h.repo.HoursByProject(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to total work logs", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if totals == nil {
		totals = []domain.ProjectHours{}
	}
	httputil.JSON(w, http.StatusOK, totals)
}

// filter scopes queries to the caller and the optional from/to dates
func (h *WorkLogHandler) filter(w http.ResponseWriter, r *http.Request) (domain.WorkLogFilter, bool) {
	userID, _ := middleware.GetUserID(r.Context())
	filter := domain.WorkLogFilter{
		UserID:     userID,
		ListFilter: httputil.GetPagination(r, 100, 500).ListFilter(),
	}

	for param, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		v := r.URL.Query().Get(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateFormat, v)
		if err != nil {
			httputil.ErrorFromDomain(w, domain.ValidationError(param, param+" must be YYYY-MM-DD"))
			return filter, false
		}
		*dst = t
	}
	return filter, true
}
