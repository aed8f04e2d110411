package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// TestCaseHandler handles the shared test case repository
type TestCaseHandler struct {
	repo   domain.TestCaseRepository
	logger *zap.Logger
}

// NewTestCaseHandler creates a new test case handler
func NewTestCaseHandler(repo domain.TestCaseRepository, logger *zap.Logger) *TestCaseHandler {
	return &TestCaseHandler{repo: repo, logger: logger}
}

// TestCaseRequest is the editable part of a repository case
type TestCaseRequest struct {
	Title          string                `json:"title"`
	Module         string                `json:"module"`
	Priority       domain.Priority       `json:"priority,omitempty"`
	Status         domain.TestCaseStatus `json:"status,omitempty"`
	Preconditions  string                `json:"preconditions,omitempty"`
	TestData       string                `json:"test_data,omitempty"`
	TestSteps      []string              `json:"test_steps"`
	ExpectedResult string                `json:"expected_result"`
	Source         domain.TestCaseSource `json:"source,omitempty"`
	Phase          string                `json:"phase,omitempty"`
}

func (req TestCaseRequest) apply(tc *domain.ManagedTestCase) {
	tc.Title = req.Title
	tc.Module = req.Module
	tc.Priority = req.Priority
	tc.Status = req.Status
	tc.Preconditions = req.Preconditions
	tc.TestData = req.TestData
	tc.TestSteps = domain.StringList(req.TestSteps)
	tc.ExpectedResult = req.ExpectedResult
	if req.Source != "" {
		tc.Source = req.Source
	}
	if req.Phase != "" {
		tc.Phase = req.Phase
	}
}

// List handles GET /api/v1/repository/cases
func (h *TestCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	p := httputil.GetPagination(r, 50, 200)
	filter := domain.TestCaseFilter{
		Module:     r.URL.Query().Get("module"),
		Status:     domain.TestCaseStatus(r.URL.Query().Get("status")),
		ListFilter: p.ListFilter(),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		httputil.ErrorFromDomain(w, domain.ValidationError("status", "unknown status: "+string(filter.Status)))
		return
	}

	cases, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list test cases", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}
	if cases == nil {
		cases = []*domain.ManagedTestCase{}
	}

	httputil.JSONWithMeta(w, http.StatusOK, cases, &httputil.Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: httputil.CalculateTotalPages(total, p.PerPage),
	})
}

// Create handles POST /api/v1/repository/cases
func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TestCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	actor := middleware.GetActor(r.Context())
	tc := domain.NewManagedTestCase(actor, "", "", nil, "")
	req.apply(tc)
	if err := tc.Normalize(); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), tc); err != nil {
		h.logger.Error("Failed to create test case", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("Test case created",
		zap.String("test_case_id", tc.ID.String()),
		zap.String("module", tc.Module),
	)
	httputil.JSON(w, http.StatusCreated, tc)
}

// Get handles GET /api/v1/repository/cases/{caseID}
func (h *TestCaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "caseID", "test case")
	if !ok {
		return
	}

	tc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tc)
}

// Update handles PUT /api/v1/repository/cases/{caseID}
func (h *TestCaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "caseID", "test case")
	if !ok {
		return
	}

	var req TestCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	tc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	req.apply(tc)
	if err := tc.Normalize(); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	tc.MarkUpdatedBy(middleware.GetActor(r.Context()))

	if err := h.repo.Update(r.Context(), tc); err != nil {
		h.logger.Error("Failed to update test case", zap.Error(err))
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tc)
}

// Delete handles DELETE /api/v1/repository/cases/{caseID}
func (h *TestCaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "caseID", "test case")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	h.logger.Info("Test case deleted", zap.String("test_case_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// AutomationTagsRequest lists the cases to tag
type AutomationTagsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// AutomationTags handles POST /api/v1/repository/automation-tags
func (h *TestCaseHandler) AutomationTags(w http.ResponseWriter, r *http.Request) {
	var req AutomationTagsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if len(req.IDs) == 0 {
		httputil.ErrorFromDomain(w, domain.ValidationError("ids", "at least one id is required"))
		return
	}

	cases, err := h.repo.ListByIDs(r.Context(), req.IDs)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	tags := domain.AutomationTags(cases)
	if len(tags) > 0 {
		if err := h.repo.UpdateAutomationTags(r.Context(), tags); err != nil {
			h.logger.Error("Failed to save automation tags", zap.Error(err))
			httputil.ErrorFromDomain(w, err)
			return
		}
	}

	h.logger.Info("Automation tags generated", zap.Int("count", len(tags)))
	httputil.JSON(w, http.StatusOK, map[string]any{"tags": tags})
}
