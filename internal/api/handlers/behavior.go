package handlers

import (
	"net/http"
	"strings"

	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// maxRequirementBytes bounds the free text accepted by the behavior engine
const maxRequirementBytes = 64 << 10

// BehaviorHandler drafts test cases from free-text requirements
type BehaviorHandler struct {
	engine  *behavior.Engine
	metrics *observability.Metrics
}

// NewBehaviorHandler creates a new behavior handler
func NewBehaviorHandler(engine *behavior.Engine, metrics *observability.Metrics) *BehaviorHandler {
	return &BehaviorHandler{engine: engine, metrics: metrics}
}

// BehaviorRequest is the request body for drafting cases
type BehaviorRequest struct {
	Text string `json:"text"`
}

// BehaviorResponse carries the decomposed requirement and its cases
type BehaviorResponse struct {
	Spec  *behavior.Spec           `json:"spec"`
	Cases []behavior.DraftTestCase `json:"cases"`
}

// Cases handles POST /api/v1/behavior/cases
func (h *BehaviorHandler) Cases(w http.ResponseWriter, r *http.Request) {
	var req BehaviorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("text", "text is required"))
		return
	}
	if len(req.Text) > maxRequirementBytes {
		httputil.ErrorFromDomain(w, domain.ErrPayloadTooLarge(maxRequirementBytes))
		return
	}

	spec := behavior.Decompose(req.Text)
	cases := h.engine.GenerateFromSpec(spec, req.Text)
	h.metrics.RecordCasesGenerated(string(domain.SourceRules), len(cases))

	httputil.JSON(w, http.StatusOK, BehaviorResponse{Spec: spec, Cases: cases})
}
