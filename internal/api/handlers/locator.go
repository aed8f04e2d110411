package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/locator"
	"github.com/zenit-qa/zenit/internal/services/locators"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// LocatorHandler serves locator generation, page scraping and healing
type LocatorHandler struct {
	svc    *locators.Service
	logger *zap.Logger
}

// NewLocatorHandler creates a new locator handler
func NewLocatorHandler(svc *locators.Service, logger *zap.Logger) *LocatorHandler {
	return &LocatorHandler{svc: svc, logger: logger}
}

// GenerateResponse wraps engine output
type GenerateResponse struct {
	Output *locator.Output `json:"output"`
}

// Generate handles POST /api/v1/locators/generate
func (h *LocatorHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req locators.GenerateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	out, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, GenerateResponse{Output: out})
}

// Scrape handles POST /api/v1/locators/scrape
func (h *LocatorHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req locators.ScrapeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	res, err := h.svc.Scrape(r.Context(), req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// Heal handles POST /api/v1/locators/heal
func (h *LocatorHandler) Heal(w http.ResponseWriter, r *http.Request) {
	var req locators.HealRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	m, err := h.svc.Heal(r.Context(), req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, m)
}
