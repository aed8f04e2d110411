package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/clevertap"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// CleverTapHandler parses analytics event markup
type CleverTapHandler struct {
	logger *zap.Logger
}

// NewCleverTapHandler creates a new CleverTap handler
func NewCleverTapHandler(logger *zap.Logger) *CleverTapHandler {
	return &CleverTapHandler{logger: logger}
}

// ParamsRequest carries pasted event detail markup
type ParamsRequest struct {
	HTML string `json:"html"`
}

// Params handles POST /api/v1/clevertap/params
func (h *CleverTapHandler) Params(w http.ResponseWriter, r *http.Request) {
	var req ParamsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		httputil.ErrorFromDomain(w, domain.ValidationError("html", "html is required"))
		return
	}

	params, err := clevertap.ParseParams(req.HTML)
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ErrParseFailure(err))
		return
	}
	if params == nil {
		params = []clevertap.Param{}
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"params": params})
}

// Catalog handles GET /api/v1/clevertap/events
func (h *CleverTapHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	withAds := r.URL.Query().Get("ads") == "true"
	httputil.JSON(w, http.StatusOK, map[string]any{
		"content_types": clevertap.ContentTypes,
		"events":        clevertap.EventsFor(withAds),
	})
}

// SheetRequest carries the events captured in one verification pass
type SheetRequest struct {
	Events []clevertap.Event `json:"events"`
}

// Sheet handles POST /api/v1/clevertap/sheet and returns the master sheet
// as CSV
func (h *CleverTapHandler) Sheet(w http.ResponseWriter, r *http.Request) {
	var req SheetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if len(req.Events) == 0 {
		httputil.ErrorFromDomain(w, domain.ValidationError("events", "at least one event is required"))
		return
	}

	header, rows := clevertap.MasterSheet(req.Events)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="clevertap-master-sheet.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(header)
	cw.WriteAll(rows)
	if err := cw.Error(); err != nil {
		h.logger.Error("Failed to write master sheet", zap.Error(err))
	}
}
