package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/api/middleware"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/temporal"
	"github.com/zenit-qa/zenit/internal/workflows"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// MaxDocumentBytes bounds uploaded requirements documents
const MaxDocumentBytes = 10 << 20

// ExtractionStarter runs document extraction in the background
type ExtractionStarter interface {
	StartPRDExtraction(ctx context.Context, input workflows.PRDExtractionInput) (*temporal.WorkflowStatus, error)
	PRDExtractionResult(ctx context.Context, workflowID string) (*temporal.WorkflowStatus, *workflows.PRDExtractionOutput, error)
}

// PRDHandler turns requirements documents into repository cases
type PRDHandler struct {
	svc     *prd.Service
	starter ExtractionStarter
	logger  *zap.Logger
}

// NewPRDHandler creates a new PRD handler. starter may be nil, in which case
// async requests are rejected.
func NewPRDHandler(svc *prd.Service, starter ExtractionStarter, logger *zap.Logger) *PRDHandler {
	return &PRDHandler{svc: svc, starter: starter, logger: logger}
}

// ExtractBody is the JSON form of an extraction request
type ExtractBody struct {
	StoragePath string `json:"storage_path"`
	Phase       string `json:"phase,omitempty"`
	Module      string `json:"module,omitempty"`
	Async       bool   `json:"async,omitempty"`
	TagCases    bool   `json:"tag_cases,omitempty"`
}

// JobResponse describes a background extraction
type JobResponse struct {
	*temporal.WorkflowStatus
	StoragePath string                         `json:"storage_path,omitempty"`
	Result      *workflows.PRDExtractionOutput `json:"result,omitempty"`
}

// Extract handles POST /api/v1/prd/extract. A multipart request carries the
// document in the "file" field; a JSON request names a stored document.
func (h *PRDHandler) Extract(w http.ResponseWriter, r *http.Request) {
	body, req, err := h.readRequest(w, r)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	req.Actor = middleware.GetActor(r.Context())

	if body.Async {
		h.startAsync(w, r, body, req)
		return
	}

	res, err := h.svc.Extract(r.Context(), req)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	status := http.StatusCreated
	if res.NeedsPhase {
		status = http.StatusOK
	}
	h.logger.Info("PRD extracted",
		zap.String("storage_path", res.StoragePath),
		zap.Bool("need_phase", res.NeedsPhase),
		zap.Int("saved", len(res.Saved)),
	)
	httputil.JSON(w, status, res)
}

func (h *PRDHandler) startAsync(w http.ResponseWriter, r *http.Request, body ExtractBody, req prd.ExtractRequest) {
	if h.starter == nil {
		httputil.ErrorFromDomain(w, domain.ErrServiceUnavailable("workflow engine"))
		return
	}

	path := req.StoragePath
	if len(req.Data) > 0 {
		var err error
		if path, err = h.svc.Store(r.Context(), req.Filename, req.Data); err != nil {
			httputil.ErrorFromDomain(w, err)
			return
		}
	}

	status, err := h.starter.StartPRDExtraction(r.Context(), workflows.PRDExtractionInput{
		StoragePath: path,
		Phase:       req.Phase,
		Module:      req.Module,
		Actor:       req.Actor,
		TagCases:    body.TagCases,
	})
	if err != nil {
		h.logger.Error("Failed to start PRD extraction", zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrServiceUnavailable("workflow engine").WithCause(err))
		return
	}

	httputil.JSON(w, http.StatusAccepted, JobResponse{WorkflowStatus: status, StoragePath: path})
}

// Job handles GET /api/v1/prd/jobs/{workflowID}
func (h *PRDHandler) Job(w http.ResponseWriter, r *http.Request) {
	if h.starter == nil {
		httputil.ErrorFromDomain(w, domain.ErrServiceUnavailable("workflow engine"))
		return
	}

	id := chi.URLParam(r, "workflowID")
	status, out, err := h.starter.PRDExtractionResult(r.Context(), id)
	if err != nil {
		h.logger.Warn("Failed to read PRD extraction", zap.String("workflow_id", id), zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrNotFound("extraction", id))
		return
	}

	httputil.JSON(w, http.StatusOK, JobResponse{WorkflowStatus: status, Result: out})
}

func (h *PRDHandler) readRequest(w http.ResponseWriter, r *http.Request) (ExtractBody, prd.ExtractRequest, error) {
	var body ExtractBody
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := httputil.DecodeJSON(r, &body); err != nil {
			return body, prd.ExtractRequest{}, err
		}
		return body, prd.ExtractRequest{StoragePath: body.StoragePath, Phase: body.Phase, Module: body.Module}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentBytes+1<<20)
	if err := r.ParseMultipartForm(MaxDocumentBytes); err != nil {
		return body, prd.ExtractRequest{}, domain.ErrPayloadTooLarge(MaxDocumentBytes).WithCause(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return body, prd.ExtractRequest{}, domain.ErrValidationField("file", "a document file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxDocumentBytes+1))
	if err != nil {
		return body, prd.ExtractRequest{}, domain.ErrValidationField("file", "could not read document")
	}
	if len(data) > MaxDocumentBytes {
		return body, prd.ExtractRequest{}, domain.ErrPayloadTooLarge(MaxDocumentBytes)
	}

	body.Phase = r.FormValue("phase")
	body.Module = r.FormValue("module")
	body.Async, _ = strconv.ParseBool(r.FormValue("async"))
	body.TagCases, _ = strconv.ParseBool(r.FormValue("tag_cases"))

	return body, prd.ExtractRequest{
		Filename: header.Filename,
		Data:     data,
		Phase:    body.Phase,
		Module:   body.Module,
	}, nil
}
