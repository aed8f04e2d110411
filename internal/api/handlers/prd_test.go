package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/services/prd"
	"github.com/zenit-qa/zenit/internal/storage"
	"github.com/zenit-qa/zenit/internal/temporal"
	"github.com/zenit-qa/zenit/internal/workflows"
)

const twoPhaseDoc = "Phase 1: Login\nUser must see the dashboard after login.\n\nPhase 2: Checkout\nEnter card number."

type memDocs struct {
	docs map[string][]byte
}

func (m *memDocs) SaveUpload(_ context.Context, filename string, data []byte) (string, error) {
	key := "prd-uploads/test/" + filename
	m.docs[key] = data
	return key, nil
}

func (m *memDocs) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.docs[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

type fakeStarter struct {
	started []workflows.PRDExtractionInput
	err     error
	output  *workflows.PRDExtractionOutput
}

func (f *fakeStarter) StartPRDExtraction(_ context.Context, input workflows.PRDExtractionInput) (*temporal.WorkflowStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, input)
	return &temporal.WorkflowStatus{
		WorkflowID: temporal.PRDWorkflowID(input.StoragePath, input.Phase),
		RunID:      "run-1",
		Status:     "Running",
		StartTime:  time.Now().UTC(),
	}, nil
}

func (f *fakeStarter) PRDExtractionResult(_ context.Context, workflowID string) (*temporal.WorkflowStatus, *workflows.PRDExtractionOutput, error) {
	if f.output == nil {
		return nil, nil, errors.New("workflow not found")
	}
	return &temporal.WorkflowStatus{WorkflowID: workflowID, Status: "Completed"}, f.output, nil
}

func newPRDFixture(starter ExtractionStarter) (*PRDHandler, *memDocs, *memTestCases) {
	docs := &memDocs{docs: make(map[string][]byte)}
	cases := newMemTestCases()
	svc := prd.NewService(docs, cases, behavior.NewEngine(nil), nil, zap.NewNop())
	return NewPRDHandler(svc, starter, zap.NewNop()), docs, cases
}

func multipartRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := newRequest(http.MethodPost, "/api/v1/prd/extract", &buf, nil, &tester)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPRDHandler_UploadAsksForPhase(t *testing.T) {
	h, docs, cases := newPRDFixture(nil)

	rec := httptest.NewRecorder()
	h.Extract(rec, multipartRequest(t, "prd.md", []byte(twoPhaseDoc), nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res prd.ExtractResult
	decodeData(t, rec, &res)
	assert.True(t, res.NeedsPhase)
	assert.Equal(t, []string{"Phase 1: Login", "Phase 2: Checkout"}, res.Phases)
	assert.Equal(t, "prd-uploads/test/prd.md", res.StoragePath)
	assert.Contains(t, docs.docs, res.StoragePath)
	assert.Empty(t, cases.cases)

	rec = httptest.NewRecorder()
	body := `{"storage_path":"prd-uploads/test/prd.md","phase":"Phase 1: Login","module":"Auth"}`
	h.Extract(rec, newRequest(http.MethodPost, "/", jsonBody(body), nil, &tester))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &res)
	assert.Equal(t, "Phase 1: Login", res.Phase)
	require.NotEmpty(t, res.Saved)
	assert.Len(t, cases.cases, len(res.Saved))
	for _, tc := range res.Saved {
		assert.Equal(t, "Tess", tc.LastUpdatedBy)
	}
}

func TestPRDHandler_Errors(t *testing.T) {
	h, _, _ := newPRDFixture(nil)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"missing document", newRequest(http.MethodPost, "/", jsonBody(`{}`), nil, &tester), http.StatusBadRequest},
		{"unknown storage path", newRequest(http.MethodPost, "/", jsonBody(`{"storage_path":"prd-uploads/x.md"}`), nil, &tester), http.StatusNotFound},
		{"corrupt pdf upload", multipartRequest(t, "prd.pdf", []byte("%PDF"), nil), http.StatusBadRequest},
		{"async without engine", newRequest(http.MethodPost, "/", jsonBody(`{"storage_path":"a.md","async":true}`), nil, &tester), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Extract(rec, tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestPRDHandler_Async(t *testing.T) {
	starter := &fakeStarter{}
	h, docs, _ := newPRDFixture(starter)

	rec := httptest.NewRecorder()
	h.Extract(rec, multipartRequest(t, "flows.txt", []byte(twoPhaseDoc), map[string]string{
		"async":     "true",
		"phase":     "Phase 2: Checkout",
		"tag_cases": "true",
	}))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, starter.started, 1)
	in := starter.started[0]
	assert.Equal(t, "prd-uploads/test/flows.txt", in.StoragePath)
	assert.Equal(t, "Phase 2: Checkout", in.Phase)
	assert.True(t, in.TagCases)
	assert.Equal(t, tester, in.Actor)
	assert.Contains(t, docs.docs, in.StoragePath)

	var job JobResponse
	decodeData(t, rec, &job)
	assert.Equal(t, temporal.PRDWorkflowID(in.StoragePath, in.Phase), job.WorkflowID)

	starter.err = errors.New("frontend unavailable")
	rec = httptest.NewRecorder()
	h.Extract(rec, newRequest(http.MethodPost, "/", jsonBody(`{"storage_path":"a.md","async":true}`), nil, &tester))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPRDHandler_Job(t *testing.T) {
	starter := &fakeStarter{}
	h, _, _ := newPRDFixture(starter)

	rec := httptest.NewRecorder()
	h.Job(rec, newRequest(http.MethodGet, "/", nil, map[string]string{"workflowID": "prd-extract-1"}, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	starter.output = &workflows.PRDExtractionOutput{Status: workflows.StatusCompleted, Phase: "Phase 1: Login"}
	rec = httptest.NewRecorder()
	h.Job(rec, newRequest(http.MethodGet, "/", nil, map[string]string{"workflowID": "prd-extract-1"}, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var job JobResponse
	decodeData(t, rec, &job)
	assert.Equal(t, "prd-extract-1", job.WorkflowID)
	require.NotNil(t, job.Result)
	assert.Equal(t, workflows.StatusCompleted, job.Result.Status)
}
