// Package prd turns uploaded requirements documents into repository test
// cases.
package prd

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/behavior"
	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
	"github.com/zenit-qa/zenit/internal/storage"
)

// DefaultAuthor is recorded on saved cases when the caller is anonymous
const DefaultAuthor = "PRD-Extractor"

// DocumentStore keeps uploaded documents
type DocumentStore interface {
	SaveUpload(ctx context.Context, filename string, data []byte) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Service extracts test cases from requirements documents
type Service struct {
	store   DocumentStore
	cases   domain.TestCaseRepository
	engine  *behavior.Engine
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a PRD service
func NewService(store DocumentStore, cases domain.TestCaseRepository, engine *behavior.Engine, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if engine == nil {
		engine = behavior.NewEngine(nil)
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &Service{
		store:   store,
		cases:   cases,
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// ExtractRequest names a document either by content or by a previously
// returned storage path. Phase picks one section of a multi-phase document.
type ExtractRequest struct {
	Filename    string       `json:"filename,omitempty"`
	Data        []byte       `json:"-"`
	StoragePath string       `json:"storage_path,omitempty"`
	Phase       string       `json:"phase,omitempty"`
	Module      string       `json:"module,omitempty"`
	Actor       domain.Actor `json:"actor"`
}

// Draft is a generated case with its display reference
type Draft struct {
	Ref string `json:"ref"`
	behavior.DraftTestCase
}

// ExtractResult reports either the phases to choose from or the saved cases
type ExtractResult struct {
	StoragePath string                    `json:"storage_path"`
	NeedsPhase  bool                      `json:"need_phase"`
	Phases      []string                  `json:"phases,omitempty"`
	Phase       string                    `json:"phase,omitempty"`
	Source      domain.TestCaseSource     `json:"source,omitempty"`
	Drafts      []Draft                   `json:"drafts,omitempty"`
	Saved       []*domain.ManagedTestCase `json:"saved,omitempty"`
}

// Store saves an uploaded document and returns its storage path
func (s *Service) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrValidationField("file", "document is empty")
	}
	if _, err := behavior.DocumentText(filename, data); err != nil {
		return "", domain.ErrValidationField("file", err.Error())
	}
	key, err := s.store.SaveUpload(ctx, filename, data)
	if err != nil {
		return "", domain.ErrServiceUnavailable("document storage").WithCause(err)
	}
	s.logger.Info("document stored", zap.String("path", key), zap.Int("bytes", len(data)))
	return key, nil
}

// Extract reads the document, asks for a phase when it has several and none
// was chosen, then generates and saves cases for the chosen phase.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	key := req.StoragePath
	data := req.Data
	filename := req.Filename

	switch {
	case len(data) > 0:
		var err error
		if key, err = s.Store(ctx, filename, data); err != nil {
			return nil, err
		}
	case key != "":
		var err error
		data, err = s.store.Download(ctx, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.ErrNotFound("document", key)
		}
		if err != nil {
			return nil, domain.ErrServiceUnavailable("document storage").WithCause(err)
		}
		filename = path.Base(key)
	default:
		return nil, domain.ErrValidationField("storage_path", "a document upload or storage_path is required")
	}

	text, err := behavior.DocumentText(filename, data)
	if err != nil {
		return nil, domain.ErrExtractionFailed(err.Error(), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrExtractionFailed("document has no text", nil)
	}

	phases := behavior.DetectPhases(text)
	if req.Phase == "" && len(phases) > 1 {
		return &ExtractResult{
			StoragePath: key,
			NeedsPhase:  true,
			Phases:      behavior.PhaseNames(phases),
		}, nil
	}
	selected := behavior.SelectPhase(phases, req.Phase, text)

	res := s.Generate(selected.Snippet, selected.Name)
	res.StoragePath = key

	saved, err := s.save(ctx, res, req)
	if err != nil {
		return nil, err
	}
	res.Saved = saved
	return res, nil
}

// Generate drafts cases for one phase. Text the rules only answer with an
// exploratory prompt is split into paragraph review cases instead.
func (s *Service) Generate(snippet, phase string) *ExtractResult {
	drafts := s.engine.Generate(snippet)
	source := domain.SourceRules
	if len(drafts) == 1 && drafts[0].Kind == behavior.KindExploratory {
		if fallback := behavior.ParagraphCases(snippet, phase); len(fallback) > 0 {
			drafts, source = fallback, domain.SourcePRD
		}
	}

	res := &ExtractResult{Phase: phase, Source: source, Drafts: make([]Draft, len(drafts))}
	for i, d := range drafts {
		res.Drafts[i] = Draft{Ref: behavior.FallbackID(i + 1), DraftTestCase: d}
	}
	s.metrics.RecordCasesGenerated(string(source), len(drafts))
	return res
}

func (s *Service) save(ctx context.Context, res *ExtractResult, req ExtractRequest) ([]*domain.ManagedTestCase, error) {
	actor := req.Actor
	if actor.Name == "" {
		actor.Name = DefaultAuthor
	}

	tcs := make([]*domain.ManagedTestCase, 0, len(res.Drafts))
	for _, d := range res.Drafts {
		tcs = append(tcs, toManaged(d.DraftTestCase, res, req.Module, actor))
	}
	if err := s.cases.CreateBatch(ctx, tcs); err != nil {
		s.logger.Error("saving extracted cases failed", zap.String("path", res.StoragePath), zap.Error(err))
		return nil, domain.ErrDatabase(err)
	}

	s.logger.Info("cases extracted",
		zap.String("path", res.StoragePath),
		zap.String("phase", res.Phase),
		zap.String("source", string(res.Source)),
		zap.Int("count", len(tcs)),
	)
	return tcs, nil
}

func toManaged(d behavior.DraftTestCase, res *ExtractResult, module string, actor domain.Actor) *domain.ManagedTestCase {
	if d.Module != "" {
		module = d.Module
	}
	if module == "" {
		module = res.Phase
	}
	expected := d.ExpectedResult
	if expected == "" {
		expected = "TBD"
	}

	tc := domain.NewManagedTestCase(actor, d.Title, module, d.Steps, expected)
	if p := domain.Priority(d.Priority); p.IsValid() {
		tc.Priority = p
	}
	tc.Preconditions = "N/A"
	tc.Source = res.Source
	tc.Phase = res.Phase
	return tc
}
