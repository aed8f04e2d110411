// Package reporting renders session results as CSV exports and printable
// HTML reports and publishes exports to object storage.
package reporting

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/observability"
)

// ExportStore keeps published exports
type ExportStore interface {
	SaveExport(ctx context.Context, sessionID uuid.UUID, data []byte) (string, error)
	GetPresignedURL(ctx context.Context, key string) (string, error)
}

// Generator creates session reports
type Generator struct {
	storage   ExportStore
	templates *template.Template
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewGenerator creates a report generator. A nil storage disables Publish.
func NewGenerator(storage ExportStore, metrics *observability.Metrics, logger *zap.Logger) (*Generator, error) {
	tmpl, err := template.New("session").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"statusClass": func(s domain.ResultStatus) string {
			switch s {
			case domain.ResultFailKnown:
				return "Fail-Known"
			case domain.ResultNA:
				return "NA"
			}
			return string(s)
		},
	}).Parse(SessionTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}

	return &Generator{
		storage:   storage,
		templates: tmpl,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Export describes a published session export
type Export struct {
	SessionID uuid.UUID `json:"session_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Publish uploads the session CSV and returns a time-limited download link
func (g *Generator) Publish(ctx context.Context, s *domain.TestSession) (*Export, error) {
	if g.storage == nil {
		return nil, domain.ErrServiceUnavailable("export storage")
	}

	data, err := SessionCSV(s)
	if err != nil {
		return nil, domain.ErrInternal("could not build export").WithCause(err)
	}

	key, err := g.storage.SaveExport(ctx, s.ID, data)
	if err != nil {
		g.logger.Error("failed to upload export", zap.String("session_id", s.ID.String()), zap.Error(err))
		return nil, domain.ErrServiceUnavailable("export storage").WithCause(err)
	}
	url, err := g.storage.GetPresignedURL(ctx, key)
	if err != nil {
		return nil, domain.ErrServiceUnavailable("export storage").WithCause(err)
	}

	g.metrics.ExportsUploaded.Inc()
	g.logger.Info("session exported",
		zap.String("session_id", s.ID.String()),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	return &Export{
		SessionID: s.ID,
		Key:       key,
		URL:       url,
		Size:      len(data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RenderHTML renders the printable report of a session
func (g *Generator) RenderHTML(s *domain.TestSession) (string, error) {
	var buf bytes.Buffer
	err := g.templates.Execute(&buf, struct {
		Session  *domain.TestSession
		Duration string
		PassRate float64
	}{s, Duration(s), PassRate(s.Summary)})
	if err != nil {
		return "", fmt.Errorf("rendering session report: %w", err)
	}
	return buf.String(), nil
}

// FileName is the download name of a session CSV
func FileName(s *domain.TestSession) string {
	platform := domain.Slugify(string(s.Platform.Platform))
	if platform == "" {
		platform = "session"
	}
	return fmt.Sprintf("%s-%s-%s.csv", platform, s.CreatedAt.UTC().Format("20060102"), strings.SplitN(s.ID.String(), "-", 2)[0])
}
