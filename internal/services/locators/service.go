// Package locators runs the locator engine for API callers: it validates
// requests, caches generated output, fetches remote pages and heals stale
// locators.
package locators

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/internal/fetch"
	"github.com/zenit-qa/zenit/internal/healing"
	"github.com/zenit-qa/zenit/internal/locator"
	"github.com/zenit-qa/zenit/internal/observability"
	rediscache "github.com/zenit-qa/zenit/internal/repository/redis"
	"github.com/zenit-qa/zenit/internal/resilience"
)

// Mode selects the extraction path
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeScan       Mode = "scan"
)

// OutputCache stores generated output by request key
type OutputCache interface {
	GetLocatorOutput(ctx context.Context, key string) (*locator.Output, error)
	SetLocatorOutput(ctx context.Context, key string, out *locator.Output, ttl time.Duration) error
}

// Config holds service settings
type Config struct {
	MaxElements      int
	MaxInputBytes    int
	CacheTTL         time.Duration
	EnableCaching    bool
	HealingThreshold float64
}

// Service generates, scrapes and heals locators
type Service struct {
	engine   *locator.Engine
	cache    OutputCache
	static   fetch.Fetcher
	rendered fetch.Fetcher
	metrics  *observability.Metrics
	cfg      Config
	logger   *zap.Logger
}

// Deps carries optional collaborators. Nil cache disables caching and nil
// rendered fetcher rejects rendered scrapes.
type Deps struct {
	Cache    OutputCache
	Static   fetch.Fetcher
	Rendered fetch.Fetcher
	Metrics  *observability.Metrics
}

// NewService creates a locator service
func NewService(cfg Config, deps Deps, logger *zap.Logger) *Service {
	opts := locator.DefaultOptions()
	if cfg.MaxElements > 0 {
		opts.MaxElements = cfg.MaxElements
	}
	if cfg.MaxInputBytes > 0 {
		opts.MaxInputBytes = cfg.MaxInputBytes
	}
	cfg.MaxElements, cfg.MaxInputBytes = opts.MaxElements, opts.MaxInputBytes
	if cfg.HealingThreshold <= 0 || cfg.HealingThreshold > 1 {
		cfg.HealingThreshold = healing.DefaultThreshold
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics("")
	}

	cache := deps.Cache
	if !cfg.EnableCaching {
		cache = nil
	}

	return &Service{
		engine:   locator.NewEngine(opts),
		cache:    cache,
		static:   deps.Static,
		rendered: deps.Rendered,
		metrics:  deps.Metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// GenerateRequest asks for locators of a markup snippet
type GenerateRequest struct {
	HTML      string `json:"html"`
	Framework string `json:"framework"`
	Language  string `json:"language"`
	Mode      Mode   `json:"mode,omitempty"`
}

// Generate produces locators and code for req.HTML
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*locator.Output, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, domain.ErrValidationField("html", "html is required")
	}
	fw, lang, err := parseTarget(req.Framework, req.Language)
	if err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeStructured
	}
	if mode != ModeStructured && mode != ModeScan {
		return nil, domain.ErrValidationField("mode", "mode must be structured or scan")
	}

	return s.run(ctx, mode, req.HTML, fw, lang)
}

func parseTarget(framework, language string) (locator.Framework, locator.Language, error) {
	if framework == "" {
		framework = string(locator.FrameworkPlaywright)
	}
	fw, err := locator.ParseFramework(framework)
	if err != nil {
		return "", "", domain.ErrValidationField("framework", err.Error())
	}
	if language == "" {
		language = string(locator.LanguageJavaScript)
	}
	return fw, locator.ParseLanguage(language), nil
}

func (s *Service) run(ctx context.Context, mode Mode, html string, fw locator.Framework, lang locator.Language) (*locator.Output, error) {
	var key string
	if s.cache != nil {
		key = rediscache.LocatorKey(string(mode), fw, lang, html)
		out, err := s.cache.GetLocatorOutput(ctx, key)
		switch {
		case err != nil:
			s.metrics.RecordLocatorCache("error")
			s.logger.Warn("locator cache lookup failed", zap.Error(err))
		case out != nil:
			s.metrics.RecordLocatorCache("hit")
			return out, nil
		default:
			s.metrics.RecordLocatorCache("miss")
		}
	}

	start := time.Now()
	var (
		out *locator.Output
		err error
	)
	if mode == ModeScan {
		out, err = s.engine.Scan(html, fw, lang)
	} else {
		out, err = s.engine.Generate(html, fw, lang)
	}
	if err != nil {
		s.metrics.RecordLocatorRun(string(mode), string(fw), runStatus(err), 0, time.Since(start))
		return nil, s.engineError(err)
	}
	s.metrics.RecordLocatorRun(string(mode), string(fw), "ok", len(out.Elements), time.Since(start))

	if s.cache != nil {
		if err := s.cache.SetLocatorOutput(ctx, key, out, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("locator cache store failed", zap.Error(err))
		}
	}
	return out, nil
}

func runStatus(err error) string {
	switch {
	case errors.Is(err, locator.ErrNoElements):
		return "no_elements"
	case errors.Is(err, locator.ErrInputTooLarge):
		return "too_large"
	default:
		return "parse_failure"
	}
}

// engineError converts engine errors to API errors
func (s *Service) engineError(err error) error {
	switch {
	case errors.Is(err, locator.ErrNoElements):
		return domain.ErrNoElements()
	case errors.Is(err, locator.ErrInputTooLarge):
		return domain.ErrPayloadTooLarge(s.cfg.MaxInputBytes)
	default:
		s.logger.Error("locator generation failed", zap.Error(err))
		return domain.ErrParseFailure(err)
	}
}

// ScrapeRequest asks for locators of a remote page
type ScrapeRequest struct {
	URL       string `json:"url"`
	Framework string `json:"framework"`
	Language  string `json:"language"`
	Rendered  bool   `json:"rendered,omitempty"`
}

// ScrapeResult carries the fetched URL with its locators
type ScrapeResult struct {
	URL    string          `json:"url"`
	Output *locator.Output `json:"output"`
}

// Scrape fetches a page, strips scripts and styles and scans what remains
func (s *Service) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error) {
	target, err := fetch.NormalizeURL(req.URL)
	if err != nil {
		return nil, domain.ErrValidationField("url", "a valid http(s) URL is required")
	}
	fw, lang, err := parseTarget(req.Framework, req.Language)
	if err != nil {
		return nil, err
	}

	fetcher, name := s.static, "static"
	if req.Rendered {
		fetcher, name = s.rendered, "rendered"
	}
	if fetcher == nil {
		return nil, domain.ErrServiceUnavailable(name + " fetch")
	}

	start := time.Now()
	raw, err := fetcher.Fetch(ctx, target)
	s.metrics.RecordFetch(name, fetchStatus(err), time.Since(start))
	s.publishBreakers()
	if err != nil {
		s.logger.Info("scrape fetch failed", zap.String("url", target), zap.Error(err))
		return nil, fetchError(err)
	}

	cleaned, err := fetch.CleanHTML(raw)
	if err != nil {
		return nil, domain.ErrFetchFailed(fetch.ErrEmptyBody.Error(), err)
	}

	out, err := s.run(ctx, ModeScan, cleaned, fw, lang)
	if err != nil {
		return nil, err
	}
	return &ScrapeResult{URL: target, Output: out}, nil
}

func (s *Service) publishBreakers() {
	sf, ok := s.static.(*fetch.StaticFetcher)
	if !ok {
		return
	}
	for host, state := range sf.BreakerStates() {
		s.metrics.SetBreakerState(host, int(state))
	}
}

func fetchStatus(err error) string {
	var se *fetch.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "http_error"
	case errors.Is(err, fetch.ErrNotHTML):
		return "not_html"
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func fetchError(err error) error {
	var se *fetch.StatusError
	switch {
	case errors.As(err, &se):
		return domain.ErrFetchFailed(se.Error(), err)
	case errors.Is(err, fetch.ErrNotHTML), errors.Is(err, fetch.ErrEmptyBody):
		return domain.ErrFetchFailed(err.Error(), err)
	case errors.Is(err, fetch.ErrInvalidURL):
		return domain.ErrValidationField("url", err.Error())
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return domain.ErrServiceUnavailable("target site")
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrTimeout("fetch")
	default:
		return domain.ErrFetchFailed("Failed to fetch the page.", err)
	}
}

// HealRequest asks for a replacement of a stale locator
type HealRequest struct {
	Locator   string `json:"locator"`
	HTML      string `json:"html"`
	Framework string `json:"framework,omitempty"`
}

// Heal finds the element on fresh markup that a stale locator most likely
// pointed at
func (s *Service) Heal(ctx context.Context, req HealRequest) (*healing.Match, error) {
	if strings.TrimSpace(req.Locator) == "" {
		return nil, domain.ErrValidationField("locator", "locator is required")
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, domain.ErrValidationField("html", "html is required")
	}
	fw, _, err := parseTarget(req.Framework, "")
	if err != nil {
		return nil, err
	}

	m, err := healing.NewHealer(s.engine, fw, s.cfg.HealingThreshold).Relocate(req.Locator, req.HTML)
	if err != nil {
		if errors.Is(err, healing.ErrNoMatch) {
			s.metrics.RecordHealing("no_match")
			return nil, domain.ErrHealingFailed(err.Error(), err)
		}
		s.metrics.RecordHealing("error")
		return nil, s.engineError(err)
	}

	if m.Exact {
		s.metrics.RecordHealing("exact")
	} else {
		s.metrics.RecordHealing("healed")
	}
	s.logger.Debug("locator healed",
		zap.String("stale", m.Stale),
		zap.String("replacement", m.Replacement.Value),
		zap.Float64("score", m.Score),
	)
	return m, nil
}
