package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zenit-qa/zenit/internal/resilience"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
)

// Config holds settings for the static fetcher
type Config struct {
	Timeout        time.Duration
	MaxBodyBytes   int64
	RequestsPerSec float64
	Burst          int
	UserAgent      string
}

// DefaultConfig returns conservative defaults
func DefaultConfig() Config {
	return Config{
		Timeout:        20 * time.Second,
		MaxBodyBytes:   5 << 20,
		RequestsPerSec: 2,
		Burst:          4,
		UserAgent:      DefaultUserAgent,
	}
}

// StaticFetcher fetches server-rendered HTML over plain HTTP. Requests are
// throttled globally and each target host gets its own circuit breaker.
type StaticFetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	breakers *resilience.Registry
	cfg      Config
	logger   *zap.Logger
}

// NewStaticFetcher creates a static fetcher
func NewStaticFetcher(cfg Config, logger *zap.Logger) *StaticFetcher {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	breakers := resilience.NewRegistry(func(host string) resilience.Config {
		c := resilience.DefaultConfig(host)
		c.IsSuccessful = remoteHealthy
		c.OnStateChange = func(name string, from, to resilience.State) {
			logger.Warn("fetch circuit breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
		return c
	})

	return &StaticFetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breakers: breakers,
		cfg:      cfg,
		logger:   logger,
	}
}

// remoteHealthy counts answers that prove the host is up as successes
func remoteHealthy(err error) bool {
	if err == nil || errors.Is(err, ErrNotHTML) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code < http.StatusInternalServerError
}

// Fetch downloads rawURL and returns its HTML
func (f *StaticFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(target)

	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	html, err := resilience.Do(ctx, f.breakers.Get(u.Host), func(ctx context.Context) (string, error) {
		return f.get(ctx, target)
	})
	if err != nil {
		f.logger.Debug("fetch failed", zap.String("url", target), zap.Error(err))
		return "", err
	}

	f.logger.Debug("fetched page",
		zap.String("url", target),
		zap.Int("bytes", len(html)),
		zap.Duration("duration", time.Since(start)),
	)
	return html, nil
}

// BreakerStates reports the breaker state per host
func (f *StaticFetcher) BreakerStates() map[string]resilience.State {
	return f.breakers.States()
}

func (f *StaticFetcher) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", ErrNotHTML
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return "", fmt.Errorf("page exceeds %d bytes", f.cfg.MaxBodyBytes)
	}
	return string(body), nil
}
