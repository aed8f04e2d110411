// Package fetch downloads pages whose HTML is fed to the locator engine.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher returns the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNotHTML is returned when the response is not an HTML document
	ErrNotHTML = errors.New("the URL did not return HTML content")
	// ErrEmptyBody is returned when cleaning leaves no body content
	ErrEmptyBody = errors.New("could not extract content from the page body")
)

// StatusError reports a non-200 response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch URL. Status: %s", e.Status)
}

// NormalizeURL defaults a bare host to https and checks the result is an
// absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidURL, raw)
		}
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// CleanHTML drops script, style, noscript and svg elements and wraps what is
// left of the body in a bare document.
func CleanHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}
	doc.Find("script, style, noscript, svg").Remove()

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("rendering body: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		return "", ErrEmptyBody
	}
	return "<html><body>" + body + "</body></html>", nil
}
