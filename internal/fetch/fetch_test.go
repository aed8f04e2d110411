package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenit-qa/zenit/internal/resilience"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://example.com/login", "https://example.com/login", false},
		{"http://example.com", "http://example.com", false},
		{"example.com/path?q=1", "https://example.com/path?q=1", false},
		{"  example.com  ", "https://example.com", false},
		{"", "", true},
		{"ftp://example.com", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanHTML(t *testing.T) {
	raw := `<html><head><title>x</title><style>.a{}</style></head>
<body><script>alert(1)</script><button id="go">Go</button><noscript>js</noscript><svg><path/></svg></body></html>`

	got, err := CleanHTML(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "<html><body>"))
	assert.True(t, strings.HasSuffix(got, "</body></html>"))
	assert.Contains(t, got, `<button id="go">Go</button>`)
	for _, gone := range []string{"<script", "<style", "<noscript", "<svg", "<title"} {
		assert.NotContains(t, got, gone)
	}
}

func TestCleanHTML_EmptyBody(t *testing.T) {
	_, err := CleanHTML("<html><body><script>x()</script>  </body></html>")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func newTestFetcher() *StaticFetcher {
	return NewStaticFetcher(Config{
		Timeout:        2 * time.Second,
		MaxBodyBytes:   1024,
		RequestsPerSec: 1000,
		Burst:          100,
	}, zap.NewNop())
}

func TestStaticFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><a href="/x">X</a></body></html>`))
	}))
	defer srv.Close()

	html, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, `<a href="/x">X</a>`)
}

func TestStaticFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>moved</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	html, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "<p>moved</p>", html)
}

func TestStaticFetcher_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/huge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher()

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	var se *StatusError
	require.True(t, errors.As(err, &se), "error = %v", err)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Failed to fetch URL. Status: 404 Not Found", se.Error())

	_, err = f.Fetch(context.Background(), srv.URL+"/json")
	assert.ErrorIs(t, err, ErrNotHTML)

	_, err = f.Fetch(context.Background(), srv.URL+"/huge")
	assert.ErrorContains(t, err, "exceeds 1024 bytes")

	_, err = f.Fetch(context.Background(), "ftp://nope")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestStaticFetcher_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher()
	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())

	states := f.BreakerStates()
	require.Len(t, states, 1)
	for _, s := range states {
		assert.Equal(t, resilience.StateOpen, s)
	}
}

func TestStaticFetcher_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher()
	for i := 0; i < 8; i++ {
		var se *StatusError
		_, err := f.Fetch(context.Background(), srv.URL)
		assert.True(t, errors.As(err, &se))
	}
	for _, s := range f.BreakerStates() {
		assert.Equal(t, resilience.StateClosed, s)
	}
}

func TestRemoteHealthy(t *testing.T) {
	assert.True(t, remoteHealthy(nil))
	assert.True(t, remoteHealthy(ErrNotHTML))
	assert.True(t, remoteHealthy(&StatusError{Code: 404}))
	assert.False(t, remoteHealthy(&StatusError{Code: 503}))
	assert.False(t, remoteHealthy(errors.New("dial tcp: connection refused")))
}
