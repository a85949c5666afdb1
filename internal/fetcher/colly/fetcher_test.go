package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/keno-monitor/internal/metrics"
	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

func TestFetcherReturnsMarkup(t *testing.T) {
	t.Parallel()
	metrics.Init()

	var (
		mu           sync.Mutex
		gotAgent     string
		gotBuster    string
		gotCacheCtrl string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAgent = r.Header.Get("User-Agent")
		gotBuster = r.URL.Query().Get("t")
		gotCacheCtrl = r.Header.Get("Cache-Control")
		mu.Unlock()
		w.Write([]byte(`<html><span class="blink">42</span></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "monitor-agent", Timeout: 2 * time.Second})
	markup, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(markup, "blink") {
		t.Fatalf("expected page markup, got %q", markup)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotAgent != "monitor-agent" {
		t.Fatalf("expected user agent override, got %q", gotAgent)
	}
	if gotBuster == "" {
		t.Fatal("expected cache-busting query parameter")
	}
	if gotCacheCtrl != "no-cache" {
		t.Fatalf("expected no-cache header, got %q", gotCacheCtrl)
	}
}

func TestFetcherRevisitsSameTarget(t *testing.T) {
	t.Parallel()
	metrics.Init()

	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte("<html>ok</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch() #%d error = %v", i+1, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 3 {
		t.Fatalf("expected 3 fetches to reach the server, got %d", hits)
	}
}

func TestFetcherWrapsHTTPErrors(t *testing.T) {
	t.Parallel()
	metrics.Init()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, monitor.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetcherContextCanceled(t *testing.T) {
	t.Parallel()
	metrics.Init()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	f := New(Config{Timeout: 10 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	if !errors.Is(err, monitor.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected prompt cancellation, took %v", elapsed)
	}
}

func TestCacheBustURL(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000123)
	if got := cacheBustURL("https://flashsport.bet/", now); got != "https://flashsport.bet/?t=1700000000123" {
		t.Fatalf("unexpected url: %s", got)
	}

	got := cacheBustURL("https://example.com/page?lang=en", now)
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", got, err)
	}
	if u.Query().Get("lang") != "en" || u.Query().Get("t") != "1700000000123" {
		t.Fatalf("expected both query params, got %s", got)
	}
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	var (
		markup     string
		statusCode int
		fetchErr   error
	)

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &markup, &statusCode, &fetchErr)
	if hooks.onRequest == nil || hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	if collyReq.Headers.Get("Cache-Control") != "no-cache" {
		t.Fatalf("expected browser headers, got %+v", collyReq.Headers)
	}
	if collyReq.Headers.Get("Accept-Encoding") != "" {
		t.Fatal("expected encoding negotiation to stay with the transport")
	}

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("<html>ok</html>"),
	})
	if statusCode != http.StatusOK || markup != "<html>ok</html>" {
		t.Fatalf("unexpected capture: %d %q", statusCode, markup)
	}

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	if statusCode != http.StatusBadGateway || fetchErr == nil {
		t.Fatalf("expected error capture, got %d %v", statusCode, fetchErr)
	}
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
