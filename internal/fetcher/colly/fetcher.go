// Package collyfetcher implements the page fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/keno-monitor/internal/metrics"
	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements monitor.Fetcher using the Colly collector. Every Fetch
// clones the base collector, and the whole Fetcher is cheap to rebuild, which
// is how the supervisor gets a completely fresh client after an error streak.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// The monitor polls one page forever; revisits are the point.
	c.AllowURLRevisit = true

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single GET against target with browser headers and a
// cache-busting query parameter, returning the page markup. Non-2xx statuses
// and transport failures come back wrapped in monitor.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	var (
		markup     string
		statusCode int
		fetchErr   error
	)
	start := time.Now()
	collector := f.buildCollector(&markup, &statusCode, &fetchErr)

	err := f.runCollector(ctx, collector, cacheBustURL(target, start), &fetchErr)
	metrics.ObserveFetch(statusCode, time.Since(start))
	if err != nil {
		return "", err
	}
	return markup, nil
}

func (f *Fetcher) buildCollector(markup *string, statusCode *int, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	f.configureCollectorHooks(collector, markup, statusCode, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, markup *string, statusCode *int, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		for key, value := range browserHeaders() {
			r.Headers.Set(key, value)
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		*statusCode = r.StatusCode
		*markup = string(r.Body)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			*statusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, target string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: fetch canceled: %v", monitor.ErrFetch, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: visit %s: %v", monitor.ErrFetch, target, err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("%w: response: %v", monitor.ErrFetch, *fetchErr)
		}
		return nil
	}
}

// cacheBustURL appends t=<unix-millis> so intermediaries serve fresh markup.
// An unparseable target is returned as-is and left for the collector to
// reject.
func cacheBustURL(target string, now time.Time) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// browserHeaders is the desktop-browser profile sent with every request.
// Accept-Encoding is left to the transport so response bodies arrive
// decompressed; the User-Agent rides on the collector itself.
func browserHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Connection":      "keep-alive",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
