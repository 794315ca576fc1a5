package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/cache"
	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/util"
	"github.com/ppiankov/leadradar/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = eris.New("disallowed by robots.txt")

// ErrUnsupportedContent is returned for non-text responses
var ErrUnsupportedContent = eris.New("unsupported content type")

const maxFetchAttempts = 3

// fetchSleepFunc is swapped in tests to skip backoff
var fetchSleepFunc = time.Sleep

// StatusError is a non-2xx fetch response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status: " + e.Status
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Fetcher retrieves HTML pages politely: robots.txt, per-host rate limit, page cache
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	robots  *util.RobotsChecker // nil skips robots.txt
	limiter *worker.Limiter     // nil skips rate limiting
	pages   *cache.PageStore    // nil disables caching
	now     func() time.Time
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithRobots enables robots.txt checks
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithLimiter enables per-host rate limiting
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithPageCache enables page caching
func WithPageCache(p *cache.PageStore) FetcherOption {
	return func(f *Fetcher) { f.pages = p }
}

// NewFetcher creates a Fetcher from the HTTP config section
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return eris.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the page at rawURL, from cache when possible
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*cache.Page, error) {
	if f.pages != nil {
		if page, ok := f.pages.Get(rawURL); ok {
			zap.L().Debug("page cache hit", zap.String("url", rawURL))
			return page, nil
		}
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, eris.Wrapf(ErrDisallowed, "fetch %s", rawURL)
		}
		if f.limiter != nil {
			f.limiter.ApplyCrawlDelay(rawURL, delay)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	page, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.pages != nil {
		if err := f.pages.Put(page); err != nil {
			zap.L().Warn("page cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return page, nil
}

// FetchWithRetry retries 429, 5xx and transport errors with linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*cache.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		page, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < maxFetchAttempts {
			zap.L().Debug("retrying fetch", zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*cache.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isTextual(contentType) {
		return nil, eris.Wrapf(ErrUnsupportedContent, "%s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}

	return &cache.Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
		FetchedAt:   f.now().UTC(),
	}, nil
}

// isRetryableFetchError reports whether a fetch failure is worth another attempt:
// 429, 5xx, and transient transport errors
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if eris.Is(err, ErrDisallowed) || eris.Is(err, ErrUnsupportedContent) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.retryable()
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "timeout")
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
