// Package validate probes candidate URLs for reachability before they are
// analyzed, so dead or parked domains never become opportunities.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Result is the reachability outcome for one candidate URL
type Result struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"status_code,omitempty"`
	Reachable   bool   `json:"reachable"`
	Dead        bool   `json:"dead"` // 404/410 or the request could not be made
	RedirectURL string `json:"redirect_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Validator probes candidate URLs concurrently
type Validator struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
}

// NewValidator creates a validator using the HTTP section for proxies and User-Agent
func NewValidator(cfg model.HTTPConfig, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return eris.New("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
	}
}

// Validate probes all urls concurrently. Results keep the input order.
func (v *Validator) Validate(ctx context.Context, urls []string) []Result {
	if len(urls) == 0 {
		return []Result{}
	}

	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = Result{URL: rawURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSingleWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

// Reachable returns the urls that answered, in input order
func (v *Validator) Reachable(ctx context.Context, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, r := range v.Validate(ctx, urls) {
		if r.Reachable {
			out = append(out, r.URL)
			continue
		}
		zap.L().Debug("dropping unreachable candidate",
			zap.String("url", r.URL),
			zap.Int("status", r.StatusCode),
			zap.String("error", r.Error),
		)
	}
	return out
}

// validateSingle sends HEAD, falling back to GET for servers that reject HEAD
func (v *Validator) validateSingle(ctx context.Context, rawURL string) Result {
	result := v.request(ctx, http.MethodHead, rawURL)
	switch result.StatusCode {
	case http.StatusMethodNotAllowed, http.StatusNotImplemented, http.StatusForbidden:
		result = v.request(ctx, http.MethodGet, rawURL)
	}
	return result
}

func (v *Validator) request(ctx context.Context, method, rawURL string) Result {
	result := Result{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.Dead = true
		return result
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Reachable = isAlive(resp.StatusCode)
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		result.Dead = true
	}
	if final := resp.Request.URL.String(); final != rawURL {
		result.RedirectURL = final
	}
	return result
}

// isAlive treats auth walls and bot blocks as a live site
func isAlive(status int) bool {
	if status >= 200 && status < 400 {
		return true
	}
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *Validator) validateSingleWithRetry(ctx context.Context, rawURL string) Result {
	var result Result
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, rawURL)
		if !isRetryableValidationResult(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableValidationResult returns true for results that indicate transient failures
func isRetryableValidationResult(result Result) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		return isRetryableNetworkError(result.Error)
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
