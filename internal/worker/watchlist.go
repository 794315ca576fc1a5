package worker

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
)

// Scanner turns one watchlist URL into opportunities
type Scanner interface {
	ScanURL(ctx context.Context, rawURL string) ([]model.Opportunity, error)
}

// ScannerFunc adapts a function to Scanner
type ScannerFunc func(ctx context.Context, rawURL string) ([]model.Opportunity, error)

func (f ScannerFunc) ScanURL(ctx context.Context, rawURL string) ([]model.Opportunity, error) {
	return f(ctx, rawURL)
}

// WatchResult is the outcome for one watchlist entry
type WatchResult struct {
	URL           string
	Opportunities []model.Opportunity
	Err           error
}

// BatchProcessor scans watchlist URLs concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a processor running at most concurrency scans at once
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{scanner: scanner, concurrency: concurrency}
}

// ProcessURLs scans every URL and returns one result per URL in input order.
// A failing URL is reported in its result and never aborts the batch.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []WatchResult {
	if len(urls) == 0 {
		return []WatchResult{}
	}

	tasks := make([]Task[WatchResult], 0, len(urls))
	for _, u := range urls {
		tasks = append(tasks, func(ctx context.Context) WatchResult {
			opps, err := b.scanner.ScanURL(ctx, u)
			if err != nil {
				zap.L().Warn("watchlist scan failed", zap.String("url", u), zap.Error(err))
			}
			return WatchResult{URL: u, Opportunities: opps, Err: err}
		})
	}
	return Run(ctx, b.concurrency, tasks)
}

// ProcessFile reads a watchlist file and scans it
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]WatchResult, error) {
	urls, err := ReadWatchlist(path)
	if err != nil {
		return nil, err
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadWatchlist reads a watchlist file: one URL per line, '#' comments,
// duplicates collapsed after normalization. Invalid lines are skipped.
func ReadWatchlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open watchlist %s", path)
	}
	defer func() { _ = f.Close() }()

	urls, skipped, err := ParseWatchlist(f)
	if err != nil {
		return nil, eris.Wrapf(err, "read watchlist %s", path)
	}
	for _, line := range skipped {
		zap.L().Warn("skipping invalid watchlist entry", zap.String("path", path), zap.String("entry", line))
	}
	return urls, nil
}

// ParseWatchlist returns the normalized URLs and the raw lines that were not valid URLs
func ParseWatchlist(r io.Reader) (urls []string, skipped []string, err error) {
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") {
			line = "https://" + line
		}

		normalized, ok := extract.NormalizeURL(line)
		if !ok {
			skipped = append(skipped, line)
			continue
		}
		if !seen[normalized] {
			seen[normalized] = true
			urls = append(urls, normalized)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return urls, skipped, nil
}
