package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/leadradar/internal/analysis"
	"github.com/ppiankov/leadradar/internal/cache"
	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/extract/adapters"
	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/score"
	"github.com/ppiankov/leadradar/internal/util"
	"github.com/ppiankov/leadradar/internal/validate"
	"github.com/ppiankov/leadradar/internal/worker"
)

// ErrInvalidURL is returned when a scan target is not an absolute http(s) URL
var ErrInvalidURL = eris.New("invalid scan URL")

// rawContextLimit caps the discovery context fed into scoring
const rawContextLimit = 2000

// Analyzer produces the qualification analysis for one candidate
type Analyzer interface {
	Analyze(ctx context.Context, projectURL, content string, icp *model.IcpProfile) model.AnalysisResult
}

// Prober filters candidates down to the reachable ones
type Prober interface {
	Reachable(ctx context.Context, urls []string) []string
}

// ScanOptions are the per-run inputs, read fresh by the caller for every scan
type ScanOptions struct {
	UserID    string
	ICP       *model.IcpProfile
	Playbooks []model.Playbook

	// Exclude holds normalized URLs that are already tracked
	Exclude map[string]bool
}

// Pipeline orchestrates discovery: fetch, extract candidates, analyze, score
type Pipeline struct {
	fetcher   *Fetcher
	registry  *adapters.Registry
	analyzer  Analyzer
	scorer    *score.Scorer
	prober    Prober // nil disables reachability probing
	discovery model.DiscoveryConfig
	workers   int
	now       func() time.Time
	newID     func() string
}

// Option overrides a Pipeline collaborator
type Option func(*Pipeline)

// WithAnalyzer replaces the config-built analysis service
func WithAnalyzer(a Analyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithRegistry replaces the built-in aggregator registry
func WithRegistry(r *adapters.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithProber enables candidate probing with a custom prober
func WithProber(pr Prober) Option {
	return func(p *Pipeline) { p.prober = pr }
}

// WithClock sets the time source used for opportunity timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	var fetchOpts []FetcherOption
	if cfg.HTTP.RespectRobots {
		fetchOpts = append(fetchOpts, WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, nil)))
	}
	fetchOpts = append(fetchOpts, WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)))
	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.DiskDir, cfg.Cache.DiskTTL)
		fetchOpts = append(fetchOpts, WithPageCache(cache.NewPageStore(layered, 0)))
	}

	p := &Pipeline{
		fetcher:   NewFetcher(cfg.HTTP, fetchOpts...),
		registry:  adapters.NewRegistry(),
		scorer:    score.NewScorer(),
		discovery: cfg.Discovery,
		workers:   cfg.Concurrency.Workers,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if cfg.Discovery.ProbeCandidates {
		p.prober = validate.NewValidator(cfg.HTTP, cfg.Concurrency.ProbeWorkers)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.analyzer == nil {
		p.analyzer = analysis.NewServiceFromConfig(cfg)
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	return p
}

// ScanText discovers candidates in pasted text. Nothing is fetched except the candidates themselves.
func (p *Pipeline) ScanText(ctx context.Context, text string, opts ScanOptions) ([]model.Opportunity, error) {
	candidates := p.limit(p.exclude(extract.ExtractURLsFromText(text), opts.Exclude))
	zap.L().Info("text scan", zap.Int("candidates", len(candidates)))
	return p.analyzeCandidates(ctx, candidates, model.SourceTextScan, extract.Truncate(text, rawContextLimit), opts)
}

// ScanPage fetches a listing page and discovers the projects it links to
func (p *Pipeline) ScanPage(ctx context.Context, pageURL string, opts ScanOptions) ([]model.Opportunity, error) {
	return p.scanPage(ctx, pageURL, model.SourcePageScan, opts)
}

// ScanWatchlist scans every watchlist URL as a page. A failing URL is logged and skipped;
// an error is returned only when every URL failed.
func (p *Pipeline) ScanWatchlist(ctx context.Context, urls []string, opts ScanOptions) ([]model.Opportunity, error) {
	results := p.WatchBatch(opts).ProcessURLs(ctx, urls)

	var out []model.Opportunity
	var lastErr error
	failed := 0
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Err != nil {
			failed++
			lastErr = r.Err
			continue
		}
		for _, opp := range r.Opportunities {
			if seen[opp.URL] {
				continue
			}
			seen[opp.URL] = true
			out = append(out, opp)
		}
	}
	if len(results) > 0 && failed == len(results) {
		return nil, lastErr
	}
	return out, nil
}

// WatchBatch returns a batch processor scanning watchlist URLs with this pipeline
func (p *Pipeline) WatchBatch(opts ScanOptions) *worker.BatchProcessor {
	scanner := worker.ScannerFunc(func(ctx context.Context, rawURL string) ([]model.Opportunity, error) {
		return p.scanPage(ctx, rawURL, model.SourceWatchlist, opts)
	})
	return worker.NewBatchProcessor(scanner, p.workers)
}

func (p *Pipeline) scanPage(ctx context.Context, pageURL string, source model.SourceType, opts ScanOptions) ([]model.Opportunity, error) {
	normalized, ok := extract.NormalizeURL(pageURL)
	if !ok {
		return nil, eris.Wrapf(ErrInvalidURL, "%q", pageURL)
	}

	page, err := p.fetcher.FetchWithRetry(ctx, normalized)
	if err != nil {
		return nil, err
	}

	candidates := p.limit(p.exclude(p.discover(ctx, page), opts.Exclude))
	zap.L().Info("page scan",
		zap.String("url", normalized),
		zap.String("source", string(source)),
		zap.Int("candidates", len(candidates)),
	)

	rawContext := extract.Truncate(extract.ExtractText(page.Body).String(), rawContextLimit)
	return p.analyzeCandidates(ctx, candidates, source, rawContext, opts)
}

// discover runs the site-specific extractor first and falls back to the generic one.
// Detail pages are followed one hop and never become candidates themselves.
func (p *Pipeline) discover(ctx context.Context, page *cache.Page) []string {
	base := page.FinalURL
	if base == "" {
		base = page.URL
	}

	site := p.registry.ExtractWithSiteSpecific(page.Body, base)
	if !site.Handled {
		return extract.ExtractCandidateURLsFromHTML(page.Body, base)
	}

	candidates := append([]string{}, site.OutboundURLs...)
	if p.discovery.FollowDetailPages {
		candidates = append(candidates, p.followDetails(ctx, site.DetailURLs)...)
	}
	if len(candidates) == 0 {
		// only detail links matched and none were followed or yielded a project
		return p.offAggregator(extract.ExtractCandidateURLsFromHTML(page.Body, base))
	}
	return dedupe(candidates)
}

// offAggregator drops links back into registered aggregators so their
// detail pages are never analyzed as projects
func (p *Pipeline) offAggregator(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !p.registry.IsAggregatorHost(extract.HostOf(u)) {
			out = append(out, u)
		}
	}
	return out
}

// followDetails fetches up to MaxDetailPages detail pages and harvests their outbound links
func (p *Pipeline) followDetails(ctx context.Context, detailURLs []string) []string {
	if n := p.discovery.MaxDetailPages; len(detailURLs) > n {
		detailURLs = detailURLs[:max(n, 0)]
	}
	if len(detailURLs) == 0 {
		return nil
	}

	found := make([][]string, len(detailURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, detailURL := range detailURLs {
		g.Go(func() error {
			page, err := p.fetcher.FetchWithRetry(gctx, detailURL)
			if err != nil {
				zap.L().Debug("detail page skipped", zap.String("url", detailURL), zap.Error(err))
				return nil
			}
			base := page.FinalURL
			if base == "" {
				base = page.URL
			}
			found[i] = p.registry.ExtractWithSiteSpecific(page.Body, base).OutboundURLs
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, urls := range found {
		out = append(out, urls...)
	}
	return out
}

// analyzeCandidates fetches, analyzes and scores every candidate concurrently.
// Opportunities keep candidate order.
func (p *Pipeline) analyzeCandidates(ctx context.Context, candidates []string, source model.SourceType, rawContext string, opts ScanOptions) ([]model.Opportunity, error) {
	if p.prober != nil && len(candidates) > 0 {
		candidates = p.prober.Reachable(ctx, candidates)
	}
	if len(candidates) == 0 {
		return []model.Opportunity{}, nil
	}

	opps := make([]model.Opportunity, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, candidate := range candidates {
		g.Go(func() error {
			opps[i] = p.qualify(gctx, candidate, source, rawContext, opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return opps, nil
}

// qualify turns one candidate into a scored opportunity. An unreachable candidate is
// still analyzed from its URL alone.
func (p *Pipeline) qualify(ctx context.Context, candidate string, source model.SourceType, rawContext string, opts ScanOptions) model.Opportunity {
	content := ""
	if page, err := p.fetcher.FetchWithRetry(ctx, candidate); err != nil {
		zap.L().Debug("candidate fetch failed, analyzing URL only", zap.String("url", candidate), zap.Error(err))
	} else {
		content = extract.ExtractText(page.Body).String()
	}

	result := p.analyzer.Analyze(ctx, candidate, content, opts.ICP)
	scored := p.scorer.Score(score.Input{
		Analysis:   result,
		ICP:        opts.ICP,
		Playbooks:  opts.Playbooks,
		SourceType: source,
		RawContext: rawContext,
	})

	now := p.now().UTC()
	return model.Opportunity{
		ID:              p.newID(),
		UserID:          opts.UserID,
		URL:             candidate,
		SourceType:      source,
		Analysis:        result,
		LeadScore:       scored.LeadScore,
		SignalStrength:  scored.SignalStrength,
		LeadReasons:     scored.LeadReasons,
		PlaybookMatches: scored.PlaybookMatches,
		Status:          model.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (p *Pipeline) exclude(candidates []string, skip map[string]bool) []string {
	if len(skip) == 0 {
		return candidates
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func (p *Pipeline) limit(candidates []string) []string {
	if n := p.discovery.MaxCandidates; n > 0 && len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
