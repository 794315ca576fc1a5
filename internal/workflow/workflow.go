// Package workflow ties discovery, persistence and drafting together for the
// CLI and the JSON API. Every call reads playbooks and the ICP profile fresh.
package workflow

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/leadradar/internal/analysis"
	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/pipeline"
	"github.com/ppiankov/leadradar/internal/schedule"
	"github.com/ppiankov/leadradar/internal/store"
)

// Service is the application layer over a store, a pipeline and an analysis service
type Service struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	analysis *analysis.Service
	userID   string
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithUserID scopes opportunities to a user other than store.DefaultUserID
func WithUserID(id string) Option {
	return func(s *Service) { s.userID = id }
}

// WithClock sets the time source for transitions and scheduling
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a workflow service
func New(st store.Store, p *pipeline.Pipeline, svc *analysis.Service, opts ...Option) *Service {
	s := &Service{
		store:    st,
		pipeline: p,
		analysis: svc,
		userID:   store.DefaultUserID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanResult reports what a scan found and how much of it was new
type ScanResult struct {
	Opportunities []model.Opportunity `json:"opportunities"`
	Saved         int                 `json:"saved"`
}

// Board is the opportunities view: the filtered list plus facets for the filter bar
type Board struct {
	Opportunities []model.Opportunity             `json:"opportunities"`
	StatusCounts  map[model.OpportunityStatus]int `json:"status_counts"`
	SourceTypes   []model.SourceType              `json:"source_types"`
}

// ScanText scans pasted text and stores the new opportunities
func (s *Service) ScanText(ctx context.Context, text string) (*ScanResult, error) {
	return s.scan(ctx, func(opts pipeline.ScanOptions) ([]model.Opportunity, error) {
		return s.pipeline.ScanText(ctx, text, opts)
	})
}

// ScanPage scans one listing page and stores the new opportunities
func (s *Service) ScanPage(ctx context.Context, pageURL string) (*ScanResult, error) {
	return s.scan(ctx, func(opts pipeline.ScanOptions) ([]model.Opportunity, error) {
		return s.pipeline.ScanPage(ctx, pageURL, opts)
	})
}

// ScanWatchlist scans every watchlist URL and stores the new opportunities
func (s *Service) ScanWatchlist(ctx context.Context, urls []string) (*ScanResult, error) {
	return s.scan(ctx, func(opts pipeline.ScanOptions) ([]model.Opportunity, error) {
		return s.pipeline.ScanWatchlist(ctx, urls, opts)
	})
}

func (s *Service) scan(ctx context.Context, run func(pipeline.ScanOptions) ([]model.Opportunity, error)) (*ScanResult, error) {
	opts, err := s.scanOptions(ctx)
	if err != nil {
		return nil, err
	}

	opps, err := run(opts)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.SaveOpportunities(ctx, opps)
	if err != nil {
		return nil, eris.Wrap(err, "save opportunities")
	}
	zap.L().Info("scan complete", zap.Int("found", len(opps)), zap.Int("saved", saved))
	return &ScanResult{Opportunities: opps, Saved: saved}, nil
}

// scanOptions loads the per-run inputs concurrently
func (s *Service) scanOptions(ctx context.Context) (pipeline.ScanOptions, error) {
	opts := pipeline.ScanOptions{UserID: s.userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		icp, err := s.store.GetICP(gctx, s.userID)
		opts.ICP = icp
		return eris.Wrap(err, "load icp")
	})
	g.Go(func() error {
		pbs, err := s.store.ListPlaybooks(gctx)
		opts.Playbooks = pbs
		return eris.Wrap(err, "load playbooks")
	})
	g.Go(func() error {
		tracked, err := s.store.TrackedURLs(gctx, s.userID)
		opts.Exclude = tracked
		return eris.Wrap(err, "load tracked urls")
	})
	if err := g.Wait(); err != nil {
		return pipeline.ScanOptions{}, err
	}
	return opts, nil
}

// Board reactivates due snoozes, then loads the list and its facets concurrently
func (s *Service) Board(ctx context.Context, filter store.OpportunityFilter) (*Board, error) {
	if n, err := s.store.ReactivateDue(ctx, s.now()); err != nil {
		return nil, err
	} else if n > 0 {
		zap.L().Info("reactivated snoozed opportunities", zap.Int("count", n))
	}
	if filter.UserID == "" {
		filter.UserID = s.userID
	}

	var board Board
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opps, err := s.store.ListOpportunities(gctx, filter)
		board.Opportunities = opps
		return err
	})
	g.Go(func() error {
		counts, err := s.store.CountByStatus(gctx, filter.UserID)
		board.StatusCounts = counts
		return err
	})
	g.Go(func() error {
		types, err := s.store.SourceTypes(gctx, filter.UserID)
		board.SourceTypes = types
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &board, nil
}

// Convert turns an open opportunity into a project named after its host
func (s *Service) Convert(ctx context.Context, id string) (*model.Project, error) {
	opp, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	project := model.Project{
		Name:     analysis.ProjectName(opp.URL),
		URL:      opp.URL,
		IcpScore: opp.LeadScore,
	}
	return s.store.ConvertOpportunity(ctx, id, project, s.now())
}

// Discard marks an open opportunity as not worth pursuing
func (s *Service) Discard(ctx context.Context, id string) (*model.Opportunity, error) {
	return s.transition(ctx, id, func(o *model.Opportunity, now time.Time) error {
		return o.Discard(now)
	})
}

// Snooze hides a NEW opportunity until the given time
func (s *Service) Snooze(ctx context.Context, id string, until time.Time) (*model.Opportunity, error) {
	return s.transition(ctx, id, func(o *model.Opportunity, now time.Time) error {
		return o.Snooze(until, now)
	})
}

func (s *Service) transition(ctx context.Context, id string, apply func(*model.Opportunity, time.Time) error) (*model.Opportunity, error) {
	opp, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	from := opp.Status
	if err := apply(opp, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateOpportunityStatus(ctx, opp, from); err != nil {
		return nil, err
	}
	return opp, nil
}

// Explain writes a short paragraph on why an opportunity scored as it did
func (s *Service) Explain(ctx context.Context, id string) (string, error) {
	opp, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return "", err
	}
	return s.analysis.ExplainScore(ctx, opp.URL, opp.LeadScore, opp.LeadReasons), nil
}

// Outreach drafts a first-touch message for an opportunity on one channel
func (s *Service) Outreach(ctx context.Context, id string, ch model.Channel) (*model.OutreachMessage, error) {
	opp, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	msg := s.analysis.GenerateOutreach(ctx, opp.URL, opp.Analysis, ch)
	return &msg, nil
}

// AccountPlan drafts personas and angles for an opportunity
func (s *Service) AccountPlan(ctx context.Context, id string) (*model.AccountPlaybook, error) {
	opp, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	plan := s.analysis.DraftAccountPlaybook(ctx, opp.URL, opp.Analysis)
	return &plan, nil
}

// SequenceRequest describes a sequence to generate for a project
type SequenceRequest struct {
	ProjectID string    `json:"project_id"`
	ContactID string    `json:"contact_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Touches   int       `json:"touches"`
	Start     time.Time `json:"start"`
}

// BuildSequence generates touches for a project and stores them as PENDING steps.
// The project's source opportunity supplies the analysis when there is one.
func (s *Service) BuildSequence(ctx context.Context, req SequenceRequest) (*model.Sequence, []model.SequenceStep, error) {
	project, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.projectAnalysis(ctx, project)
	if err != nil {
		return nil, nil, err
	}

	start := req.Start
	if start.IsZero() {
		start = s.now()
	}
	touches := s.analysis.GenerateSequence(ctx, project.URL, result, req.Touches)
	steps := schedule.StepsFromTouches(touches, start)

	name := req.Name
	if name == "" {
		name = project.Name + " outreach"
	}
	seq := &model.Sequence{
		ProjectID: project.ID,
		ContactID: req.ContactID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateSequence(ctx, seq, steps); err != nil {
		return nil, nil, err
	}
	zap.L().Info("sequence created",
		zap.String("project", project.ID),
		zap.String("sequence", seq.ID),
		zap.Int("steps", len(steps)),
	)
	return seq, steps, nil
}

func (s *Service) projectAnalysis(ctx context.Context, project *model.Project) (model.AnalysisResult, error) {
	if project.OpportunityID != "" {
		opp, err := s.store.GetOpportunity(ctx, project.OpportunityID)
		if err == nil {
			return opp.Analysis, nil
		}
		if !eris.Is(err, store.ErrNotFound) {
			return model.AnalysisResult{}, err
		}
	}
	icp, err := s.store.GetICP(ctx, s.userID)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	return s.analysis.Analyze(ctx, project.URL, "", icp), nil
}

// MarkSent completes a pending step as SENT
func (s *Service) MarkSent(ctx context.Context, stepID string) (*model.SequenceStep, error) {
	return s.store.CompleteStep(ctx, stepID, model.StepSent, s.now().UTC())
}

// Skip completes a pending step as SKIPPED
func (s *Service) Skip(ctx context.Context, stepID string) (*model.SequenceStep, error) {
	return s.store.CompleteStep(ctx, stepID, model.StepSkipped, s.now().UTC())
}

// Today ranks every project by urgency with its next pending step.
// With dueOnly set, projects with nothing due by end of day are dropped.
func (s *Service) Today(ctx context.Context, dueOnly bool) ([]schedule.TodayItem, error) {
	var (
		projects []model.Project
		steps    []model.SequenceStep
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.store.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		steps, err = s.store.ListSteps(gctx, store.StepFilter{Status: model.StepPending})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	items := schedule.TodayQueue(projects, steps, now)
	if dueOnly {
		items = schedule.Actionable(items, now)
	}
	return items, nil
}

// Playbooks

// SavePlaybook creates or replaces a playbook
func (s *Service) SavePlaybook(ctx context.Context, pb *model.Playbook) error {
	return s.store.SavePlaybook(ctx, pb)
}

// ListPlaybooks returns every playbook
func (s *Service) ListPlaybooks(ctx context.Context) ([]model.Playbook, error) {
	return s.store.ListPlaybooks(ctx)
}

// DeletePlaybook removes a playbook by id or name
func (s *Service) DeletePlaybook(ctx context.Context, idOrName string) error {
	return s.store.DeletePlaybook(ctx, idOrName)
}

// ICP returns the stored profile, or nil when none is set
func (s *Service) ICP(ctx context.Context) (*model.IcpProfile, error) {
	return s.store.GetICP(ctx, s.userID)
}

// SetICP replaces the stored profile
func (s *Service) SetICP(ctx context.Context, icp model.IcpProfile) error {
	return s.store.SetICP(ctx, s.userID, icp)
}

// AddContact attaches a person to a project
func (s *Service) AddContact(ctx context.Context, c *model.Contact) error {
	if _, err := s.store.GetProject(ctx, c.ProjectID); err != nil {
		return err
	}
	return s.store.CreateContact(ctx, c)
}

// Contacts lists the people at a project
func (s *Service) Contacts(ctx context.Context, projectID string) ([]model.Contact, error) {
	return s.store.ListContacts(ctx, projectID)
}
