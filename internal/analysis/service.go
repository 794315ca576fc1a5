package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/llm"
	"github.com/ppiankov/leadradar/internal/model"
)

// Mode is the strategy a Service runs with
type Mode string

const (
	ModeMock     Mode = "mock"
	ModeProvider Mode = "provider"
)

// Options tunes provider requests
type Options struct {
	Positioning string // who "we" are, embedded into prompts
	Model       string
	Temperature float64
	MaxTokens   int
}

// Service runs analysis and drafting operations. Safe for concurrent use.
type Service struct {
	caps     Capabilities
	provider llm.Provider
	opts     Options
	mode     Mode
}

// NewService chooses the strategy once: provider mode needs CanUseRealAI and a non-nil provider
func NewService(caps Capabilities, provider llm.Provider, opts Options) *Service {
	mode := ModeMock
	if caps.CanUseRealAI() && provider != nil {
		mode = ModeProvider
	}
	return &Service{caps: caps, provider: provider, opts: opts, mode: mode}
}

// NewServiceFromConfig builds the provider named in cfg.AI when the capability
// gate allows it. A provider that cannot be built degrades to mock mode.
func NewServiceFromConfig(cfg *model.Config) *Service {
	caps := CapabilitiesFromConfig(cfg.AI)
	opts := Options{
		Positioning: cfg.AI.Positioning,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	}
	if !caps.CanUseRealAI() {
		return NewService(caps, nil, opts)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.AI, cfg.HTTP))
	if err != nil {
		zap.L().Warn("llm provider unavailable, using mock analysis",
			zap.String("provider", cfg.AI.Provider),
			zap.Error(err),
		)
		provider = nil
	}
	return NewService(caps, provider, opts)
}

// Mode returns the strategy chosen at construction
func (s *Service) Mode() Mode {
	return s.mode
}

// Analyze produces a qualification analysis for a project page. Never fails.
func (s *Service) Analyze(ctx context.Context, projectURL, content string, icp *model.IcpProfile) model.AnalysisResult {
	if s.mode == ModeProvider {
		raw, err := s.complete(ctx, "analyze", projectURL, analysisPrompt(s.opts.Positioning, projectURL, content, icp))
		if err == nil {
			result, verr := ValidateAnalysis(raw)
			if verr == nil {
				return result
			}
			err = verr
		}
		s.fallback("analyze", projectURL, err)
	}
	return mockAnalysis(projectURL, content, icp)
}

// ExplainScore turns scoring reasons into a short explanation for a sales rep
func (s *Service) ExplainScore(ctx context.Context, projectURL string, leadScore int, reasons []string) string {
	if s.mode == ModeProvider {
		raw, err := s.complete(ctx, "explain", projectURL, explainPrompt(projectURL, leadScore, reasons))
		if err == nil {
			text, verr := validateExplanation(raw)
			if verr == nil {
				return text
			}
			err = verr
		}
		s.fallback("explain", projectURL, err)
	}
	return mockExplanation(projectURL, leadScore, reasons)
}

// GenerateOutreach drafts a first-touch message for one channel.
// Unknown channels are drafted as email.
func (s *Service) GenerateOutreach(ctx context.Context, projectURL string, a model.AnalysisResult, ch model.Channel) model.OutreachMessage {
	if _, ok := channelStyles[ch]; !ok {
		ch = model.ChannelEmail
	}
	if s.mode == ModeProvider {
		raw, err := s.complete(ctx, "outreach", projectURL, outreachPrompt(s.opts.Positioning, projectURL, a, ch))
		if err == nil {
			msg, verr := validateOutreach(raw, ch)
			if verr == nil {
				return msg
			}
			err = verr
		}
		s.fallback("outreach", projectURL, err)
	}
	return mockOutreach(projectURL, a, ch, s.opts.Positioning)
}

// GenerateSequence plans n touches (DefaultSequenceTouches when n <= 0, capped at MaxSequenceTouches)
func (s *Service) GenerateSequence(ctx context.Context, projectURL string, a model.AnalysisResult, n int) []model.SequenceTouch {
	n = clampTouches(n)
	if s.mode == ModeProvider {
		raw, err := s.complete(ctx, "sequence", projectURL, sequencePrompt(s.opts.Positioning, projectURL, a, n))
		if err == nil {
			touches, verr := validateSequence(raw, n)
			if verr == nil {
				return touches
			}
			err = verr
		}
		s.fallback("sequence", projectURL, err)
	}
	return mockSequence(projectURL, a, n)
}

// DraftAccountPlaybook proposes personas and angles for an account
func (s *Service) DraftAccountPlaybook(ctx context.Context, projectURL string, a model.AnalysisResult) model.AccountPlaybook {
	if s.mode == ModeProvider {
		raw, err := s.complete(ctx, "playbook", projectURL, accountPlaybookPrompt(s.opts.Positioning, projectURL, a))
		if err == nil {
			pb, verr := validateAccountPlaybook(raw)
			if verr == nil {
				return pb
			}
			err = verr
		}
		s.fallback("playbook", projectURL, err)
	}
	return mockAccountPlaybook(projectURL, a)
}

func (s *Service) complete(ctx context.Context, operation, projectURL, prompt string) (map[string]any, error) {
	resp, err := s.provider.Complete(ctx, llm.ChatRequest{
		Model:        s.opts.Model,
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Temperature:  s.opts.Temperature,
		MaxTokens:    s.opts.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("provider call complete",
		zap.String("operation", operation),
		zap.String("url", projectURL),
		zap.String("provider", s.provider.Name()),
		zap.Int("tokens", resp.TokensUsed),
	)
	return llm.DecodeJSON(s.provider.Name(), resp.Content)
}

func (s *Service) fallback(operation, projectURL string, err error) {
	zap.L().Warn("provider failed, using mock result",
		zap.String("operation", operation),
		zap.String("url", projectURL),
		zap.String("provider", s.provider.Name()),
		zap.String("plan", s.caps.Plan),
		zap.Error(err),
	)
}
