// Package score is the rule-based opportunity scoring engine.
// Every point swing carries a human-readable reason so a rep can challenge a ranking.
package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/leadradar/internal/model"
)

// Bounds
const (
	MaxLeadScore      = 100
	MaxSignalStrength = 50
)

// Point values
const (
	icpMatchPoints = 15
	signalPoints   = 5
	playbookPoints = 10
)

// DefaultSignalKeywords are launch/funding signals that raise both score and signal strength
var DefaultSignalKeywords = []string{
	"testnet", "mainnet", "launching", "audit", "raise", "funding", "announced", "beta", "alpha",
}

// sourceBonus is {score, signal} per discovery source
var sourceBonus = map[model.SourceType][2]int{
	model.SourceWatchlist: {20, 10},
	model.SourcePageScan:  {10, 5},
	model.SourceTextScan:  {5, 5},
}

// ContributionKind groups contributions by scoring step
type ContributionKind string

const (
	KindICPMatch        ContributionKind = "icp_match"
	KindSignalKeyword   ContributionKind = "signal_keyword"
	KindSourceType      ContributionKind = "source_type"
	KindPlaybookBoost   ContributionKind = "playbook_boost"
	KindPlaybookPenalty ContributionKind = "playbook_penalty"
)

// Contribution is one point swing and its reason
type Contribution struct {
	Kind        ContributionKind `json:"kind"`
	Delta       int              `json:"delta"`
	SignalDelta int              `json:"signal_delta,omitempty"`
	Reason      string           `json:"reason"`
}

// Input is everything the engine reads. All fields are optional except SourceType.
type Input struct {
	Analysis   model.AnalysisResult
	ICP        *model.IcpProfile
	Playbooks  []model.Playbook
	SourceType model.SourceType
	RawContext string
}

// Result is the bounded score with its explanation
type Result struct {
	LeadScore       int            `json:"lead_score"`
	SignalStrength  int            `json:"signal_strength"`
	LeadReasons     []string       `json:"lead_reasons"`
	PlaybookMatches []string       `json:"playbook_matches"`
	Contributions   []Contribution `json:"contributions"`
}

// Options tunes the engine
type Options struct {
	// SignalKeywords overrides DefaultSignalKeywords when non-empty
	SignalKeywords []string

	// CountPerOccurrence scores each occurrence of a signal keyword instead of once per keyword
	CountPerOccurrence bool
}

// Scorer calculates lead scores. Stateless after construction and safe for concurrent use.
type Scorer struct {
	keywords           []string
	countPerOccurrence bool
}

// NewScorer creates a scorer with default options
func NewScorer() *Scorer {
	return NewScorerWithOptions(Options{})
}

// NewScorerWithOptions creates a scorer with custom options
func NewScorerWithOptions(opts Options) *Scorer {
	keywords := DefaultSignalKeywords
	if len(opts.SignalKeywords) > 0 {
		keywords = make([]string, 0, len(opts.SignalKeywords))
		for _, kw := range opts.SignalKeywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}
	return &Scorer{keywords: keywords, countPerOccurrence: opts.CountPerOccurrence}
}

// Score runs every step and clamps the totals. Never mutates the input.
func (s *Scorer) Score(in Input) Result {
	blob := buildBlob(in)

	var contributions []Contribution

	// 1. ICP tag match
	contributions = append(contributions, s.icpMatch(in.Analysis.CategoryTags, in.ICP)...)

	// 2. Signal keywords
	contributions = append(contributions, s.signalKeywords(blob)...)

	// 3. Source-type bonus
	contributions = append(contributions, s.sourceType(in.SourceType)...)

	// 4. Playbooks
	playbookContribs, matches := s.playbooks(blob, in.Playbooks)
	contributions = append(contributions, playbookContribs...)

	leadScore, signal := 0, 0
	reasons := make([]string, 0, len(contributions))
	for _, c := range contributions {
		leadScore += c.Delta
		signal += c.SignalDelta
		reasons = append(reasons, c.Reason)
	}

	return Result{
		LeadScore:       clamp(leadScore, 0, MaxLeadScore),
		SignalStrength:  clamp(signal, 0, MaxSignalStrength),
		LeadReasons:     reasons,
		PlaybookMatches: matches,
		Contributions:   contributions,
	}
}

// buildBlob lower-cases summary, target users, pain points, raw context and tags into one text
func buildBlob(in Input) string {
	parts := []string{
		in.Analysis.Summary,
		in.Analysis.TargetUsers,
		in.Analysis.PainPoints,
		in.RawContext,
		strings.Join(in.Analysis.CategoryTags, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// icpMatch awards a single bonus when any tag contains any ICP industry keyword
func (s *Scorer) icpMatch(tags []string, icp *model.IcpProfile) []Contribution {
	if !icp.HasIndustries() {
		return nil
	}
	for _, tag := range tags {
		t := strings.ToLower(tag)
		for _, industry := range icp.Industries {
			kw := strings.ToLower(strings.TrimSpace(industry))
			if kw != "" && strings.Contains(t, kw) {
				return []Contribution{{
					Kind:   KindICPMatch,
					Delta:  icpMatchPoints,
					Reason: fmt.Sprintf("ICP match: %q matches industry %q (+%d)", tag, industry, icpMatchPoints),
				}}
			}
		}
	}
	return nil
}

func (s *Scorer) signalKeywords(blob string) []Contribution {
	var out []Contribution
	for _, kw := range s.keywords {
		n := strings.Count(blob, kw)
		if n == 0 {
			continue
		}
		if !s.countPerOccurrence {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, Contribution{
				Kind:        KindSignalKeyword,
				Delta:       signalPoints,
				SignalDelta: signalPoints,
				Reason:      fmt.Sprintf("Signal keyword: %s (+%d)", kw, signalPoints),
			})
		}
	}
	return out
}

func (s *Scorer) sourceType(source model.SourceType) []Contribution {
	bonus, ok := sourceBonus[source]
	if !ok {
		return nil
	}
	return []Contribution{{
		Kind:        KindSourceType,
		Delta:       bonus[0],
		SignalDelta: bonus[1],
		Reason:      fmt.Sprintf("Source: %s (+%d)", source, bonus[0]),
	}}
}

// playbooks applies boosts and penalties; each matching playbook is listed once
func (s *Scorer) playbooks(blob string, playbooks []model.Playbook) ([]Contribution, []string) {
	var out []Contribution
	matches := []string{}

	for _, pb := range playbooks {
		matched := false
		for _, kw := range pb.Boosts {
			if containsKeyword(blob, kw) {
				matched = true
				out = append(out, Contribution{
					Kind:   KindPlaybookBoost,
					Delta:  playbookPoints,
					Reason: fmt.Sprintf("Playbook %q boost: %s (+%d)", pb.Name, kw, playbookPoints),
				})
			}
		}
		for _, kw := range pb.Penalties {
			if containsKeyword(blob, kw) {
				matched = true
				out = append(out, Contribution{
					Kind:   KindPlaybookPenalty,
					Delta:  -playbookPoints,
					Reason: fmt.Sprintf("Playbook %q penalty: %s (-%d)", pb.Name, kw, playbookPoints),
				})
			}
		}
		if matched {
			matches = append(matches, pb.Name)
		}
	}
	return out, matches
}

// containsKeyword is a case-insensitive substring test; blank keywords never match
func containsKeyword(blob, kw string) bool {
	kw = strings.ToLower(strings.TrimSpace(kw))
	return kw != "" && strings.Contains(blob, kw)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
